package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// maxHistoryLines caps how many history records are printed.
const maxHistoryLines = 10

// View renders the session as plain text lines on a writer.
type View struct {
	out io.Writer
	mu  sync.Mutex

	// ShowPositions prints every position update; off by default since
	// updates arrive several times per second
	ShowPositions bool

	duration time.Duration
	now      func() time.Time
}

// NewView creates a view writing to out.
func NewView(out io.Writer) *View {
	return &View{
		out: out,
		now: time.Now,
	}
}

func (v *View) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

// SetNowPlaying implements ports.View.
func (v *View) SetNowPlaying(entry *domain.QueueEntry, status domain.PlaybackStatus) {
	if entry == nil {
		v.mu.Lock()
		v.duration = 0
		v.mu.Unlock()
		v.printf("%s nothing playing\n", statusSymbol(status))
		return
	}

	v.mu.Lock()
	v.duration = entry.Track.Duration
	v.mu.Unlock()
	v.printf("%s %d. %s [%s]\n", statusSymbol(status), entry.Position+1, trackLabel(entry.Track), FormatDuration(entry.Track.Duration))
}

// SetModes implements ports.View.
func (v *View) SetModes(mode domain.RepeatMode, shuffle bool) {
	v.printf("repeat: %s, shuffle: %s\n", mode, onOff(shuffle))
}

// SetPosition implements ports.View.
func (v *View) SetPosition(elapsed time.Duration) {
	v.mu.Lock()
	show, total := v.ShowPositions, v.duration
	v.mu.Unlock()
	if !show {
		return
	}
	v.printf("%s / %s\n", FormatDuration(elapsed), FormatDuration(total))
}

// ShowQueue implements ports.View.
func (v *View) ShowQueue(queue []domain.QueueEntry, currentIndex int) {
	var b strings.Builder

	var total time.Duration
	for _, entry := range queue {
		total += entry.Track.Duration
	}
	fmt.Fprintf(&b, "queue: %s tracks, %s\n", humanize.Comma(int64(len(queue))), FormatDuration(total))

	for i, entry := range queue {
		marker := " "
		if i == currentIndex {
			marker = ">"
		}
		added := " "
		if entry.ManuallyAdded {
			added = "+"
		}
		fmt.Fprintf(&b, "%s%s%3d. %s [%s]\n", marker, added, i+1, trackLabel(entry.Track), FormatDuration(entry.Track.Duration))
	}
	v.printf("%s", b.String())
}

// ShowHistory implements ports.View.
func (v *View) ShowHistory(history []domain.HistoryRecord) {
	var b strings.Builder
	fmt.Fprintf(&b, "history: %s played\n", humanize.Comma(int64(len(history))))

	now := v.now()
	for i, record := range history {
		if i == maxHistoryLines {
			fmt.Fprintf(&b, "  ... %d more\n", len(history)-maxHistoryLines)
			break
		}
		fmt.Fprintf(&b, "%4d. %s (%s)\n", i+1, trackLabel(record.Track), humanize.RelTime(record.PlayedAt, now, "ago", "from now"))
	}
	v.printf("%s", b.String())
}

// ShowError implements ports.View.
func (v *View) ShowError(title, message string) {
	v.printf("error: %s: %s\n", title, message)
}

// FormatDuration renders d as m:ss, or h:mm:ss for long tracks.
// Unknown (zero) durations render as --:--.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	total := int(d.Round(time.Second).Seconds())
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func trackLabel(t domain.Track) string {
	if t.Artist == "" {
		return t.DisplayName()
	}
	return t.Artist + " - " + t.DisplayName()
}

func statusSymbol(status domain.PlaybackStatus) string {
	switch status {
	case domain.StatusPlaying:
		return "|>"
	case domain.StatusPaused:
		return "||"
	default:
		return "[]"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Verify interface implementation
var _ ports.View = (*View)(nil)
