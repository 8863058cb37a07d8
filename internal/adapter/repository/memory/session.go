// Package memory provides repository implementations backed by Fyne preferences.
// With a Fyne test app the preferences live in memory, which makes this the
// repository used when no database is configured and in tests.
package memory

import (
	"encoding/json"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

const (
	keySession = "session.v1"
	repoType   = "preferences"
)

// SessionRepository implements ports.SessionRepository using Fyne preferences.
//
// Fyne preferences use OS-specific app data directories for real apps:
// - macOS: ~/Library/Preferences/<app id>.plist
// - Linux: ~/.config/fyne/<app id>/
// - Windows: %APPDATA%\fyne\<app id>\
//
// Thread-safe: All operations protected by sync.RWMutex.
type SessionRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(prefs fyne.Preferences) *SessionRepository {
	return &SessionRepository{
		prefs: prefs,
	}
}

// sessionRecord is the stored JSON layout.
type sessionRecord struct {
	Entries       []entryRecord   `json:"entries"`
	CurrentIndex  int             `json:"current_index"`
	RepeatMode    string          `json:"repeat_mode"`
	Shuffle       bool            `json:"shuffle"`
	ShuffleOrigin []string        `json:"shuffle_origin,omitempty"`
	History       []historyRecord `json:"history,omitempty"`
}

type trackRecord struct {
	ID         string `json:"id"`
	Locator    string `json:"locator"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

type entryRecord struct {
	EntryID       string      `json:"entry_id"`
	Track         trackRecord `json:"track"`
	ManuallyAdded bool        `json:"manually_added,omitempty"`
}

type historyRecord struct {
	Track    trackRecord `json:"track"`
	PlayedAt time.Time   `json:"played_at"`
}

// SaveSession persists the session, replacing the previous one.
func (r *SessionRepository) SaveSession(session domain.SavedSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(toRecord(session))
	if err != nil {
		return domain.NewRepositoryError("save", repoType, "failed to marshal session", err)
	}

	r.prefs.SetString(keySession, string(data))
	return nil
}

// LoadSession retrieves the last saved session.
func (r *SessionRepository) LoadSession() (*domain.SavedSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(keySession)
	if data == "" {
		return nil, domain.ErrNoSavedSession
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, domain.NewRepositoryError("load", repoType, "failed to unmarshal session", err)
	}

	session, err := fromRecord(rec)
	if err != nil {
		return nil, domain.NewRepositoryError("load", repoType, "invalid stored session", err)
	}
	return session, nil
}

// Clear removes the saved session.
func (r *SessionRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keySession)
	return nil
}

func toRecord(s domain.SavedSession) sessionRecord {
	rec := sessionRecord{
		Entries:       make([]entryRecord, len(s.Entries)),
		CurrentIndex:  s.CurrentIndex,
		RepeatMode:    s.RepeatMode.String(),
		Shuffle:       s.Shuffle,
		ShuffleOrigin: s.ShuffleOrigin,
		History:       make([]historyRecord, len(s.History)),
	}
	for i, e := range s.Entries {
		rec.Entries[i] = entryRecord{
			EntryID:       e.EntryID,
			Track:         toTrackRecord(e.Track),
			ManuallyAdded: e.ManuallyAdded,
		}
	}
	for i, h := range s.History {
		rec.History[i] = historyRecord{Track: toTrackRecord(h.Track), PlayedAt: h.PlayedAt}
	}
	return rec
}

func fromRecord(rec sessionRecord) (*domain.SavedSession, error) {
	mode, err := domain.ParseRepeatMode(rec.RepeatMode)
	if err != nil {
		return nil, err
	}

	s := &domain.SavedSession{
		Entries:       make([]domain.QueueEntry, len(rec.Entries)),
		CurrentIndex:  rec.CurrentIndex,
		RepeatMode:    mode,
		Shuffle:       rec.Shuffle,
		ShuffleOrigin: rec.ShuffleOrigin,
		History:       make([]domain.HistoryRecord, len(rec.History)),
	}
	for i, e := range rec.Entries {
		s.Entries[i] = domain.QueueEntry{
			EntryID:       e.EntryID,
			Position:      i,
			Track:         fromTrackRecord(e.Track),
			ManuallyAdded: e.ManuallyAdded,
		}
	}
	for i, h := range rec.History {
		s.History[i] = domain.HistoryRecord{Track: fromTrackRecord(h.Track), PlayedAt: h.PlayedAt}
	}
	return s, nil
}

func toTrackRecord(t domain.Track) trackRecord {
	return trackRecord{
		ID:         t.ID,
		Locator:    t.Locator,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		DurationMS: t.Duration.Milliseconds(),
	}
}

func fromTrackRecord(t trackRecord) domain.Track {
	return domain.Track{
		ID:       t.ID,
		Locator:  t.Locator,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
	}
}

// Verify interface implementation
var _ ports.SessionRepository = (*SessionRepository)(nil)
