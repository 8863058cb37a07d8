package service

import (
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// DefaultHistoryLimit is the number of records kept when no limit is configured.
const DefaultHistoryLimit = 100

// HistoryTracker is a bounded record of played tracks, newest first.
// It is owned by the engine and only touched from the dispatcher goroutine.
type HistoryTracker struct {
	records []domain.HistoryRecord
	limit   int
	now     func() time.Time
}

// NewHistoryTracker creates a tracker keeping at most limit records.
// A limit <= 0 falls back to DefaultHistoryLimit.
func NewHistoryTracker(limit int) *HistoryTracker {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryTracker{
		limit: limit,
		now:   time.Now,
	}
}

// Record prepends track, evicting the oldest record when full.
func (h *HistoryTracker) Record(track domain.Track) {
	h.records = append(h.records, domain.HistoryRecord{})
	copy(h.records[1:], h.records)
	h.records[0] = domain.HistoryRecord{Track: track, PlayedAt: h.now()}

	if len(h.records) > h.limit {
		h.records = h.records[:h.limit]
	}
}

// Entries returns the recorded tracks, newest first.
func (h *HistoryTracker) Entries() []domain.Track {
	tracks := make([]domain.Track, len(h.records))
	for i, r := range h.records {
		tracks[i] = r.Track
	}
	return tracks
}

// Records returns a copy of the records, newest first.
func (h *HistoryTracker) Records() []domain.HistoryRecord {
	out := make([]domain.HistoryRecord, len(h.records))
	copy(out, h.records)
	return out
}

// At returns the record at i (0 is the newest).
func (h *HistoryTracker) At(i int) (domain.HistoryRecord, bool) {
	if i < 0 || i >= len(h.records) {
		return domain.HistoryRecord{}, false
	}
	return h.records[i], true
}

// Len returns the number of records.
func (h *HistoryTracker) Len() int {
	return len(h.records)
}

// Clear drops all records.
func (h *HistoryTracker) Clear() {
	h.records = nil
}

// Replace swaps in previously saved records, newest first, trimmed to the limit.
func (h *HistoryTracker) Replace(records []domain.HistoryRecord) {
	if len(records) > h.limit {
		records = records[:h.limit]
	}
	h.records = make([]domain.HistoryRecord, len(records))
	copy(h.records, records)
}
