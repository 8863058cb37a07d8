package service

import (
	"math/rand/v2"
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// ShuffleManager reorders the upcoming suffix of a queue and reverses it.
// Entries at or before the current index are never touched.
type ShuffleManager struct {
	rng *rand.Rand
}

// NewShuffleManager creates a shuffle manager drawing from rng.
// A nil rng is seeded from the clock; tests pass a fixed seed.
func NewShuffleManager(rng *rand.Rand) *ShuffleManager {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	return &ShuffleManager{rng: rng}
}

// Shuffle permutes queue[current+1:] in place with Fisher-Yates and returns the
// entry IDs of the suffix in its pre-shuffle order. current may be domain.NoIndex.
func (m *ShuffleManager) Shuffle(queue []domain.QueueEntry, current int) []string {
	upcoming := queue[current+1:]

	origin := make([]string, len(upcoming))
	for i, e := range upcoming {
		origin[i] = e.EntryID
	}

	for i := len(upcoming) - 1; i > 0; i-- {
		j := m.rng.IntN(i + 1)
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	}

	renumber(queue)
	return origin
}

// Unshuffle restores the order recorded by Shuffle over queue[current+1:].
//
// Entries listed in origin that are still upcoming are put back in their
// recorded relative order, filling the slots such entries occupy now.
// Entries absent from origin (inserted while shuffled) keep their positions.
// Entries removed since, or already played, are skipped.
func (m *ShuffleManager) Unshuffle(queue []domain.QueueEntry, current int, origin []string) {
	upcoming := queue[current+1:]

	rank := make(map[string]int, len(origin))
	for i, id := range origin {
		rank[id] = i
	}

	byRank := make([]*domain.QueueEntry, len(origin))
	var slots []int
	for i := range upcoming {
		if r, ok := rank[upcoming[i].EntryID]; ok {
			entry := upcoming[i]
			byRank[r] = &entry
			slots = append(slots, i)
		}
	}

	k := 0
	for _, entry := range byRank {
		if entry == nil {
			continue
		}
		upcoming[slots[k]] = *entry
		k++
	}

	renumber(queue)
}

// renumber rewrites Position fields to match slice order.
func renumber(queue []domain.QueueEntry) {
	for i := range queue {
		queue[i].Position = i
	}
}
