package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatMode_Cycle(t *testing.T) {
	assert.Equal(t, RepeatQueue, RepeatNone.Next())
	assert.Equal(t, RepeatOne, RepeatQueue.Next())
	assert.Equal(t, RepeatNone, RepeatOne.Next())
}

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		in   string
		want RepeatMode
	}{
		{"", RepeatNone},
		{"none", RepeatNone},
		{"off", RepeatNone},
		{"queue", RepeatQueue},
		{"all", RepeatQueue},
		{"one", RepeatOne},
		{"track", RepeatOne},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepeatMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRepeatMode("forever")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestSessionSnapshot_Current(t *testing.T) {
	snap := SessionSnapshot{
		Queue:        []QueueEntry{{EntryID: "a"}, {EntryID: "b"}},
		CurrentIndex: 1,
	}
	require.NotNil(t, snap.Current())
	assert.Equal(t, "b", snap.Current().EntryID)

	snap.Current().EntryID = "changed"
	assert.Equal(t, "b", snap.Queue[1].EntryID, "Current returns a copy")

	snap.CurrentIndex = NoIndex
	assert.Nil(t, snap.Current())
}

func TestSessionSnapshot_HasNext(t *testing.T) {
	queue := []QueueEntry{{}, {}}

	assert.False(t, SessionSnapshot{CurrentIndex: NoIndex}.HasNext())
	assert.True(t, SessionSnapshot{Queue: queue, CurrentIndex: 0}.HasNext())
	assert.False(t, SessionSnapshot{Queue: queue, CurrentIndex: 1}.HasNext())
	assert.True(t, SessionSnapshot{Queue: queue, CurrentIndex: 1, RepeatMode: RepeatQueue}.HasNext())
}

func TestTrack_DisplayName(t *testing.T) {
	assert.Equal(t, "Song", Track{Title: "Song", Locator: "/a.mp3"}.DisplayName())
	assert.Equal(t, "/a.mp3", Track{Locator: "/a.mp3"}.DisplayName())
}

func TestPlaybackStatus_String(t *testing.T) {
	assert.Equal(t, "stopped", StatusStopped.String())
	assert.Equal(t, "playing", StatusPlaying.String())
	assert.Equal(t, "paused", StatusPaused.String())
	assert.Equal(t, "unknown", PlaybackStatus(9).String())
}
