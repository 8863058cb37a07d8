package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunequeue/internal/logger"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o600))
}

func newTestSource() *Source {
	return New(WithLogger(logger.NewTestLogger()))
}

func TestResolve_Folder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.mp3"))
	writeFile(t, filepath.Join(dir, "a.FLAC"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "sub", "c.ogg"))
	writeFile(t, filepath.Join(dir, ".hidden", "d.mp3"))

	tracks, err := newTestSource().Resolve([]string{dir})
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	titles := []string{tracks[0].Title, tracks[1].Title, tracks[2].Title}
	assert.Equal(t, []string{"a", "b", "c"}, titles, "lexical order, title from file name")
	assert.Equal(t, filepath.Join(dir, "sub", "c.ogg"), tracks[2].Locator)
	for _, tr := range tracks {
		assert.NotEmpty(t, tr.ID)
		assert.Zero(t, tr.Duration)
	}
}

func TestResolve_ExplicitFilesKeepOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "z.mp3")
	second := filepath.Join(dir, "readme.txt")
	writeFile(t, first)
	writeFile(t, second)

	tracks, err := newTestSource().Resolve([]string{first, second})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, first, tracks[0].Locator)
	assert.Equal(t, "readme", tracks[1].Title, "explicit files bypass the extension filter")
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := newTestSource().Resolve([]string{filepath.Join(t.TempDir(), "gone.mp3")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_StreamURL(t *testing.T) {
	tracks, err := newTestSource().Resolve([]string{
		"https://radio.example.com/live/stream.mp3",
		"http://radio.example.com",
	})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "https://radio.example.com/live/stream.mp3", tracks[0].Locator)
	assert.Equal(t, "stream.mp3", tracks[0].Title)
	assert.Equal(t, "radio.example.com", tracks[1].Title)
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSource().ResolveContext(ctx, []string{t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrackID_Stable(t *testing.T) {
	assert.Equal(t, TrackID("/music/a.mp3"), TrackID("/music/a.mp3"))
	assert.NotEqual(t, TrackID("/music/a.mp3"), TrackID("/music/b.mp3"))
}

func TestIsFormatSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.OPUS", true},
		{"song.flac", true},
		{"cover.jpg", false},
		{"noext", false},
	}

	s := newTestSource()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsFormatSupported(tt.path))
		})
	}

	custom := New(WithExtensions(".XM"))
	assert.True(t, custom.IsFormatSupported("tune.xm"))
	assert.False(t, custom.IsFormatSupported("song.mp3"))
}
