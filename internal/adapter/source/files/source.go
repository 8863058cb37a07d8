// Package files resolves local files, folders and stream URLs into tracks.
package files

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// DefaultExtensions lists the file extensions picked up when scanning folders.
var DefaultExtensions = []string{
	".mp3", ".mp2",
	".ogg", ".oga", ".opus",
	".wav", ".aif", ".aiff",
	".flac",
	".aac", ".m4a", ".m4b", ".mp4",
	".wma",
	".wv",
	".ape",
	".mka", ".webm",
}

// Source implements ports.TrackSource on the local filesystem.
// A reference may be a file, a folder (scanned recursively, in lexical order)
// or an http(s) URL, which is passed through untouched.
type Source struct {
	logger *slog.Logger
	exts   []string
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithExtensions overrides the extensions accepted by folder scans.
func WithExtensions(exts ...string) Option {
	return func(s *Source) {
		s.exts = make([]string, len(exts))
		for i, ext := range exts {
			s.exts[i] = strings.ToLower(ext)
		}
	}
}

// New creates a file source.
func New(opts ...Option) *Source {
	s := &Source{
		logger: slog.Default(),
		exts:   DefaultExtensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve implements ports.TrackSource.
func (s *Source) Resolve(refs []string) ([]domain.Track, error) {
	return s.ResolveContext(context.Background(), refs)
}

// ResolveContext resolves refs, stopping early when ctx is cancelled.
// Unreadable entries inside a folder are skipped; a missing top-level
// reference is an error.
func (s *Source) ResolveContext(ctx context.Context, refs []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(refs))

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if isStreamURL(ref) {
			tracks = append(tracks, streamTrack(ref))
			continue
		}

		path, err := filepath.Abs(ref)
		if err != nil {
			return nil, domain.NewServiceError("FileSource", "Resolve", "invalid path "+ref, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewServiceError("FileSource", "Resolve", "cannot access "+ref, err)
		}

		if !info.IsDir() {
			tracks = append(tracks, s.readTrack(path))
			continue
		}

		paths, err := s.collectAudioFiles(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			tracks = append(tracks, s.readTrack(p))
		}
		s.logger.Debug("scanned folder", slog.String("path", path), slog.Int("tracks", len(paths)))
	}

	return tracks, nil
}

// IsFormatSupported reports whether a folder scan would pick up path.
func (s *Source) IsFormatSupported(path string) bool {
	return slices.Contains(s.exts, strings.ToLower(filepath.Ext(path)))
}

func (s *Source) collectAudioFiles(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// skip what we cannot read
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if err != nil {
		return nil, domain.NewServiceError("FileSource", "Resolve", "failed to scan "+root, err)
	}
	return files, nil
}

// readTrack builds a track from the file's tags, falling back to the file name.
// Duration stays zero; the engine asks the backend once the track plays.
func (s *Source) readTrack(path string) domain.Track {
	track := domain.Track{
		ID:      TrackID(path),
		Locator: path,
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("cannot open track", slog.String("path", path), slog.Any("error", err))
		return track
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil || m == nil {
		return track
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(m.Artist())
	if track.Artist == "" {
		track.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	track.Album = strings.TrimSpace(m.Album())
	return track
}

// TrackID derives a stable track identity from a locator.
func TrackID(locator string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(locator)).String()
}

func isStreamURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func streamTrack(ref string) domain.Track {
	title := ref
	if u, err := url.Parse(ref); err == nil {
		if base := filepath.Base(u.Path); base != "." && base != "/" {
			title = base
		} else {
			title = u.Host
		}
	}
	return domain.Track{ID: TrackID(ref), Locator: ref, Title: title}
}

// Verify interface implementation
var _ ports.TrackSource = (*Source)(nil)
