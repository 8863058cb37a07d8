//go:build !libmpv

package mpv

import "github.com/tejashwikalptaru/tunequeue/internal/ports"

// New reports ErrNotCompiled in builds without libmpv.
func New(opts Options) (ports.MediaBackend, error) {
	_ = opts.withDefaults()
	return nil, ErrNotCompiled
}
