// Package testutil provides testing utilities for tunequeue.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be deferred at the start of tests that spawn goroutines.
// It verifies that the dispatcher, backend and bus goroutines were all stopped.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// IgnoreFyneGoroutines returns goleak options for tests that create a Fyne
// test app, which keeps background workers alive for the process lifetime.
func IgnoreFyneGoroutines() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreAnyFunction("fyne.io/fyne/v2/internal/async.(*UnboundedFuncChan).processing"),
		goleak.IgnoreAnyFunction("fyne.io/fyne/v2/test.(*app).Run"),
		goleak.IgnoreAnyFunction("fyne.io/fyne/v2"),
	}
}
