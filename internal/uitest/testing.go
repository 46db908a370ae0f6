package uitest

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/v0xg/pagecapture/internal/config"
)

// closeTimeout bounds how long teardown waits for pending captures.
const closeTimeout = 30 * time.Second

// Start opens a session for t and closes it when t finishes, reporting
// pass, fail or skip first. Valid fields of opts.Config override the
// .env file and the environment.
func Start(t testing.TB, opts Options) *Session {
	t.Helper()

	if opts.TestID == "" {
		opts.TestID = t.Name()
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	opts.Config = cfg.Apply(opts.Config)

	s, err := NewSession(t.Context(), opts)
	if err != nil {
		t.Fatalf("starting browser session: %v", err)
	}

	t.Cleanup(func() {
		switch {
		case t.Skipped():
			s.Skipped(t.Name())
		case t.Failed():
			s.Failed(t.Name(), nil)
		default:
			s.Succeeded(t.Name())
		}

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			t.Logf("closing browser session: %v", err)
		}
	})
	return s
}

// NoError stops the test when err is set, keeping err with its stack for
// the failure capture.
func (s *Session) NoError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		return
	}
	s.lastErr = errors.WithStack(err)
	t.Fatal(err)
}
