// Package uitest ties a browser session to one test: it launches and
// decorates the driver, sets up capture, hands waits to page objects and
// reports the test outcome.
package uitest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/v0xg/pagecapture/internal/capture"
	"github.com/v0xg/pagecapture/internal/config"
	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/listener"
	"github.com/v0xg/pagecapture/internal/log"
	"github.com/v0xg/pagecapture/internal/page"
	"github.com/v0xg/pagecapture/internal/replay"
	"github.com/v0xg/pagecapture/internal/wait"
)

const category = "uitest"

// Base marks a test as a browser test. Outcome captures are only sent for
// tests identified by a value implementing listener.UITest.
type Base struct{}

func (Base) UITest() {}

// Options configures a Session.
type Options struct {
	Config config.Config
	Logger *log.Logger
	// TestID names the capture execution.
	TestID string
	// Test identifies the test in outcome reports; defaults to Base{}.
	Test any
	// Driver is the raw driver to decorate. When nil a Rod browser is
	// launched from Config.
	Driver driver.Driver
	// Transport overrides the capture transport built from Config.
	Transport capture.Transport
	// Observers are registered after the logging and capture observers.
	Observers []listener.Observer

	HTTPClient *http.Client
	Fs         afero.Fs
}

// Session is the browser state of one test.
type Session struct {
	ctx       context.Context
	cfg       config.Config
	log       *log.Logger
	test      any
	raw       driver.Driver
	driver    driver.Driver
	capture   *capture.ScreenshotCapture
	fs        afero.Fs
	replayDir string
	observers []listener.Observer
	lastErr   error
}

var _ page.Session = (*Session)(nil)

// NewSession starts a session. A capture setup failure disables capture
// with a warning; it never fails the session.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	cfg := config.NewConfig().Apply(opts.Config)

	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = log.NewDefault(cfg.LogLevel.String); err != nil {
			return nil, fmt.Errorf("configuring logger: %w", err)
		}
	}

	raw := opts.Driver
	if raw == nil {
		rd, err := driver.Launch(driver.Options{
			Width:         int(cfg.Width.Int64),
			Height:        int(cfg.Height.Int64),
			Headless:      cfg.Headless.Bool,
			Maximise:      cfg.Maximise.Bool,
			Bin:           cfg.BrowserBin.String,
			ControlURL:    cfg.GridURL.String,
			ProfileDir:    cfg.ProfileDir.String,
			ScriptTimeout: cfg.ScriptTimeout.Duration,
		})
		if err != nil {
			return nil, err
		}
		raw = rd
	}

	s := &Session{ctx: ctx, cfg: cfg, log: logger, test: opts.Test, raw: raw}
	if s.test == nil {
		s.test = Base{}
	}

	if opts.Transport != nil || cfg.CaptureRequired() {
		transport, err := s.transport(ctx, opts)
		if err != nil {
			logger.Warnf(category, "Capture disabled: %v", err)
		} else {
			s.capture = capture.New(transport, logger, capture.Options{
				MaxWidth: uint(cfg.ScreenshotSize.Int64),
			})
		}
	}

	internal := listener.DefaultInternalScripts()
	s.observers = append(s.observers, listener.NewLoggingObserver(logger, internal))
	if s.capture != nil {
		s.observers = append(s.observers, listener.NewCaptureObserver(s.capture, s, logger, internal))
	}
	s.observers = append(s.observers, opts.Observers...)
	s.driver = listener.Decorate(raw, logger, s.observers...)

	logger.Debugf(category, "session started on %s, capture enabled: %t", raw, s.capture != nil)
	return s, nil
}

func (s *Session) transport(ctx context.Context, opts Options) (capture.Transport, error) {
	if opts.Transport != nil {
		return opts.Transport, nil
	}

	exec := s.execution(opts.TestID)
	if url := s.cfg.CaptureURL.String; url != "" {
		t := capture.NewHTTPTransport(url, opts.HTTPClient)
		if err := t.CreateExecution(ctx, exec); err != nil {
			return nil, err
		}
		s.log.Infof(category, "Capture execution %s created at %s", t.ExecutionID(), url)
		return t, nil
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	t, err := capture.NewFileTransport(fs, s.cfg.CaptureDir.String)
	if err != nil {
		return nil, err
	}
	if err := t.WriteExecution(exec); err != nil {
		return nil, fmt.Errorf("writing capture execution: %w", err)
	}
	s.log.Infof(category, "Capturing screenshots to %s", t.Dir())
	if s.cfg.Replay.Bool {
		s.fs, s.replayDir = fs, t.Dir()
	}
	return t, nil
}

func (s *Session) execution(testID string) capture.Execution {
	ua, err := s.raw.ExecuteScript(capture.UserAgentScript)
	if err != nil {
		s.log.Tracef(category, "reading user agent: %v", err)
	}
	uaText, _ := ua.(string)
	host, _ := os.Hostname()
	return capture.Execution{
		TestID:  testID,
		Browser: browserFromUserAgent(uaText),
		SoftwareUnderTest: capture.SoftwareUnderTest{
			Name:    s.cfg.SUTName.String,
			Version: s.cfg.SUTVersion.String,
		},
		NodeAddress: host,
	}
}

var userAgentBrowsers = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"edge", regexp.MustCompile(`Edg/([\d.]+)`)},
	{"firefox", regexp.MustCompile(`Firefox/([\d.]+)`)},
	{"chrome", regexp.MustCompile(`(?:Headless)?Chrome/([\d.]+)`)},
	{"safari", regexp.MustCompile(`Version/([\d.]+).*Safari/`)},
}

func browserFromUserAgent(ua string) capture.Browser {
	for _, b := range userAgentBrowsers {
		if m := b.pattern.FindStringSubmatch(ua); m != nil {
			return capture.Browser{Name: b.name, Version: m[1]}
		}
	}
	if ua == "" {
		return capture.Browser{Name: "unknown", Version: "unknown"}
	}
	return capture.Browser{Name: strings.Fields(ua)[0], Version: "unknown"}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

// Driver returns the decorated driver.
func (s *Session) Driver() driver.Driver {
	return s.driver
}

func (s *Session) Config() config.Config {
	return s.cfg
}

func (s *Session) Logger() *log.Logger {
	return s.log
}

// NewWait returns a wait polling at the configured interval. A zero timeout
// means the configured default.
func (s *Session) NewWait(timeout time.Duration) wait.Wait {
	if timeout <= 0 {
		timeout = s.cfg.Timeout.Duration
	}
	return wait.New(timeout, s.cfg.PollInterval.Duration)
}

// Capture returns the capture sink, or nil when capture is disabled.
func (s *Session) Capture() capture.Sink {
	if s.capture == nil {
		return nil
	}
	return s.capture
}

// Succeeded reports a passed test to the observers.
func (s *Session) Succeeded(name string) {
	s.finish(event.Pass, name, nil)
}

// Failed reports a failed test. err, or the last error recorded with
// NoError when err is nil, is sent with the failure capture.
func (s *Session) Failed(name string, err error) {
	if err == nil {
		err = s.lastErr
	}
	if err == nil {
		err = fmt.Errorf("%s failed", name)
	}
	s.finish(event.Fail, name, err)
}

// Skipped reports a skipped test.
func (s *Session) Skipped(name string) {
	s.finish(event.Skip, name, nil)
}

func (s *Session) finish(kind event.Kind, name string, err error) {
	listener.NotifyOutcome(s.log, kind, listener.TestResult{Name: name, Test: s.test, Err: err}, s.observers...)
}

// writeReplay logs failures instead of returning them.
func (s *Session) writeReplay() {
	size, err := replay.WriteDir(s.fs, s.replayDir, replay.Options{
		FPS:      int(s.cfg.ReplayFPS.Int64),
		MaxWidth: uint(s.cfg.ScreenshotSize.Int64),
	})
	if err != nil {
		s.log.Warnf(category, "Replay not written: %v", err)
		return
	}
	if size > 0 {
		s.log.Infof(category, "Replay written to %s (%.1f KB)", filepath.Join(s.replayDir, replay.FileName), float64(size)/1024)
	}
}

// Close drains pending captures and then closes the browser.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.capture != nil {
		if err := s.capture.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("draining captures: %w", err))
		}
	}
	if s.replayDir != "" {
		s.writeReplay()
	}
	if err := s.raw.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}
	return errors.Join(errs...)
}
