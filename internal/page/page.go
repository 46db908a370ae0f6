// Package page implements page objects: declared element fields bound to
// lazy handles, a visibility wait on the fields that must be shown, and a
// load capture once the page is ready.
package page

import (
	"context"
	"errors"
	"fmt"
	"path"
	"reflect"
	"time"

	"github.com/v0xg/pagecapture/internal/capture"
	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/log"
	"github.com/v0xg/pagecapture/internal/wait"
)

const category = "page"

// ErrNoDriver is returned when a page is used without a browser session.
var ErrNoDriver = errors.New("page has no driver")

// Session is the per-test state a page object is built against.
type Session interface {
	Context() context.Context
	// Driver returns the decorated driver.
	Driver() driver.Driver
	// NewWait returns a wait with the given timeout; zero means the
	// configured default.
	NewWait(timeout time.Duration) wait.Wait
	// Capture returns the capture sink, or nil when capturing is disabled.
	Capture() capture.Sink
	Logger() *log.Logger
}

// State is the lifecycle position of a page object.
type State int

const (
	Constructed State = iota
	Populated
	VisibilityPending
	Ready
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Populated:
		return "populated"
	case VisibilityPending:
		return "visibility pending"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Base carries the lifecycle of a page object of type T. Embed a *Base[T]
// built with New in the page struct:
//
//	type LoginPage struct {
//		*page.Base[LoginPage]
//		user   *page.TextInput
//		submit *page.Button
//	}
//
//	func NewLoginPage(s page.Session) *LoginPage {
//		p := &LoginPage{}
//		p.Base = page.New(s, p, func(f *page.Fields) {
//			p.user = page.Typed(f, "user", driver.ByID("user"), page.NewTextInput, page.Visible)
//			p.submit = page.Typed(f, "submit", driver.ByCSS("button[type=submit]"), page.NewButton)
//		})
//		return p
//	}
type Base[T any] struct {
	self    *T
	session Session
	declare func(*Fields)
	loader  Loader
	wait    wait.Wait
	fields  Fields
	state   State
}

// New returns the lifecycle for self. declare assigns fresh handles to the
// page's fields and runs at the start of every Get.
func New[T any](s Session, self *T, declare func(*Fields)) *Base[T] {
	b := &Base[T]{self: self, session: s, declare: declare, loader: LazyLoader{}}
	if s != nil {
		b.wait = s.NewWait(0)
	}
	return b
}

// SetLoader replaces how declared fields are populated.
func (b *Base[T]) SetLoader(l Loader) {
	b.loader = l
}

func (b *Base[T]) State() State {
	return b.state
}

// Fields returns the declarations made by the last Get.
func (b *Base[T]) Fields() []Field {
	return b.fields.All()
}

// Wait returns the wait used for the visibility requirements.
func (b *Base[T]) Wait() wait.Wait {
	return b.wait
}

// Driver returns the decorated driver of the session.
func (b *Base[T]) Driver() driver.Driver {
	if b.session == nil {
		return nil
	}
	return b.session.Driver()
}

func (b *Base[T]) logger() *log.Logger {
	if b.session == nil {
		return nil
	}
	return b.session.Logger()
}

// Name is the page name used for load captures: last package path element
// and type name, e.g. "theinternet.FileUploadPage".
func (b *Base[T]) Name() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return path.Base(t.PkgPath()) + "." + t.Name()
}

// Then returns the page itself, e.g. p.Get() ... .Then().Upload(name).
func (b *Base[T]) Then() *T {
	return b.self
}

// With returns the page itself.
func (b *Base[T]) With() *T {
	return b.self
}

// Get populates the page's fields, waits for the visible ones and captures
// the loaded page.
func (b *Base[T]) Get() (*T, error) {
	d := b.Driver()
	if d == nil {
		return nil, ErrNoDriver
	}

	b.state = Constructed
	b.fields = Fields{}
	if b.declare != nil {
		b.declare(&b.fields)
	}
	if err := b.loader.Populate(d, b.fields.All()); err != nil {
		return nil, fmt.Errorf("populating %s: %w", b.Name(), err)
	}
	b.state = Populated

	b.state = VisibilityPending
	if err := NewVisibility(b.wait).WaitFor(b.session.Context(), b.fields.All()); err != nil {
		return nil, fmt.Errorf("%s not ready: %w", b.Name(), err)
	}
	b.state = Ready

	b.captureLoad(d)
	return b.self, nil
}

// GetURL opens url and then runs Get.
func (b *Base[T]) GetURL(url string) (*T, error) {
	d := b.Driver()
	if d == nil {
		return nil, ErrNoDriver
	}
	if err := d.Get(url); err != nil {
		return nil, fmt.Errorf("opening %s: %w", url, err)
	}
	return b.Get()
}

// GetWithTimeout runs Get with a visibility timeout for this page only.
func (b *Base[T]) GetWithTimeout(timeout time.Duration) (*T, error) {
	b.updateTimeout(timeout)
	return b.Get()
}

// GetURLWithTimeout runs GetURL with a visibility timeout for this page only.
func (b *Base[T]) GetURLWithTimeout(url string, timeout time.Duration) (*T, error) {
	b.updateTimeout(timeout)
	return b.GetURL(url)
}

func (b *Base[T]) updateTimeout(timeout time.Duration) {
	if b.session != nil {
		b.wait = b.session.NewWait(timeout)
	}
}

func (b *Base[T]) captureLoad(d driver.Driver) {
	sink := b.session.Capture()
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger().Warnf(category, "Screenshot not sent, see trace log for details")
			b.logger().Tracef(category, "load capture of %s panicked: %v", b.Name(), r)
		}
	}()
	if err := sink.TakeAndSendScreenshot(event.New(event.Load, "page", b.Name()), d); err != nil {
		b.logger().Warnf(category, "Screenshot not sent, see trace log for details")
		b.logger().Tracef(category, "load capture of %s: %v", b.Name(), err)
	}
}

// ExecuteJS runs script on the current page. Failures are logged and
// returned unchanged.
func (b *Base[T]) ExecuteJS(script string, args ...any) (any, error) {
	d := b.Driver()
	if d == nil {
		return nil, ErrNoDriver
	}
	res, err := d.ExecuteScript(script, args...)
	if err != nil {
		b.logger().Errorf(category, "Javascript execution failed: %v", err)
		b.logger().Debugf(category, "Failed Javascript: %s", script)
		return nil, err
	}
	return res, nil
}
