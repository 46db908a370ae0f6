package listener

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/v0xg/pagecapture/internal/capture"
	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/log"
)

// scriptMaxLength bounds the script text sent with a script capture.
const scriptMaxLength = 42

//go:generate mockgen -package=listener -destination=mock_sink_test.go github.com/v0xg/pagecapture/internal/capture Sink

// DriverSource supplies the decorated driver of the current test.
type DriverSource interface {
	Driver() driver.Driver
}

// CaptureObserver sends screenshots of clicks, key presses, navigation,
// scripts and test outcomes to a capture sink. Capture failures are
// logged and never reach the observed action.
type CaptureObserver struct {
	NopObserver
	sink     capture.Sink
	source   DriverSource
	log      *log.Logger
	internal InternalScripts
}

var _ Observer = (*CaptureObserver)(nil)

// NewCaptureObserver returns an observer sending to sink. A nil sink
// disables capturing.
func NewCaptureObserver(sink capture.Sink, source DriverSource, logger *log.Logger, internal InternalScripts) *CaptureObserver {
	return &CaptureObserver{sink: sink, source: source, log: logger, internal: internal}
}

func (c *CaptureObserver) enabled() bool {
	return c.sink != nil && c.source != nil
}

func (c *CaptureObserver) send(ev event.ActionEvent) {
	c.guard(ev, func(d driver.Driver) error {
		return c.sink.TakeAndSendScreenshot(ev, d)
	})
}

func (c *CaptureObserver) sendWithError(ev event.ActionEvent, errText string) {
	c.guard(ev, func(d driver.Driver) error {
		return c.sink.TakeAndSendScreenshotWithError(ev, d, errText)
	})
}

// guard is the observer boundary: nothing raised by the sink gets past it.
func (c *CaptureObserver) guard(ev event.ActionEvent, fn func(driver.Driver) error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warnf(category, "Screenshot not sent, see trace log for details")
			c.log.Tracef(category, "capture of %s panicked: %v", ev.Kind, r)
		}
	}()
	if err := fn(c.source.Driver()); err != nil {
		c.log.Warnf(category, "Screenshot not sent, see trace log for details")
		c.log.Tracef(category, "capture of %s failed: %v", ev.Kind, err)
	}
}

// BeforeClick highlights the element, captures it and removes the highlight.
// Highlighting is best effort.
func (c *CaptureObserver) BeforeClick(el driver.Element) {
	if !c.enabled() {
		return
	}
	h := capture.NewHighlighter(c.source.Driver())
	if err := h.HighlightElement(el); err != nil {
		c.log.Tracef(category, "highlighting %s: %v", el, err)
	}
	c.send(event.New(event.Click, LocatorFromElement(el), ""))
	if err := h.UnhighlightPrevious(); err != nil {
		c.log.Tracef(category, "removing highlight from %s: %v", el, err)
	}
}

func (c *CaptureObserver) AfterSendKeys(driver.Element, []string) {
	if !c.enabled() {
		return
	}
	c.send(event.New(event.SendKeys, "", ""))
}

func (c *CaptureObserver) BeforeNavigate(_ driver.Driver, method string, args []string) {
	if !c.enabled() {
		return
	}
	if method == "to" && len(args) == 1 {
		c.send(event.New(event.Navigate, "url", args[0]))
		return
	}
	c.send(event.New(event.Navigate, method, strings.Join(args, ",")))
}

func (c *CaptureObserver) BeforeExecuteScript(_ driver.Driver, script string, _ []any) {
	if !c.enabled() || c.internal.Contains(script) {
		return
	}
	c.send(event.New(event.ExecuteScript, "", event.Abbreviate(script, scriptMaxLength)))
}

func (c *CaptureObserver) BeforeExecuteAsyncScript(d driver.Driver, script string, args []any) {
	c.BeforeExecuteScript(d, script, args)
}

func (c *CaptureObserver) OnTestSuccess(r TestResult) { c.sendFinal(r, event.Pass) }
func (c *CaptureObserver) OnTestFailure(r TestResult) { c.sendFinal(r, event.Fail) }
func (c *CaptureObserver) OnTestSkipped(r TestResult) { c.sendFinal(r, event.Skip) }

func (c *CaptureObserver) sendFinal(r TestResult, kind event.Kind) {
	if !c.enabled() || !IsUITest(r.Test) {
		return
	}
	if r.Err != nil {
		c.sendWithError(event.Outcome(kind), ErrorText(r.Err))
		return
	}
	c.send(event.Outcome(kind))
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ErrorText renders err as its message followed by a stack trace. Errors
// without a recorded stack get the stack of the caller.
func ErrorText(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		st = errors.WithStack(err).(stackTracer)
	}
	return err.Error() + "\n" + strings.TrimLeft(fmt.Sprintf("%+v", st.StackTrace()), "\n")
}
