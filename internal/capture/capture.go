// Package capture takes screenshots of a browser session and ships them to
// a capture service (remote Capture API or a local directory).
package capture

import (
	"context"
	"errors"

	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
)

var (
	// ErrClosed is returned when a screenshot is requested after Close.
	ErrClosed = errors.New("capture is closed")
	// ErrQueueFull is returned when the dispatch queue cannot accept a request.
	ErrQueueFull = errors.New("capture queue is full")
)

// Sink receives capture requests. Both methods return once the request is
// built; transmission happens asynchronously. Returned errors describe the
// synchronous part only and are meant to be logged, never propagated into
// the observed action.
type Sink interface {
	TakeAndSendScreenshot(ev event.ActionEvent, d driver.Driver) error
	TakeAndSendScreenshotWithError(ev event.ActionEvent, d driver.Driver, errText string) error
}

// Request is one screenshot taken at the moment of interception. Ownership
// passes to the dispatcher once queued.
type Request struct {
	Event event.ActionEvent
	URL   string
	PNG   []byte
	// Error carries the message and stack trace of a failed test.
	Error string
	// Seq orders requests within one capture execution.
	Seq int64
}

// Command is the wire form of an action: what was done and to what.
type Command struct {
	Action string `json:"action"`
	Using  string `json:"using"`
	Value  string `json:"value"`
}

// CommandFrom converts an event to the wire command.
func CommandFrom(ev event.ActionEvent) Command {
	return Command{Action: string(ev.Kind), Using: ev.Using(), Value: ev.Value()}
}

// Screenshot is the payload handed to a Transport.
type Screenshot struct {
	Command          Command `json:"command"`
	URL              string  `json:"url"`
	ExecutionID      string  `json:"executionID"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	ScreenshotBase64 string  `json:"screenshotBase64"`

	Seq int64  `json:"-"`
	PNG []byte `json:"-"`
}

//go:generate mockgen -package=capture -destination=mock_transport_test.go github.com/v0xg/pagecapture/internal/capture Transport

// Transport delivers screenshots to their destination.
type Transport interface {
	Send(ctx context.Context, s Screenshot) error
}
