// Package event describes the driver actions observed by listeners and
// sent to the capture pipeline.
package event

import (
	"strings"
	"time"
)

// Kind is the type of an observed action.
type Kind string

const (
	Find          Kind = "find"
	Click         Kind = "click"
	SendKeys      Kind = "sendKeys"
	Navigate      Kind = "nav"
	ExecuteScript Kind = "script"
	Load          Kind = "load"
	Pass          Kind = "pass"
	Fail          Kind = "fail"
	Skip          Kind = "skip"
)

// NotApplicable fills target and payload fields that have no value.
const NotApplicable = "n/a"

// IsOutcome reports whether k is a test outcome rather than a driver action.
func (k Kind) IsOutcome() bool {
	return k == Pass || k == Fail || k == Skip
}

// ActionEvent is one intercepted action. Values are never modified after
// construction; copy and use the With* helpers instead.
type ActionEvent struct {
	Kind    Kind
	Target  string
	Payload string
	Time    time.Time
}

// New builds an event stamped with the current time. Empty target and
// payload are stored as NotApplicable.
func New(kind Kind, target, payload string) ActionEvent {
	if target == "" {
		target = NotApplicable
	}
	if payload == "" {
		payload = NotApplicable
	}
	return ActionEvent{Kind: kind, Target: target, Payload: payload, Time: time.Now()}
}

// Outcome builds a pass, fail or skip event.
func Outcome(kind Kind) ActionEvent {
	return New(kind, NotApplicable, NotApplicable)
}

// Using returns the locator strategy part of Target, e.g. "css selector"
// for "css selector: #bar".
func (e ActionEvent) Using() string {
	using, _ := e.split()
	return using
}

// Value returns the locator value part of Target, e.g. "#bar".
func (e ActionEvent) Value() string {
	_, value := e.split()
	return value
}

func (e ActionEvent) split() (string, string) {
	if e.Target == NotApplicable {
		return NotApplicable, e.Payload
	}
	using, value, ok := strings.Cut(e.Target, ":")
	if !ok {
		return e.Target, e.Payload
	}
	return strings.TrimSpace(using), strings.TrimSpace(value)
}

// Abbreviate shortens s to at most maxWidth runes, ending with "..." when
// truncated. A maxWidth below 4 leaves s unchanged.
func Abbreviate(s string, maxWidth int) string {
	if maxWidth < 4 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxWidth {
		return s
	}
	return string(r[:maxWidth-3]) + "..."
}
