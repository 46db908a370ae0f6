package drivertest

import (
	"fmt"
	"sync"

	"github.com/v0xg/pagecapture/internal/driver"
)

// Element is a fake element. Its string form follows the remote-control
// convention "[StubDriver -> <locator>]".
type Element struct {
	mu sync.Mutex

	By       driver.By
	Desc     string
	TextVal  string
	Attrs    map[string]string
	Children map[driver.By][]*Element

	// Visible decides IsDisplayed; nil means always visible.
	Visible func() bool
	// OnClick runs inside Click, before ClickErr is returned.
	OnClick  func()
	ClickErr error

	clicks int
	keys   []string
}

var _ driver.Element = (*Element)(nil)

func NewElement(by driver.By) *Element {
	return &Element{By: by, Desc: fmt.Sprintf("[StubDriver -> %s]", by)}
}

func (e *Element) String() string { return e.Desc }

// Clicks returns how often Click was called.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Keys returns everything sent through SendKeys.
func (e *Element) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

func (e *Element) FindElement(by driver.By) (driver.Element, error) {
	if els := e.Children[by]; len(els) > 0 {
		return els[0], nil
	}
	return nil, driver.NoSuchElementError(by)
}

func (e *Element) FindElements(by driver.By) ([]driver.Element, error) {
	out := make([]driver.Element, 0, len(e.Children[by]))
	for _, el := range e.Children[by] {
		out = append(out, el)
	}
	return out, nil
}

func (e *Element) Click() error {
	e.mu.Lock()
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return e.ClickErr
}

func (e *Element) SendKeys(keys ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, keys...)
	return nil
}

func (e *Element) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = nil
	return nil
}

func (e *Element) Submit() error { return nil }

func (e *Element) Text() (string, error) { return e.TextVal, nil }

func (e *Element) Attribute(name string) (string, error) { return e.Attrs[name], nil }

func (e *Element) IsDisplayed() (bool, error) {
	if e.Visible == nil {
		return true, nil
	}
	return e.Visible(), nil
}
