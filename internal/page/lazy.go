package page

import (
	"errors"
	"fmt"
	"sync"

	"github.com/v0xg/pagecapture/internal/driver"
)

// ErrNotBound is returned when a handle is used before its page was populated.
var ErrNotBound = errors.New("element handle is not bound to a page")

// Handle is a declared page-object field that the loader binds to a search
// context. Handles never touch the browser while being bound.
type Handle interface {
	Locator() driver.By
	Bind(ctx driver.SearchContext)
	// displayed reports whether the field satisfies a visibility requirement.
	displayed() (bool, error)
}

// LazyElement defers the lookup of its element until the first method call
// and then keeps the resolved element for the rest of its life. Lookups go
// through the search context it was bound to, normally the decorated driver,
// so every resolution is observed.
type LazyElement struct {
	by driver.By

	mu  sync.Mutex
	ctx driver.SearchContext
	el  driver.Element
}

var (
	_ driver.Element      = (*LazyElement)(nil)
	_ driver.WrapsElement = (*LazyElement)(nil)
	_ Handle              = (*LazyElement)(nil)
)

func NewLazyElement(by driver.By) *LazyElement {
	return &LazyElement{by: by}
}

func (l *LazyElement) Locator() driver.By {
	return l.by
}

// Bind attaches the handle to ctx and forgets any element resolved before.
func (l *LazyElement) Bind(ctx driver.SearchContext) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctx = ctx
	l.el = nil
}

// Resolved reports whether the element has been looked up already.
func (l *LazyElement) Resolved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.el != nil
}

// WrappedElement resolves and returns the element behind the handle.
func (l *LazyElement) WrappedElement() (driver.Element, error) {
	return l.resolve()
}

func (l *LazyElement) resolve() (driver.Element, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.el != nil {
		return l.el, nil
	}
	if l.ctx == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, l.by)
	}
	el, err := l.ctx.FindElement(l.by)
	if err != nil {
		return nil, err
	}
	l.el = el
	return el, nil
}

func (l *LazyElement) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.el != nil {
		return l.el.String()
	}
	return fmt.Sprintf("[lazy -> %s]", l.by)
}

func (l *LazyElement) displayed() (bool, error) {
	return l.IsDisplayed()
}

func (l *LazyElement) Click() error {
	el, err := l.resolve()
	if err != nil {
		return err
	}
	return el.Click()
}

func (l *LazyElement) SendKeys(keys ...string) error {
	el, err := l.resolve()
	if err != nil {
		return err
	}
	return el.SendKeys(keys...)
}

func (l *LazyElement) Clear() error {
	el, err := l.resolve()
	if err != nil {
		return err
	}
	return el.Clear()
}

func (l *LazyElement) Submit() error {
	el, err := l.resolve()
	if err != nil {
		return err
	}
	return el.Submit()
}

func (l *LazyElement) Text() (string, error) {
	el, err := l.resolve()
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (l *LazyElement) Attribute(name string) (string, error) {
	el, err := l.resolve()
	if err != nil {
		return "", err
	}
	return el.Attribute(name)
}

func (l *LazyElement) IsDisplayed() (bool, error) {
	el, err := l.resolve()
	if err != nil {
		return false, err
	}
	return el.IsDisplayed()
}

func (l *LazyElement) FindElement(by driver.By) (driver.Element, error) {
	el, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return el.FindElement(by)
}

func (l *LazyElement) FindElements(by driver.By) ([]driver.Element, error) {
	el, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return el.FindElements(by)
}

// LazyElements is the collection counterpart of LazyElement. The list is
// looked up again on every call, since rows may be added or removed while
// the page is in use.
type LazyElements struct {
	by driver.By

	mu  sync.Mutex
	ctx driver.SearchContext
}

var _ Handle = (*LazyElements)(nil)

func NewLazyElements(by driver.By) *LazyElements {
	return &LazyElements{by: by}
}

func (l *LazyElements) Locator() driver.By {
	return l.by
}

func (l *LazyElements) Bind(ctx driver.SearchContext) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctx = ctx
}

// All returns the elements currently matching the locator.
func (l *LazyElements) All() ([]driver.Element, error) {
	l.mu.Lock()
	ctx := l.ctx
	l.mu.Unlock()
	if ctx == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, l.by)
	}
	return ctx.FindElements(l.by)
}

func (l *LazyElements) Len() (int, error) {
	els, err := l.All()
	return len(els), err
}

// Texts returns the visible text of every matching element.
func (l *LazyElements) Texts() ([]string, error) {
	els, err := l.All()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// displayed holds when at least one element matches and all of them are
// displayed.
func (l *LazyElements) displayed() (bool, error) {
	els, err := l.All()
	if err != nil || len(els) == 0 {
		return false, err
	}
	for _, el := range els {
		ok, err := el.IsDisplayed()
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
