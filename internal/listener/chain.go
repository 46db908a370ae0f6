package listener

import (
	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/log"
)

const category = "listener"

// chain notifies observers around a call. Before hooks run in registration
// order, After and OnError hooks in reverse order, so the last registered
// observer sits closest to the real driver.
type chain struct {
	observers []Observer
	log       *log.Logger
}

func (c *chain) forward(hook string, fn func(Observer)) {
	for _, o := range c.observers {
		c.safely(o, hook, fn)
	}
}

func (c *chain) reverse(hook string, fn func(Observer)) {
	for i := len(c.observers) - 1; i >= 0; i-- {
		c.safely(c.observers[i], hook, fn)
	}
}

// safely runs one hook, recovering and trace logging any panic so the
// wrapped call and the remaining observers are unaffected.
func (c *chain) safely(o Observer, hook string, fn func(Observer)) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Tracef(category, "observer %T failed in %s: %v", o, hook, r)
		}
	}()
	fn(o)
}

// invoke runs call between the Before and After hooks. On failure every
// observer's OnError is notified and the original error is returned as is.
func invoke[T any](
	c *chain, target any, method string, args []any,
	before func(Observer), call func() (T, error), after func(Observer, T),
) (T, error) {
	c.forward("Before"+method, before)

	res, err := call()
	if err != nil {
		c.reverse("OnError", func(o Observer) { o.OnError(target, method, args, err) })
		return res, err
	}

	c.reverse("After"+method, func(o Observer) { after(o, res) })
	return res, nil
}

// Decorate wraps d so that every intercepted call notifies observers.
// Elements returned by the decorated driver are decorated too.
func Decorate(d driver.Driver, logger *log.Logger, observers ...Observer) driver.Driver {
	return &eventDriver{
		raw:   d,
		chain: &chain{observers: append([]Observer(nil), observers...), log: logger},
	}
}

type eventDriver struct {
	raw   driver.Driver
	chain *chain
}

// Unwrap returns the undecorated driver.
func (d *eventDriver) Unwrap() driver.Driver {
	return d.raw
}

func (d *eventDriver) String() string {
	if s, ok := d.raw.(interface{ String() string }); ok {
		return s.String()
	}
	return "decorated driver"
}

func (d *eventDriver) FindElement(by driver.By) (driver.Element, error) {
	el, err := invoke(d.chain, d, "FindElement", []any{by},
		func(o Observer) { o.BeforeFindElement(d, by) },
		func() (driver.Element, error) { return d.raw.FindElement(by) },
		func(o Observer, el driver.Element) { o.AfterFindElement(d, by, el) },
	)
	if err != nil {
		return nil, err
	}
	return d.wrap(el), nil
}

func (d *eventDriver) FindElements(by driver.By) ([]driver.Element, error) {
	els, err := invoke(d.chain, d, "FindElements", []any{by},
		func(o Observer) { o.BeforeFindElements(d, by) },
		func() ([]driver.Element, error) { return d.raw.FindElements(by) },
		func(o Observer, els []driver.Element) { o.AfterFindElements(d, by, els) },
	)
	if err != nil {
		return nil, err
	}
	return d.wrapAll(els), nil
}

func (d *eventDriver) navigate(method string, args []string, call func() error) error {
	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}
	_, err := invoke(d.chain, d, method, anyArgs,
		func(o Observer) { o.BeforeNavigate(d, method, args) },
		func() (struct{}, error) { return struct{}{}, call() },
		func(o Observer, _ struct{}) { o.AfterNavigate(d, method, args) },
	)
	return err
}

func (d *eventDriver) Get(url string) error {
	return d.navigate("to", []string{url}, func() error { return d.raw.Get(url) })
}

func (d *eventDriver) Back() error {
	return d.navigate("back", nil, d.raw.Back)
}

func (d *eventDriver) Forward() error {
	return d.navigate("forward", nil, d.raw.Forward)
}

func (d *eventDriver) Refresh() error {
	return d.navigate("refresh", nil, d.raw.Refresh)
}

func (d *eventDriver) CurrentURL() (string, error) { return d.raw.CurrentURL() }
func (d *eventDriver) Title() (string, error)      { return d.raw.Title() }
func (d *eventDriver) Screenshot() ([]byte, error) { return d.raw.Screenshot() }
func (d *eventDriver) Close() error                { return d.raw.Close() }

func (d *eventDriver) ExecuteScript(script string, args ...any) (any, error) {
	return invoke(d.chain, d, "ExecuteScript", args,
		func(o Observer) { o.BeforeExecuteScript(d, script, args) },
		func() (any, error) { return d.raw.ExecuteScript(script, args...) },
		func(o Observer, res any) { o.AfterExecuteScript(d, script, args, res) },
	)
}

func (d *eventDriver) ExecuteAsyncScript(script string, args ...any) (any, error) {
	return invoke(d.chain, d, "ExecuteAsyncScript", args,
		func(o Observer) { o.BeforeExecuteAsyncScript(d, script, args) },
		func() (any, error) { return d.raw.ExecuteAsyncScript(script, args...) },
		func(o Observer, res any) { o.AfterExecuteAsyncScript(d, script, args, res) },
	)
}

func (d *eventDriver) wrap(el driver.Element) driver.Element {
	return &eventElement{raw: el, chain: d.chain}
}

func (d *eventDriver) wrapAll(els []driver.Element) []driver.Element {
	out := make([]driver.Element, len(els))
	for i, el := range els {
		out[i] = d.wrap(el)
	}
	return out
}

type eventElement struct {
	raw   driver.Element
	chain *chain
}

// WrappedElement returns the undecorated element.
func (e *eventElement) WrappedElement() (driver.Element, error) {
	return e.raw, nil
}

func (e *eventElement) String() string {
	return e.raw.String()
}

func (e *eventElement) Click() error {
	_, err := invoke(e.chain, e.raw, "Click", nil,
		func(o Observer) { o.BeforeClick(e.raw) },
		func() (struct{}, error) { return struct{}{}, e.raw.Click() },
		func(o Observer, _ struct{}) { o.AfterClick(e.raw) },
	)
	return err
}

func (e *eventElement) SendKeys(keys ...string) error {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := invoke(e.chain, e.raw, "SendKeys", args,
		func(o Observer) { o.BeforeSendKeys(e.raw, keys) },
		func() (struct{}, error) { return struct{}{}, e.raw.SendKeys(keys...) },
		func(o Observer, _ struct{}) { o.AfterSendKeys(e.raw, keys) },
	)
	return err
}

// anyCall routes element methods without dedicated hooks.
func anyCall[T any](e *eventElement, method string, args []any, call func() (T, error)) (T, error) {
	return invoke(e.chain, e.raw, method, args,
		func(o Observer) { o.BeforeAnyElementCall(e.raw, method, args) },
		call,
		func(o Observer, res T) { o.AfterAnyElementCall(e.raw, method, args, res) },
	)
}

func (e *eventElement) Clear() error {
	_, err := anyCall(e, "Clear", nil, func() (any, error) { return nil, e.raw.Clear() })
	return err
}

func (e *eventElement) Submit() error {
	_, err := anyCall(e, "Submit", nil, func() (any, error) { return nil, e.raw.Submit() })
	return err
}

func (e *eventElement) Text() (string, error) {
	return anyCall(e, "Text", nil, e.raw.Text)
}

func (e *eventElement) Attribute(name string) (string, error) {
	return anyCall(e, "Attribute", []any{name}, func() (string, error) { return e.raw.Attribute(name) })
}

func (e *eventElement) IsDisplayed() (bool, error) {
	return anyCall(e, "IsDisplayed", nil, e.raw.IsDisplayed)
}

func (e *eventElement) FindElement(by driver.By) (driver.Element, error) {
	el, err := anyCall(e, "FindElement", []any{by}, func() (driver.Element, error) { return e.raw.FindElement(by) })
	if err != nil {
		return nil, err
	}
	return &eventElement{raw: el, chain: e.chain}, nil
}

func (e *eventElement) FindElements(by driver.By) ([]driver.Element, error) {
	els, err := anyCall(e, "FindElements", []any{by}, func() ([]driver.Element, error) { return e.raw.FindElements(by) })
	if err != nil {
		return nil, err
	}
	out := make([]driver.Element, len(els))
	for i, el := range els {
		out[i] = &eventElement{raw: el, chain: e.chain}
	}
	return out, nil
}

// NotifyOutcome reports a finished test to observers in registration order.
// kind is one of event.Pass, event.Fail or event.Skip.
func NotifyOutcome(logger *log.Logger, kind event.Kind, r TestResult, observers ...Observer) {
	c := &chain{observers: observers, log: logger}
	switch kind {
	case event.Pass:
		c.forward("OnTestSuccess", func(o Observer) { o.OnTestSuccess(r) })
	case event.Fail:
		c.forward("OnTestFailure", func(o Observer) { o.OnTestFailure(r) })
	case event.Skip:
		c.forward("OnTestSkipped", func(o Observer) { o.OnTestSkipped(r) })
	}
}
