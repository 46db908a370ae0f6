package driver

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the browser session
type Options struct {
	Width         int
	Height        int
	Headless      bool
	Maximise      bool
	Bin           string        // Browser binary, looked up on PATH when empty
	ControlURL    string        // Connect to an already running browser instead of launching one
	ProfileDir    string        // Chrome/Chromium profile directory for authenticated sessions
	ScriptTimeout time.Duration // Upper bound for a single script evaluation
}

// RodDriver implements Driver on top of a Rod browser and page
type RodDriver struct {
	launcher      *launcher.Launcher
	browser       *rod.Browser
	page          *rod.Page
	scriptTimeout time.Duration
}

// Launch starts (or connects to) a browser and opens a blank page
func Launch(opts Options) (*RodDriver, error) {
	d := &RodDriver{scriptTimeout: opts.ScriptTimeout}

	controlURL := opts.ControlURL
	if controlURL == "" {
		bin := opts.Bin
		if bin == "" {
			bin, _ = launcher.LookPath()
		}
		l := launcher.New().Bin(bin).Headless(opts.Headless)
		if opts.ProfileDir != "" {
			l = l.UserDataDir(opts.ProfileDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launching browser: %w", err)
		}
		d.launcher = l
		controlURL = u
	}

	d.browser = rod.New().ControlURL(controlURL)
	if err := d.browser.Connect(); err != nil {
		d.Close()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := d.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	d.page = page

	if opts.Maximise {
		err = page.SetWindow(&proto.BrowserBounds{WindowState: proto.BrowserWindowStateMaximized})
	} else if opts.Width > 0 && opts.Height > 0 {
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
	}
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("sizing window: %w", err)
	}

	return d, nil
}

// Close cleans up browser resources
func (d *RodDriver) Close() error {
	var err error
	if d.page != nil {
		err = d.page.Close()
	}
	if d.browser != nil {
		if cerr := d.browser.Close(); err == nil {
			err = cerr
		}
	}
	if d.launcher != nil {
		d.launcher.Kill()
	}
	return err
}

// Page returns the underlying Rod page
func (d *RodDriver) Page() *rod.Page {
	return d.page
}

func (d *RodDriver) String() string {
	return fmt.Sprintf("RodDriver: chromium (%s)", d.page.TargetID)
}

func (d *RodDriver) Get(url string) error {
	if err := d.page.Navigate(url); err != nil {
		return err
	}
	return d.page.WaitLoad()
}

func (d *RodDriver) Back() error    { return d.page.NavigateBack() }
func (d *RodDriver) Forward() error { return d.page.NavigateForward() }
func (d *RodDriver) Refresh() error { return d.page.Reload() }

func (d *RodDriver) CurrentURL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (d *RodDriver) Title() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (d *RodDriver) FindElement(by By) (Element, error) {
	el, err := hasElement(d.page, by)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el, parent: d, by: by}, nil
}

func (d *RodDriver) FindElements(by By) ([]Element, error) {
	els, err := findAll(d.page, by)
	if err != nil {
		return nil, err
	}
	return wrapAll(els, d, by), nil
}

// ExecuteScript evaluates a JS function expression, e.g. `() => document.title`.
func (d *RodDriver) ExecuteScript(script string, args ...any) (any, error) {
	p := d.page
	if d.scriptTimeout > 0 {
		p = p.Timeout(d.scriptTimeout)
		defer p.CancelTimeout()
	}

	if len(args) > 0 {
		if el, ok := args[0].(Element); ok {
			re, err := rodElementOf(el)
			if err != nil {
				return nil, err
			}
			res, err := re.el.Context(p.GetContext()).Eval(script, args[1:]...)
			if err != nil {
				return nil, err
			}
			return res.Value.Val(), nil
		}
	}

	res, err := p.Eval(script, args...)
	if err != nil {
		return nil, err
	}
	return res.Value.Val(), nil
}

// ExecuteAsyncScript evaluates a function returning a promise and waits for it.
func (d *RodDriver) ExecuteAsyncScript(script string, args ...any) (any, error) {
	return d.ExecuteScript(script, args...)
}

func (d *RodDriver) Screenshot() ([]byte, error) {
	return d.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// rodSearch is the subset of *rod.Page and *rod.Element used for lookups
type rodSearch interface {
	Has(selector string) (bool, *rod.Element, error)
	HasX(selector string) (bool, *rod.Element, error)
	HasR(selector, jsRegex string) (bool, *rod.Element, error)
	Elements(selector string) (rod.Elements, error)
	ElementsX(selector string) (rod.Elements, error)
}

// cssFor translates locator strategies that have a CSS equivalent
func cssFor(by By) (string, bool) {
	switch by.Using {
	case CSSSelector:
		return by.Value, true
	case ID:
		return fmt.Sprintf(`[id=%q]`, by.Value), true
	case Name:
		return fmt.Sprintf(`[name=%q]`, by.Value), true
	case TagName:
		return by.Value, true
	case ClassName:
		return "." + by.Value, true
	}
	return "", false
}

// hasElement looks up a single element without Rod's retry-until-found behaviour
func hasElement(s rodSearch, by By) (*rod.Element, error) {
	var (
		found bool
		el    *rod.Element
		err   error
	)
	if css, ok := cssFor(by); ok {
		found, el, err = s.Has(css)
	} else {
		switch by.Using {
		case XPath:
			found, el, err = s.HasX(by.Value)
		case LinkText:
			found, el, err = s.HasR("a", "/^\\s*"+regexpQuote(by.Value)+"\\s*$/")
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocator, by.Using)
		}
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NoSuchElementError(by)
	}
	return el, nil
}

func findAll(s rodSearch, by By) (rod.Elements, error) {
	if css, ok := cssFor(by); ok {
		return s.Elements(css)
	}
	switch by.Using {
	case XPath:
		return s.ElementsX(by.Value)
	case LinkText:
		return s.ElementsX(fmt.Sprintf(`//a[normalize-space(.)=%q]`, by.Value))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocator, by.Using)
}

func wrapAll(els rod.Elements, parent fmt.Stringer, by By) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, parent: parent, by: by})
	}
	return out
}

func regexpQuote(s string) string {
	const special = `\.+*?()|[]{}^$/`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rodElement implements Element for a *rod.Element
type rodElement struct {
	el     *rod.Element
	parent fmt.Stringer
	by     By
}

func rodElementOf(el Element) (*rodElement, error) {
	inner, err := Unwrap(el)
	if err != nil {
		return nil, err
	}
	re, ok := inner.(*rodElement)
	if !ok {
		return nil, fmt.Errorf("element %s does not belong to a Rod session", el)
	}
	return re, nil
}

// String mirrors the remote-control element form "[<parent> -> <locator>]"
func (e *rodElement) String() string {
	return fmt.Sprintf("[%s -> %s]", e.parent, e.by)
}

func (e *rodElement) FindElement(by By) (Element, error) {
	el, err := hasElement(e.el, by)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el, parent: e, by: by}, nil
}

func (e *rodElement) FindElements(by By) ([]Element, error) {
	els, err := findAll(e.el, by)
	if err != nil {
		return nil, err
	}
	return wrapAll(els, e, by), nil
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

// SendKeys types text into the element. File inputs receive the keys as
// newline separated paths, matching the remote-control protocol.
func (e *rodElement) SendKeys(keys ...string) error {
	text := strings.Join(keys, "")

	kind, err := e.el.Attribute("type")
	if err != nil {
		return err
	}
	if kind != nil && strings.EqualFold(*kind, "file") {
		return e.el.SetFiles(strings.Split(text, "\n"))
	}

	if !HasSpecialKeys(text) {
		return e.el.Input(text)
	}

	if err := e.el.Focus(); err != nil {
		return err
	}
	var seq []input.Key
	for _, r := range text {
		seq = append(seq, rodKey(r))
	}
	return e.el.Page().Keyboard.Type(seq...)
}

func rodKey(r rune) input.Key {
	switch KeyName(r) {
	case "BACK_SPACE":
		return input.Backspace
	case "TAB":
		return input.Tab
	case "ENTER":
		return input.Enter
	case "ESCAPE":
		return input.Escape
	case "ARROW_LEFT":
		return input.ArrowLeft
	case "ARROW_UP":
		return input.ArrowUp
	case "ARROW_RIGHT":
		return input.ArrowRight
	case "ARROW_DOWN":
		return input.ArrowDown
	case "DELETE":
		return input.Delete
	}
	return input.Key(r)
}

func (e *rodElement) Clear() error {
	_, err := e.el.Eval(`function () {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`)
	return err
}

func (e *rodElement) Submit() error {
	_, err := e.el.Eval(`function () {
		const form = this.tagName === 'FORM' ? this : this.form || this.closest('form');
		if (!form) throw new Error('element is not in a form');
		if (form.requestSubmit) form.requestSubmit(); else form.submit();
	}`)
	return err
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) IsDisplayed() (bool, error) {
	return e.el.Visible()
}
