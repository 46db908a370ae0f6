package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchElement is returned when a locator matches nothing.
	ErrNoSuchElement = errors.New("no such element")
	// ErrUnsupportedLocator is returned for a By strategy the driver cannot resolve.
	ErrUnsupportedLocator = errors.New("unsupported locator strategy")
)

// Locator strategies, named as the remote-control protocol names them.
const (
	CSSSelector = "css selector"
	XPath       = "xpath"
	ID          = "id"
	Name        = "name"
	TagName     = "tag name"
	ClassName   = "class name"
	LinkText    = "link text"
)

// By describes how to find an element.
type By struct {
	Using string
	Value string
}

func ByCSS(selector string) By    { return By{Using: CSSSelector, Value: selector} }
func ByXPath(expr string) By      { return By{Using: XPath, Value: expr} }
func ByID(id string) By           { return By{Using: ID, Value: id} }
func ByName(name string) By       { return By{Using: Name, Value: name} }
func ByTagName(tag string) By     { return By{Using: TagName, Value: tag} }
func ByClassName(class string) By { return By{Using: ClassName, Value: class} }
func ByLinkText(text string) By   { return By{Using: LinkText, Value: text} }

// String renders the locator as "<using>: <value>".
func (b By) String() string {
	return b.Using + ": " + b.Value
}

// SearchContext finds elements, either in a whole page or below an element.
type SearchContext interface {
	FindElement(by By) (Element, error)
	FindElements(by By) ([]Element, error)
}

// Driver is the remote-control interface of a browser session.
type Driver interface {
	SearchContext

	// Get navigates to url and waits for the load event.
	Get(url string) error
	Back() error
	Forward() error
	Refresh() error

	CurrentURL() (string, error)
	Title() (string, error)

	// ExecuteScript runs a function expression in the page. When the first
	// argument is an Element the function runs with this bound to it.
	ExecuteScript(script string, args ...any) (any, error)
	ExecuteAsyncScript(script string, args ...any) (any, error)

	// Screenshot returns a PNG of the current viewport.
	Screenshot() ([]byte, error)

	Close() error
}

// Element is a handle to a DOM element.
type Element interface {
	SearchContext
	fmt.Stringer

	Click() error
	SendKeys(keys ...string) error
	Clear() error
	Submit() error
	Text() (string, error)
	Attribute(name string) (string, error)
	IsDisplayed() (bool, error)
}

// WrapsElement is implemented by handles that delegate to another Element.
type WrapsElement interface {
	WrappedElement() (Element, error)
}

// Unwrap follows WrappedElement until it reaches a concrete element.
func Unwrap(el Element) (Element, error) {
	for {
		w, ok := el.(WrapsElement)
		if !ok {
			return el, nil
		}
		inner, err := w.WrappedElement()
		if err != nil {
			return nil, err
		}
		el = inner
	}
}

// NoSuchElementError reports the locator that failed to match.
func NoSuchElementError(by By) error {
	return fmt.Errorf("%w: %s", ErrNoSuchElement, by)
}
