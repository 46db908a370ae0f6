package capture

import (
	"github.com/v0xg/pagecapture/internal/driver"
)

// Scripts run by the capture pipeline itself. Listeners skip them so they
// are neither logged as user actions nor captured recursively.
const (
	HighlightScript = `function () {
		const previous = this.style.border;
		this.style.border = '3px solid red';
		return previous;
	}`
	UnhighlightScript = `function (border) {
		this.style.border = border;
	}`
	UserAgentScript = `() => navigator.userAgent`
)

// Highlighter draws a border around an element while it is captured.
type Highlighter struct {
	driver   driver.Driver
	previous driver.Element
	border   string
}

func NewHighlighter(d driver.Driver) *Highlighter {
	return &Highlighter{driver: d}
}

// HighlightElement outlines el, remembering its border for UnhighlightPrevious.
func (h *Highlighter) HighlightElement(el driver.Element) error {
	res, err := h.driver.ExecuteScript(HighlightScript, el)
	if err != nil {
		return err
	}
	h.previous = el
	h.border, _ = res.(string)
	return nil
}

// UnhighlightPrevious restores the border of the last highlighted element.
func (h *Highlighter) UnhighlightPrevious() error {
	if h.previous == nil {
		return nil
	}
	el := h.previous
	h.previous = nil
	_, err := h.driver.ExecuteScript(UnhighlightScript, el, h.border)
	return err
}
