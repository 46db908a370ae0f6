package page

import (
	"github.com/v0xg/pagecapture/internal/driver"
)

// Generic is a page object whose fields are given at run time, one visible
// element per locator. It backs ad hoc checks such as the command line tool.
type Generic struct {
	*Base[Generic]
	locators []driver.By
	elements []*LazyElement
}

func NewGeneric(s Session, visible ...driver.By) *Generic {
	p := &Generic{locators: visible}
	p.Base = New(s, p, func(f *Fields) {
		p.elements = p.elements[:0]
		for _, by := range p.locators {
			p.elements = append(p.elements, Element(f, by.String(), by, Visible))
		}
	})
	return p
}

// Element returns a lazy handle for by, bound to the current page. It is
// not a visibility requirement.
func (p *Generic) Element(by driver.By) *LazyElement {
	el := NewLazyElement(by)
	el.Bind(p.Driver())
	return el
}

// Visible returns the handles of the visibility requirements in the order
// they were given.
func (p *Generic) Visible() []*LazyElement {
	return append([]*LazyElement(nil), p.elements...)
}
