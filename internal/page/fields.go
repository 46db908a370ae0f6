package page

import (
	"github.com/v0xg/pagecapture/internal/driver"
)

// Field is one declared element of a page object.
type Field struct {
	Name   string
	Handle Handle
	// Visible registers the field with the visibility waiter.
	Visible bool
}

// Option adjusts a field declaration.
type Option func(*Field)

// Visible marks a field as required to be visible before the page is ready.
func Visible(f *Field) {
	f.Visible = true
}

// Fields is the declaration table of a page object, filled in by its
// declare function on every Get.
type Fields struct {
	list []Field
}

// Add declares a field. Declaration order is kept.
func (f *Fields) Add(name string, h Handle, opts ...Option) {
	field := Field{Name: name, Handle: h}
	for _, opt := range opts {
		opt(&field)
	}
	f.list = append(f.list, field)
}

func (f *Fields) All() []Field {
	return append([]Field(nil), f.list...)
}

// VisibilityRequirements returns the fields marked Visible.
func (f *Fields) VisibilityRequirements() []Field {
	var out []Field
	for _, field := range f.list {
		if field.Visible {
			out = append(out, field)
		}
	}
	return out
}

// Element declares a lazily resolved element.
func Element(f *Fields, name string, by driver.By, opts ...Option) *LazyElement {
	el := NewLazyElement(by)
	f.Add(name, el, opts...)
	return el
}

// Elements declares a lazily resolved collection.
func Elements(f *Fields, name string, by driver.By, opts ...Option) *LazyElements {
	els := NewLazyElements(by)
	f.Add(name, els, opts...)
	return els
}

// Typed declares an element wrapped in a typified element such as Button or
// FileInput.
func Typed[E any](f *Fields, name string, by driver.By, wrap func(*LazyElement) E, opts ...Option) E {
	return wrap(Element(f, name, by, opts...))
}

// Loader populates declared fields. Replace the default with Base.SetLoader
// to change how a page binds its fields.
type Loader interface {
	Populate(ctx driver.SearchContext, fields []Field) error
}

// LazyLoader binds every field to ctx without looking anything up.
type LazyLoader struct{}

func (LazyLoader) Populate(ctx driver.SearchContext, fields []Field) error {
	for _, f := range fields {
		f.Handle.Bind(ctx)
	}
	return nil
}
