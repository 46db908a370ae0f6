package page

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// TypifiedElement is embedded by the typed element wrappers.
type TypifiedElement struct {
	*LazyElement
}

// Button is a clickable element.
type Button struct {
	TypifiedElement
}

func NewButton(l *LazyElement) *Button {
	return &Button{TypifiedElement{l}}
}

// Link is an anchor element.
type Link struct {
	TypifiedElement
}

func NewLink(l *LazyElement) *Link {
	return &Link{TypifiedElement{l}}
}

// Reference returns the href of the link.
func (l *Link) Reference() (string, error) {
	return l.Attribute("href")
}

// TextInput is a text field or text area.
type TextInput struct {
	TypifiedElement
}

func NewTextInput(l *LazyElement) *TextInput {
	return &TextInput{TypifiedElement{l}}
}

// SetText replaces the current value with text.
func (t *TextInput) SetText(text string) error {
	if err := t.Clear(); err != nil {
		return err
	}
	return t.SendKeys(text)
}

// Value returns the current value of the field.
func (t *TextInput) Value() (string, error) {
	return t.Attribute("value")
}

// DefaultUploadDirs are searched for files to upload before the name is
// tried as a path of its own.
var DefaultUploadDirs = []string{"testdata"}

// FileInput is an <input type="file">.
type FileInput struct {
	TypifiedElement
	fs   afero.Fs
	dirs []string
}

func NewFileInput(l *LazyElement) *FileInput {
	return &FileInput{TypifiedElement: TypifiedElement{l}, fs: afero.NewOsFs(), dirs: DefaultUploadDirs}
}

// WithFs resolves upload paths on fs instead of the OS filesystem.
func (f *FileInput) WithFs(fs afero.Fs) *FileInput {
	f.fs = fs
	return f
}

// SetFileToUpload selects one file. The name is looked up in the upload
// dirs first, then as given.
func (f *FileInput) SetFileToUpload(name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return f.SendKeys(p)
}

// SetFilesToUpload selects several files at once.
func (f *FileInput) SetFilesToUpload(names []string) error {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, err := f.path(name)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}
	return f.SendKeys(strings.Join(paths, "\n"))
}

func (f *FileInput) path(name string) (string, error) {
	candidates := make([]string, 0, len(f.dirs)+1)
	if !filepath.IsAbs(name) {
		for _, dir := range f.dirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	candidates = append(candidates, name)

	for _, c := range candidates {
		ok, err := afero.Exists(f.fs, c)
		if err != nil {
			return "", err
		}
		if ok {
			return filepath.Abs(c)
		}
	}
	return "", fmt.Errorf("file to upload %q not found", name)
}
