// Package drivertest provides an in-memory driver.Driver for tests.
package drivertest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/v0xg/pagecapture/internal/driver"
)

// Driver is a scriptable fake browser session. It is safe for concurrent use.
type Driver struct {
	mu sync.Mutex

	elements map[driver.By][]*Element
	finds    map[driver.By]int
	url      string
	visited  []string
	scripts  []string
	closed   bool

	// ScriptFunc, when set, computes the result of ExecuteScript.
	ScriptFunc func(script string, args ...any) (any, error)
	// ScreenshotPNG is returned by Screenshot; defaults to a small image.
	ScreenshotPNG []byte
	ScreenshotErr error
	GetErr        error
}

var _ driver.Driver = (*Driver)(nil)

func New() *Driver {
	return &Driver{
		elements:      make(map[driver.By][]*Element),
		finds:         make(map[driver.By]int),
		ScreenshotPNG: PNG(8, 6),
	}
}

// PNG encodes a blank image of the given size.
func PNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Add registers elements under their locator.
func (d *Driver) Add(els ...*Element) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, el := range els {
		d.elements[el.By] = append(d.elements[el.By], el)
	}
	return d
}

// Finds returns how many lookups were made for by.
func (d *Driver) Finds(by driver.By) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finds[by]
}

// Visited returns every url passed to Get.
func (d *Driver) Visited() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.visited...)
}

// Scripts returns every script executed so far.
func (d *Driver) Scripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.scripts...)
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) String() string { return "StubDriver" }

func (d *Driver) FindElement(by driver.By) (driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finds[by]++
	els := d.elements[by]
	if len(els) == 0 {
		return nil, driver.NoSuchElementError(by)
	}
	return els[0], nil
}

func (d *Driver) FindElements(by driver.By) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finds[by]++
	out := make([]driver.Element, 0, len(d.elements[by]))
	for _, el := range d.elements[by] {
		out = append(out, el)
	}
	return out, nil
}

func (d *Driver) Get(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetErr != nil {
		return d.GetErr
	}
	d.url = url
	d.visited = append(d.visited, url)
	return nil
}

func (d *Driver) Back() error    { return nil }
func (d *Driver) Forward() error { return nil }
func (d *Driver) Refresh() error { return nil }

func (d *Driver) CurrentURL() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) Title() (string, error) { return "stub", nil }

func (d *Driver) ExecuteScript(script string, args ...any) (any, error) {
	d.mu.Lock()
	d.scripts = append(d.scripts, script)
	fn := d.ScriptFunc
	d.mu.Unlock()
	if fn != nil {
		return fn(script, args...)
	}
	return nil, nil
}

func (d *Driver) ExecuteAsyncScript(script string, args ...any) (any, error) {
	return d.ExecuteScript(script, args...)
}

func (d *Driver) Screenshot() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ScreenshotPNG, d.ScreenshotErr
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
