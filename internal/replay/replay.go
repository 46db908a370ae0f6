// Package replay assembles the screenshots of a capture directory into an
// animated GIF, one frame per captured action.
package replay

import (
	"bytes"
	"cmp"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"github.com/spf13/afero"
)

// FileName is the name of the GIF written next to the screenshots.
const FileName = "replay.gif"

// Options configures GIF generation.
type Options struct {
	FPS      int
	MaxWidth uint
}

func (o Options) withDefaults() Options {
	if o.FPS <= 0 {
		o.FPS = 1
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = 800
	}
	return o
}

// Frames decodes the screenshots in dir in capture order. Files that are
// not PNGs, the replay itself included, are skipped.
func Frames(fs afero.Fs, dir string) ([]image.Image, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, byCaptureOrder)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}

// byCaptureOrder orders "<seq>-<action>.png" names by their numeric
// sequence. The zero padding stops at four digits, so names alone do not
// sort past 9999. Names without a sequence go last.
func byCaptureOrder(a, b string) int {
	sa, oka := seqOf(a)
	sb, okb := seqOf(b)
	switch {
	case oka && okb && sa != sb:
		return cmp.Compare(sa, sb)
	case oka != okb:
		if oka {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func seqOf(name string) (int64, bool) {
	prefix, _, ok := strings.Cut(name, "-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(prefix, 10, 64)
	return n, err == nil
}

// Encode writes frames as a looping GIF. All frames are scaled to the size
// of the first one, capped at MaxWidth.
func Encode(w io.Writer, frames []image.Image, opts Options) error {
	if len(frames) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	// Delay is in 100ths of a second.
	delay := 100 / opts.FPS

	bounds := frames[0].Bounds()
	width := opts.MaxWidth
	if uint(bounds.Dx()) < width {
		width = uint(bounds.Dx())
	}
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))
	if height == 0 {
		height = 1
	}

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}
	palette := generatePalette(frames)
	for i, frame := range frames {
		resized := resize.Resize(width, height, frame, resize.Lanczos3)
		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, image.Point{})
		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	return gif.EncodeAll(w, g)
}

// WriteDir writes dir/replay.gif from the screenshots in dir and returns
// its size. A directory without screenshots produces no file.
func WriteDir(fs afero.Fs, dir string, opts Options) (int64, error) {
	frames, err := Frames(fs, dir)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, frames, opts); err != nil {
		return 0, fmt.Errorf("encoding replay: %w", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, FileName), buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing replay: %w", err)
	}
	return int64(buf.Len()), nil
}

// generatePalette picks the 255 most frequent colors sampled across all
// frames, plus transparency, padded with grays.
func generatePalette(frames []image.Image) color.Palette {
	counts := make(map[color.RGBA]int)
	const step = 4
	for _, img := range frames {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y += step {
			for x := b.Min.X; x < b.Max.X; x += step {
				r, g, bl, a := img.At(x, y).RGBA()
				counts[color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}]++
			}
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	slices.SortFunc(colors, func(a, b color.RGBA) int {
		if d := cmp.Compare(counts[b], counts[a]); d != 0 {
			return d
		}
		// Stable order for equally frequent colors.
		return cmp.Compare(rgbaKey(a), rgbaKey(b))
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{})
	for _, c := range colors {
		if len(palette) == 256 {
			break
		}
		palette = append(palette, c)
	}
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{R: gray, G: gray, B: gray, A: 255})
	}
	return palette
}

func rgbaKey(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
