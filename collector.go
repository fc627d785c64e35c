package gifski

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/pkg/errors"

	"github.com/masdude/gifski/internal/resize"
	"github.com/masdude/gifski/ordqueue"
)

// Collector is the caller-facing entry point for submitting frames. Any
// number of goroutines may call its methods concurrently; frames are
// pushed into Q1 by index and may arrive in any order (spec.md §4.2).
type Collector struct {
	settings Settings
	producer *ordqueue.Producer[*rawFrame]
}

// AddFrameRGBA enqueues an already-decoded raster, resizing it first
// according to the Collector's Settings.
func (c *Collector) AddFrameRGBA(index int, img *image.RGBA, delayCentis uint16) error {
	img = c.resize(img)
	return c.producer.Push(index, &rawFrame{index: index, img: img, delay: delayCentis})
}

// AddFramePNGFile decodes a PNG file from disk and otherwise behaves as
// AddFrameRGBA. Decode failures are wrapped with a path-qualified message.
func (c *Collector) AddFramePNGFile(index int, path string, delayCentis uint16) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "Can't load %s", path)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "Can't load %s", path)
	}

	return c.AddFrameRGBA(index, toRGBA(src), delayCentis)
}

// Close signals that no further frames will be submitted, letting Q1 (and
// therefore the rest of the pipeline) terminate. The caller must call this
// before Writer.Write can return, per spec.md §4.5.
func (c *Collector) Close() {
	c.producer.Close()
}

// resize applies the clamp-not-scale policy of spec.md §4.2: an unset
// target width passes the frame through untouched; a set width with no
// height clamps width and derives height proportionally; both set clamps
// independently, not preserving aspect ratio.
func (c *Collector) resize(img *image.RGBA) *image.RGBA {
	if c.settings.Width == 0 {
		return img
	}
	img = resize.Compact(img)

	w := img.Rect.Dx()
	h := img.Rect.Dy()

	targetW := c.settings.Width
	if targetW > uint32(w) {
		targetW = uint32(w)
	}

	var targetH uint32
	if c.settings.Height != 0 {
		targetH = c.settings.Height
		if targetH > uint32(h) {
			targetH = uint32(h)
		}
	} else {
		targetH = uint32(int(targetW) * h / w)
	}

	if int(targetW) == w && int(targetH) == h {
		return img
	}
	return resize.Resize(img, int(targetW), int(targetH))
}

// toRGBA converts any decoded image to a tightly packed *image.RGBA, the
// format the rest of the pipeline works in.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return dst
}
