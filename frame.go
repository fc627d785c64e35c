package gifski

import (
	"image"
	"image/color"
)

// rawFrame is a decoded, already-resized frame as it travels from the
// Collector to the Quantizer through Q1.
type rawFrame struct {
	index int
	img   *image.RGBA
	delay uint16
}

func (f *rawFrame) width() int  { return f.img.Rect.Dx() }
func (f *rawFrame) height() int { return f.img.Rect.Dy() }

// giffedFrame is a quantized frame as it travels from the Quantizer to the
// Writer through Q2, and is simultaneously blitted into the screen. It is
// immutable once constructed and safe to share between those two readers
// (neither mutates it).
type giffedFrame struct {
	width, height int
	palette       color.Palette // up to 256 entries, at most one with A==0
	transparent   int           // index into palette with A==0, or -1
	indices       []uint8       // width*height, row-major
	delay         uint16
}
