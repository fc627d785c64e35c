package gifski

import "image/color"

// screen is the virtual canvas a conforming GIF decoder would display after
// applying every frame emitted so far. The quantizer consults it as the
// background hint for the next frame (spec.md §4.3 step 3) and updates it
// by blitting each quantized frame back through its own palette
// (spec.md §4.3 step 6), always under disposal=Keep: the canvas is never
// cleared between frames, only painted over.
type screen struct {
	width, height int
	pix           []color.RGBA // width*height, row-major
}

// newScreen returns a fully transparent canvas of the given dimensions,
// lazily created on the first frame as spec.md §4.3 describes.
func newScreen(width, height int) *screen {
	return &screen{width: width, height: height, pix: make([]color.RGBA, width*height)}
}

// at returns the screen's current color at pixel p (row-major offset).
func (s *screen) at(p int) color.RGBA { return s.pix[p] }

// blit paints a quantized frame onto the screen through its palette. The
// transparent index (if any) leaves the corresponding screen pixel
// untouched, mirroring what a GIF decoder does for a frame's hole: it
// shows whatever was already there, not a replacement pixel.
func (s *screen) blit(f *giffedFrame) {
	for p, idx := range f.indices {
		if int(idx) == f.transparent {
			continue
		}
		s.pix[p] = f.palette[idx].(color.RGBA)
	}
}
