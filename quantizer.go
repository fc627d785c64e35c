package gifski

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/masdude/gifski/internal/quantize"
	"github.com/masdude/gifski/ordqueue"
)

// runQuantizer is the make-frames stage (spec.md §4.3): it drains rawFrames
// from in, in index order, and pushes quantized giffedFrames to out, also
// in index order. It owns the sliding two-frame lookahead window, the
// running screen, and the reused importance-map buffer described there.
//
// It runs on its own goroutine, spawned by Writer.Write (spec.md §4.5); its
// only communication with the rest of the pipeline is through the two
// OrdQueue ends it's given.
func runQuantizer(settings Settings, in *ordqueue.Iterator[*rawFrame], out *ordqueue.Producer[*giffedFrame]) error {
	attrs := quantize.NewAttributes()
	if settings.Fast {
		attrs.SetSpeed(10)
	}

	curr, ok := in.Next()
	if !ok {
		return errors.New("Found no usable frames to encode")
	}

	var next *rawFrame
	if n, ok := in.Next(); ok {
		next = n
	}

	w, h := curr.width(), curr.height()
	imp := make([]uint8, w*h)
	for i := range imp {
		imp[i] = 255
	}

	var scr *screen

	for i := 0; ; i++ {
		if next != nil && (next.width() != w || next.height() != h) {
			return errors.Errorf("Frame %d has wrong size (%d×%d, expected %d×%d)",
				next.index+1, next.width(), next.height(), w, h)
		}

		currPix := toRGBAPixels(curr)

		if next != nil {
			nextPix := toRGBAPixels(next)
			for p := range imp {
				d := colordiff(currPix[p], nextPix[p])
				imp[p] = 255 - uint8(min32(255, d*170/maxColorDiff))
			}
		}

		if i > 0 {
			attenuatePreviousBased(imp, scr, currPix, settings.Quality)
		}

		quality := settings.Quality
		if i == 0 {
			quality = 100
		}
		attrs.SetQuality(1, quality)

		qimg, err := attrs.NewImage(currPix, w, h)
		if err != nil {
			return err
		}
		if err := qimg.SetImportanceMap(imp); err != nil {
			return err
		}
		qimg.AddFixedColor(color.RGBA{})

		if i > 0 {
			bg, err := attrs.NewImage(scr.pix, w, h)
			if err != nil {
				return err
			}
			if err := qimg.SetBackground(bg); err != nil {
				return err
			}
		}

		result, err := qimg.Quantize()
		if err != nil {
			return errors.Wrap(err, "quantize")
		}
		result.SetDitheringLevel(0.5)

		palette, indices, err := result.Remapped(qimg)
		if err != nil {
			return errors.Wrap(err, "remap")
		}

		frame := &giffedFrame{
			width:       w,
			height:      h,
			palette:     palette,
			transparent: indexOfTransparentColor(palette),
			indices:     indices,
			delay:       curr.delay,
		}

		log.Debug().Int("index", i).Int("palette", len(palette)).
			Int("transparent", frame.transparent).Msg("quantized frame")

		if err := out.Push(i, frame); err != nil {
			return err
		}

		if scr == nil {
			scr = newScreen(w, h)
		}
		scr.blit(frame)

		if next == nil {
			break
		}
		curr = next
		if n, ok := in.Next(); ok {
			next = n
		} else {
			next = nil
		}
	}

	return nil
}

// attenuatePreviousBased implements spec.md §4.3 step 3: pixels that
// already match the screen closely become irrelevant to the quantizer;
// pixels that must change are kept, scaled down by whatever the
// next-based pass already decided.
func attenuatePreviousBased(imp []uint8, scr *screen, currPix []color.RGBA, quality int) {
	q := 100 - quality
	minDiff := uint32(80 + q*q)
	for p := range imp {
		d := colordiff(scr.at(p), currPix[p])
		if d < minDiff {
			imp[p] = 0
			continue
		}
		t := float64(d) / 32
		scaled := t * t
		if scaled > 256 {
			scaled = 256
		}
		imp[p] = uint8(scaled * float64(imp[p]) / 256)
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func toRGBAPixels(f *rawFrame) []color.RGBA {
	w, h := f.width(), f.height()
	px := make([]color.RGBA, w*h)
	for y := 0; y < h; y++ {
		off := y * f.img.Stride
		for x := 0; x < w; x++ {
			o := off + x*4
			px[y*w+x] = color.RGBA{
				R: f.img.Pix[o],
				G: f.img.Pix[o+1],
				B: f.img.Pix[o+2],
				A: f.img.Pix[o+3],
			}
		}
	}
	return px
}

func indexOfTransparentColor(p color.Palette) int {
	for i, c := range p {
		if rgba, ok := c.(color.RGBA); ok && rgba.A == 0 {
			return i
		}
	}
	return -1
}
