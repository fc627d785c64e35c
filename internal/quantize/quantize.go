// Package quantize implements the "palette-quantization kernel" collaborator
// spec.md §6 treats as external: given a frame, a per-pixel importance map,
// and an optional background frame, produce a ≤256-color palette and a
// remapped index image.
//
// Clustering itself is delegated to the existing
// github.com/soniakeys/quant/median median-cut quantizer; everything
// quality-aware layered on top of it — importance-weighted sampling,
// background-hinted remap, a pinned transparent color, and dithering — is
// this package's own work, since median-cut alone knows nothing about
// importance maps or background frames.
package quantize

import (
	"image"
	"image/color"

	"github.com/soniakeys/quant"
	"github.com/soniakeys/quant/median"
)

// maxPaletteSize is the hard ceiling GIF imposes on a single frame's
// palette.
const maxPaletteSize = 256

// Attributes holds the settings that apply to every Image created from it,
// mirroring the consumed "Attributes"/liq shape from spec.md §6: speed and
// a quality range. QualityMin and QualityMax are accepted for interface
// parity but unused here — the quality knob's real effect already happened upstream, in the
// importance map math (spec.md §4.3 steps 2-3); re-deriving it inside the
// kernel would double-count it. Speed does have an effect: it bounds how
// aggressively importance weighting replicates pixels during clustering
// (see weightedSamples).
type Attributes struct {
	Speed      int
	QualityMin int
	QualityMax int
}

// NewAttributes returns Attributes with gifski's usual defaults: full
// quality range, default (non-fast) speed.
func NewAttributes() *Attributes {
	return &Attributes{QualityMax: 100}
}

// SetSpeed sets the 1-10 speed/quality tradeoff knob; 10 is fastest.
func (a *Attributes) SetSpeed(speed int) { a.Speed = speed }

// SetQuality sets the 0-100 quality range passed through from Settings.
func (a *Attributes) SetQuality(min, max int) {
	a.QualityMin, a.QualityMax = min, max
}

// Image is a frame ready to be quantized: its pixels, an optional
// importance map, an optional background, and any fixed colors that must
// survive clustering untouched.
type Image struct {
	attrs       *Attributes
	pix         []color.RGBA // width*height, row-major
	width       int
	height      int
	importance  []uint8 // optional, same length as pix; nil means "all 255"
	background  *Image
	fixedColors []color.RGBA
}

// NewImageStride wraps pix (stride entries per row, width <= stride) as an
// Image. gamma is accepted for interface parity with the consumed
// interface in spec.md §6 and is otherwise unused: this implementation
// works directly in sRGB-coded bytes, same as the rest of the pipeline.
func (a *Attributes) NewImageStride(pix []color.RGBA, width, height, stride int, gamma float64) (*Image, error) {
	img := &Image{attrs: a, width: width, height: height}
	if stride == width {
		img.pix = pix
		return img, nil
	}
	img.pix = make([]color.RGBA, width*height)
	for y := 0; y < height; y++ {
		copy(img.pix[y*width:(y+1)*width], pix[y*stride:y*stride+width])
	}
	return img, nil
}

// NewImage wraps a tightly packed pix buffer (stride == width).
func (a *Attributes) NewImage(pix []color.RGBA, width, height int) (*Image, error) {
	return a.NewImageStride(pix, width, height, width, 0)
}

// Width and Height report the image's dimensions.
func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

// SetImportanceMap attaches a per-pixel weight hint: 255 preserves a pixel
// faithfully, 0 says the quantizer is free to reuse any nearby color for
// it (including, when a background is set, the background's own color).
func (img *Image) SetImportanceMap(m []uint8) error {
	img.importance = m
	return nil
}

// SetBackground supplies the previously displayed frame so low-importance
// pixels can be remapped onto colors already on screen instead of
// consuming fresh palette entries.
func (img *Image) SetBackground(bg *Image) error {
	img.background = bg
	return nil
}

// AddFixedColor pins a color into the final palette untouched by
// clustering. gifski's core pipeline calls this exactly once, with the
// transparent color, but the method accepts being called more than once.
func (img *Image) AddFixedColor(c color.RGBA) {
	img.fixedColors = append(img.fixedColors, c)
}

// Result is a completed quantization: a palette and a dithering level to
// apply when remapping.
type Result struct {
	img     *Image
	palette color.Palette
	dither  float64
}

// Quantize builds a palette for img, honoring its importance map, fixed
// colors and clustering budget.
func (img *Image) Quantize() (*Result, error) {
	budget := maxPaletteSize - len(img.fixedColors)
	if budget < 1 {
		budget = 1
	}

	samples := newWeightedSamples(img, maxReplication(img.attrs))
	var clustered color.Palette
	if samples.Len() > 0 {
		pal := median.Quantizer{}.Quantize(samples, budget)
		clustered = pal.Palette
	}

	full := make(color.Palette, 0, len(img.fixedColors)+len(clustered))
	full = append(full, paletteAsColors(img.fixedColors)...)
	for _, c := range clustered {
		if len(full) >= maxPaletteSize {
			break
		}
		full = append(full, c)
	}
	if len(full) == 0 {
		full = append(full, color.RGBA{})
	}

	return &Result{img: img, palette: full}, nil
}

func paletteAsColors(cs []color.RGBA) []color.Color {
	out := make([]color.Color, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

// SetDitheringLevel sets the Floyd-Steinberg error-diffusion strength
// applied during Remapped, 0 (none) to 1 (full).
func (r *Result) SetDitheringLevel(level float64) { r.dither = level }

// Remapped converts img (normally the same Image that produced r, but the
// interface allows otherwise, matching the consumed shape in spec.md §6)
// into palette indices against r's palette, returning the palette and the
// width*height index buffer.
func (r *Result) Remapped(img *Image) (color.Palette, []uint8, error) {
	nearest := quant.LinearPalette{Palette: r.palette}
	transparentIndex := indexOfTransparent(r.palette)

	out := make([]uint8, img.width*img.height)
	// Per-pixel accumulated diffusion error, carried row-major.
	errR := make([]float64, img.width*img.height)
	errG := make([]float64, img.width*img.height)
	errB := make([]float64, img.width*img.height)

	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			p := y*img.width + x
			px := img.pix[p]

			if px.A == 0 {
				out[p] = uint8(transparentIndex)
				continue
			}

			target := px
			if img.background != nil && img.importanceAt(p) == 0 {
				bg := img.background.pix[p]
				if bg.A == 0 {
					out[p] = uint8(transparentIndex)
					continue
				}
				target = bg
			}

			adjusted := color.RGBA{
				R: clamp8(float64(target.R) + errR[p]),
				G: clamp8(float64(target.G) + errG[p]),
				B: clamp8(float64(target.B) + errB[p]),
				A: 255,
			}
			idx := nearest.IndexNear(adjusted)
			out[p] = uint8(idx)

			if r.dither <= 0 {
				continue
			}
			chosen := r.palette[idx].(color.RGBA)
			dr := (float64(adjusted.R) - float64(chosen.R)) * r.dither
			dg := (float64(adjusted.G) - float64(chosen.G)) * r.dither
			db := (float64(adjusted.B) - float64(chosen.B)) * r.dither
			diffuse(errR, errG, errB, img.width, img.height, x, y, dr, dg, db)
		}
	}

	return r.palette, out, nil
}

func (img *Image) importanceAt(p int) uint8 {
	if img.importance == nil {
		return 255
	}
	return img.importance[p]
}

// diffuse spreads a quantization error across the classic Floyd-Steinberg
// neighborhood (right, below-left, below, below-right).
func diffuse(errR, errG, errB []float64, w, h, x, y int, dr, dg, db float64) {
	add := func(nx, ny int, frac float64) {
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			return
		}
		n := ny*w + nx
		errR[n] += dr * frac
		errG[n] += dg * frac
		errB[n] += db * frac
	}
	add(x+1, y, 7.0/16)
	add(x-1, y+1, 3.0/16)
	add(x, y+1, 5.0/16)
	add(x+1, y+1, 1.0/16)
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func indexOfTransparent(p color.Palette) int {
	for i, c := range p {
		if rgba, ok := c.(color.RGBA); ok && rgba.A == 0 {
			return i
		}
	}
	return 0
}

// maxReplication bounds how many times a single pixel can be replicated
// into the clustering sample set. Fast mode trades weighting fidelity for
// speed by disabling replication entirely.
func maxReplication(a *Attributes) int {
	if a == nil || a.Speed >= 10 {
		return 1
	}
	return 4
}

// weightedSamples is an image.Image adapter that replicates each opaque
// pixel of an Image proportionally to its importance, so handing it to an
// unmodified median.Quantizer makes importance-weighted colors dominate
// cluster splits without needing a forked clustering algorithm.
type weightedSamples struct {
	samples []color.RGBA
}

func newWeightedSamples(img *Image, maxRep int) *weightedSamples {
	ws := &weightedSamples{samples: make([]color.RGBA, 0, len(img.pix))}
	for p, px := range img.pix {
		if px.A == 0 {
			continue
		}
		rep := 1
		if maxRep > 1 {
			w := img.importanceAt(p)
			rep = 1 + int(w)*(maxRep-1)/255
		}
		for i := 0; i < rep; i++ {
			ws.samples = append(ws.samples, px)
		}
	}
	return ws
}

func (w *weightedSamples) Len() int { return len(w.samples) }

func (w *weightedSamples) ColorModel() color.Model { return color.RGBAModel }

func (w *weightedSamples) Bounds() image.Rectangle {
	return image.Rect(0, 0, len(w.samples), 1)
}

func (w *weightedSamples) At(x, y int) color.Color {
	return w.samples[x]
}
