// Package resize implements a from-scratch two-pass separable Lanczos-3
// filter over RGBA8 rasters, used by the Collector to shrink frames before
// they enter the quantization pipeline.
//
// Unlike a general-purpose image resizer, this one does not preserve aspect
// ratio — the caller picks an exact destination width and height, per
// gifski's clamp-not-scale resize policy.
package resize

import (
	"image"
	"math"
	"runtime"
	"sync"
)

const lanczosA = 3.0 // Lanczos-3 kernel support radius

func lanczosKernel(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	if x < 0 {
		x = -x
	}
	if x >= lanczosA {
		return 0.0
	}
	xpi := x * math.Pi
	return (lanczosA * math.Sin(xpi) * math.Sin(xpi/lanczosA)) / (xpi * xpi)
}

type weightEntry struct {
	index  int
	weight float64
}

// planAxis precomputes, for every destination coordinate along one axis,
// the normalized source-index/weight pairs contributing to it.
func planAxis(srcN, dstN int) [][]weightEntry {
	ratio := float64(srcN) / float64(dstN)
	support := lanczosA
	if ratio > 1 {
		support = lanczosA * ratio
	}
	scale := math.Max(ratio, 1.0)

	plan := make([][]weightEntry, dstN)
	for d := 0; d < dstN; d++ {
		center := (float64(d)+0.5)*ratio - 0.5
		lo := int(math.Ceil(center - support))
		hi := int(math.Floor(center + support))
		if lo < 0 {
			lo = 0
		}
		if hi >= srcN {
			hi = srcN - 1
		}

		var wsum float64
		entries := make([]weightEntry, 0, hi-lo+1)
		for s := lo; s <= hi; s++ {
			w := lanczosKernel((float64(s) - center) / scale)
			if w != 0 {
				wsum += w
				entries = append(entries, weightEntry{s, w})
			}
		}
		if wsum != 0 {
			for i := range entries {
				entries[i].weight /= wsum
			}
		}
		plan[d] = entries
	}
	return plan
}

func clampF(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Resize produces a new dstW x dstH RGBA8 image by Lanczos-3 resampling
// src, which must have tightly packed rows (Stride == 4*Dx()). Alpha is
// treated as a per-pixel weight during interpolation (and divided back out
// afterward) so that fully transparent source pixels do not bleed color
// into the destination, matching spec's treatment of alpha as a genuine
// transparency signal rather than decoration.
func Resize(src *image.RGBA, dstW, dstH int) *image.RGBA {
	srcW, srcH := src.Rect.Dx(), src.Rect.Dy()
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if srcW == dstW && srcH == dstH {
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		copy(dst.Pix, src.Pix)
		return dst
	}
	tmp := resizeAxis(src, dstW, srcH, planAxis(srcW, dstW), horizontalSample, true)
	return resizeAxis(tmp, dstW, dstH, planAxis(srcH, dstH), verticalSample, false)
}

// sampleFn reads the weighted source contributions for destination position
// (d, fixed) where fixed is the coordinate along the axis not being resized.
type sampleFn func(src *image.RGBA, d, fixed int, plan []weightEntry) (r, g, b, a float64)

func horizontalSample(src *image.RGBA, dx, y int, plan []weightEntry) (r, g, b, a float64) {
	for _, we := range plan {
		off := y*src.Stride + we.index*4
		sa := float64(src.Pix[off+3])
		aw := sa * we.weight
		r += float64(src.Pix[off]) * aw
		g += float64(src.Pix[off+1]) * aw
		b += float64(src.Pix[off+2]) * aw
		a += aw
	}
	return
}

func verticalSample(src *image.RGBA, dy, x int, plan []weightEntry) (r, g, b, a float64) {
	for _, we := range plan {
		off := we.index*src.Stride + x*4
		sa := float64(src.Pix[off+3])
		aw := sa * we.weight
		r += float64(src.Pix[off]) * aw
		g += float64(src.Pix[off+1]) * aw
		b += float64(src.Pix[off+2]) * aw
		a += aw
	}
	return
}

// resizeAxis applies a 1-D resample either across rows (dstW != src width,
// height held at dstH == srcH) or down columns, as horizontal selects,
// dispatching through sample.
func resizeAxis(src *image.RGBA, dstW, dstH int, plans [][]weightEntry, sample sampleFn, horizontal bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))

	if horizontal {
		parallelDo(0, dstH, func(y int) {
			for dx := 0; dx < dstW; dx++ {
				r, g, b, a := sample(src, dx, y, plans[dx])
				writePixel(dst, dx, y, r, g, b, a)
			}
		})
	} else {
		parallelDo(0, dstW, func(x int) {
			for dy := 0; dy < dstH; dy++ {
				r, g, b, a := sample(src, dy, x, plans[dy])
				writePixel(dst, x, dy, r, g, b, a)
			}
		})
	}
	return dst
}

func writePixel(dst *image.RGBA, x, y int, r, g, b, a float64) {
	off := y*dst.Stride + x*4
	if a == 0 {
		return
	}
	inv := 1.0 / a
	dst.Pix[off] = clampF(r * inv)
	dst.Pix[off+1] = clampF(g * inv)
	dst.Pix[off+2] = clampF(b * inv)
	dst.Pix[off+3] = clampF(a)
}

// parallelDo executes fn(i) for i in [start, stop) across GOMAXPROCS
// goroutines, splitting the range into one contiguous batch per goroutine
// to keep per-row independent work off a single core.
func parallelDo(start, stop int, fn func(i int)) {
	count := stop - start
	if count <= 0 {
		return
	}
	procs := runtime.GOMAXPROCS(0)
	if procs > count {
		procs = count
	}
	if procs <= 1 {
		for i := start; i < stop; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	batch := (count + procs - 1) / procs
	for p := 0; p < procs; p++ {
		from := start + p*batch
		to := from + batch
		if to > stop {
			to = stop
		}
		if from >= to {
			continue
		}
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			for i := from; i < to; i++ {
				fn(i)
			}
		}(from, to)
	}
	wg.Wait()
}

// Compact returns src with tightly packed rows, copying only if the source
// stride is wider than its width or its bounds do not start at the origin
// (spec.md §4.2: the resizer requires
// contiguous rows).
func Compact(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if src.Stride == w*4 && src.Rect.Min == (image.Point{}) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOff := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], src.Pix[srcOff:srcOff+w*4])
	}
	return dst
}
