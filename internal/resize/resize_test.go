package resize_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masdude/gifski/internal/resize"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestResizeSolidColorStaysSolid(t *testing.T) {
	red := color.RGBA{R: 200, G: 10, B: 10, A: 255}
	src := solid(8, 8, red)

	dst := resize.Resize(src, 4, 2)
	require.Equal(t, 4, dst.Rect.Dx())
	require.Equal(t, 2, dst.Rect.Dy())
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, red, dst.RGBAAt(x, y))
		}
	}
}

func TestResizeIdentityCopies(t *testing.T) {
	src := solid(3, 3, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	dst := resize.Resize(src, 3, 3)
	assert.Equal(t, src.Pix, dst.Pix)
}

func TestResizeTransparentStaysTransparent(t *testing.T) {
	src := solid(6, 6, color.RGBA{})
	dst := resize.Resize(src, 3, 3)
	for _, px := range dst.Pix {
		assert.Equal(t, uint8(0), px)
	}
}

func TestCompactFlattensStride(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 10, 4))
	sub := base.SubImage(image.Rect(2, 1, 6, 3)).(*image.RGBA)
	for y := 1; y < 3; y++ {
		for x := 2; x < 6; x++ {
			sub.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	compact := resize.Compact(sub)
	require.Equal(t, 4*4, compact.Stride)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, sub.RGBAAt(x+2, y+1), compact.RGBAAt(x, y))
		}
	}
}
