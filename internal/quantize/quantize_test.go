package quantize_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masdude/gifski/internal/quantize"
)

func solidPixels(n int, c color.RGBA) []color.RGBA {
	px := make([]color.RGBA, n)
	for i := range px {
		px[i] = c
	}
	return px
}

func TestQuantizeSolidColorLeavesPinnedTransparentSlotUnused(t *testing.T) {
	attrs := quantize.NewAttributes()
	attrs.SetQuality(0, 100)

	red := color.RGBA{R: 200, G: 20, B: 20, A: 255}
	img, err := attrs.NewImage(solidPixels(16, red), 4, 4)
	require.NoError(t, err)
	img.AddFixedColor(color.RGBA{})

	res, err := img.Quantize()
	require.NoError(t, err)
	res.SetDitheringLevel(0.5)

	pal, indices, err := res.Remapped(img)
	require.NoError(t, err)
	require.Len(t, indices, 16)

	// index 0 is the pinned transparent slot, never used by this opaque image
	assert.Equal(t, color.RGBA{}, pal[0])
	for _, idx := range indices {
		assert.NotEqual(t, 0, idx)
	}
}

func TestQuantizeAllTransparentMapsEverythingToFixedSlot(t *testing.T) {
	attrs := quantize.NewAttributes()
	img, err := attrs.NewImage(solidPixels(9, color.RGBA{}), 3, 3)
	require.NoError(t, err)
	img.AddFixedColor(color.RGBA{})

	res, err := img.Quantize()
	require.NoError(t, err)

	pal, indices, err := res.Remapped(img)
	require.NoError(t, err)
	for _, idx := range indices {
		assert.Equal(t, uint8(0), idx)
	}
	assert.Equal(t, color.RGBA{}, pal[0])
}

func TestBackgroundHintingReusesBackgroundColorForZeroImportance(t *testing.T) {
	attrs := quantize.NewAttributes()

	bgColor := color.RGBA{R: 10, G: 200, B: 10, A: 255}
	curColor := color.RGBA{R: 12, G: 198, B: 11, A: 255} // close, but not identical

	bg, err := attrs.NewImage(solidPixels(4, bgColor), 2, 2)
	require.NoError(t, err)

	cur, err := attrs.NewImage(solidPixels(4, curColor), 2, 2)
	require.NoError(t, err)
	cur.AddFixedColor(color.RGBA{})
	require.NoError(t, cur.SetImportanceMap([]uint8{0, 0, 0, 0}))
	require.NoError(t, cur.SetBackground(bg))

	res, err := cur.Quantize()
	require.NoError(t, err)

	_, indices, err := res.Remapped(cur)
	require.NoError(t, err)
	// every pixel should have resolved against the background color, so
	// they all land on the same palette entry
	for _, idx := range indices[1:] {
		assert.Equal(t, indices[0], idx)
	}
}

func TestNewImageStrideCompactsNonTightRows(t *testing.T) {
	attrs := quantize.NewAttributes()
	// stride 3 but width 2: row 0 = [A, A, junk], row 1 = [B, B, junk]
	a := color.RGBA{R: 1, A: 255}
	b := color.RGBA{R: 2, A: 255}
	junk := color.RGBA{R: 99, A: 255}
	pix := []color.RGBA{a, a, junk, b, b, junk}

	img, err := attrs.NewImageStride(pix, 2, 2, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width())
	assert.Equal(t, 2, img.Height())
}
