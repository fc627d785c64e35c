package gifski

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColordiffZeroIffEqual(t *testing.T) {
	a := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	assert.EqualValues(t, 0, colordiff(a, a))

	b := color.RGBA{R: 10, G: 20, B: 31, A: 255}
	assert.NotEqualValues(t, 0, colordiff(a, b))
}

func TestColordiffTransparentPixelsCollapseToMax(t *testing.T) {
	a := color.RGBA{R: 10, G: 20, B: 30, A: 0}
	b := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	assert.EqualValues(t, maxColorDiff, colordiff(a, b))

	bothTransparent := color.RGBA{A: 0}
	assert.EqualValues(t, maxColorDiff, colordiff(a, bothTransparent))
}

func TestColordiffSymmetric(t *testing.T) {
	a := color.RGBA{R: 10, G: 200, B: 30, A: 255}
	b := color.RGBA{R: 250, G: 5, B: 100, A: 255}
	assert.Equal(t, colordiff(a, b), colordiff(b, a))
}

func TestColordiffWeighting(t *testing.T) {
	base := color.RGBA{A: 255}
	redOnly := color.RGBA{R: 10, A: 255}
	greenOnly := color.RGBA{G: 10, A: 255}
	blueOnly := color.RGBA{B: 10, A: 255}

	// green differences are weighted more heavily than red, which in turn
	// outweighs blue, per the 2:3:1 weighting.
	assert.Greater(t, colordiff(base, greenOnly), colordiff(base, redOnly))
	assert.Greater(t, colordiff(base, redOnly), colordiff(base, blueOnly))
}
