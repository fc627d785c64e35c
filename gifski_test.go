package gifski_test

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masdude/gifski"
	"github.com/masdude/gifski/progress"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// S1: single frame, 2x2 red, delay 10, once=true, quality=80.
func TestSingleFrame(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{Quality: 80, Once: true})

	red := color.RGBA{R: 255, A: 255}
	require.NoError(t, collector.AddFrameRGBA(0, solidRGBA(2, 2, red), 10))
	collector.Close()

	var buf bytes.Buffer
	counter := &progress.Counter{}
	require.NoError(t, writer.Write(&buf, counter))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 1)
	assert.Equal(t, 2, decoded.Image[0].Rect.Dx())
	assert.Equal(t, 2, decoded.Image[0].Rect.Dy())
	assert.Equal(t, 10, decoded.Delay[0])
	assert.Equal(t, -1, decoded.LoopCount)
	assert.True(t, len(decoded.Image[0].Palette) >= 1)
	assert.EqualValues(t, 1, counter.Count())
}

// S2: two identical 4x4 frames, quality 50 — just checking dimensions and
// delay survive even though frame 1 should have an all-zero importance map
// internally (not independently observable from the encoded output, but
// the frame must still be emitted).
func TestTwoIdenticalFrames(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{Quality: 50})

	blue := color.RGBA{B: 255, A: 255}
	require.NoError(t, collector.AddFrameRGBA(0, solidRGBA(4, 4, blue), 5))
	require.NoError(t, collector.AddFrameRGBA(1, solidRGBA(4, 4, blue), 7))
	collector.Close()

	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, progress.Nop()))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 2)
	assert.Equal(t, []int{5, 7}, decoded.Delay)
	for _, f := range decoded.Image {
		assert.Equal(t, 4, f.Rect.Dx())
		assert.Equal(t, 4, f.Rect.Dy())
	}
}

// S3: frames submitted in reverse index order must still be written in
// ascending order.
func TestReversedSubmissionOrder(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{})

	green := color.RGBA{G: 255, A: 255}
	require.NoError(t, collector.AddFrameRGBA(1, solidRGBA(3, 3, green), 2))
	require.NoError(t, collector.AddFrameRGBA(0, solidRGBA(3, 3, green), 1))
	collector.Close()

	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, progress.Nop()))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 2)
	assert.Equal(t, []int{1, 2}, decoded.Delay)
}

// S4: a dimension change after the first frame must fail with the
// 1-based dimension-mismatch message.
func TestDimensionMismatch(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{})

	require.NoError(t, collector.AddFrameRGBA(0, solidRGBA(8, 8, color.RGBA{A: 255}), 1))
	require.NoError(t, collector.AddFrameRGBA(1, solidRGBA(8, 4, color.RGBA{A: 255}), 1))
	collector.Close()

	var buf bytes.Buffer
	err := writer.Write(&buf, progress.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Frame 2 has wrong size (8×4, expected 8×8)")
}

// S5: dropping the collector with zero frames submitted fails with the
// empty-input message.
func TestEmptyInput(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{})
	collector.Close()

	var buf bytes.Buffer
	err := writer.Write(&buf, progress.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Found no usable frames to encode")
}

// S6: ten frames cycling through R, G, B, ..., quality 90, once=false.
func TestTenFramesCyclingColors(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{Quality: 90})

	colors := []color.RGBA{
		{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255},
	}
	const n = 10
	go func() {
		defer collector.Close()
		for i := 0; i < n; i++ {
			c := colors[i%len(colors)]
			_ = collector.AddFrameRGBA(i, solidRGBA(5, 5, c), 4)
		}
	}()

	var buf bytes.Buffer
	counter := &progress.Counter{}
	require.NoError(t, writer.Write(&buf, counter))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, n)
	assert.Equal(t, 0, decoded.LoopCount) // infinite, once defaults false
	assert.EqualValues(t, n, counter.Count())
}

// Resizing should clamp rather than scale to preserve aspect ratio.
func TestResizeClampsIndependently(t *testing.T) {
	collector, writer := gifski.New(gifski.Settings{Width: 4, Height: 10})

	require.NoError(t, collector.AddFrameRGBA(0, solidRGBA(8, 6, color.RGBA{R: 100, A: 255}), 1))
	collector.Close()

	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, progress.Nop()))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 1)
	assert.Equal(t, 4, decoded.Image[0].Rect.Dx())
	assert.Equal(t, 6, decoded.Image[0].Rect.Dy()) // clamped to source height, not scaled
}

func TestWriteBlocksUntilCollectorClosed(t *testing.T) {
	// Regression guard for the documented behavior in spec.md §4.5: Write
	// blocks until the Collector is closed. This test bounds how long it
	// waits before giving up, rather than asserting the hang itself.
	collector, writer := gifski.New(gifski.Settings{})
	require.NoError(t, collector.AddFrameRGBA(0, solidRGBA(2, 2, color.RGBA{A: 255}), 1))

	done := make(chan error, 1)
	var buf bytes.Buffer
	go func() { done <- writer.Write(&buf, progress.Nop()) }()

	select {
	case <-done:
		t.Fatal("Write returned before Collector was closed")
	case <-time.After(50 * time.Millisecond):
		collector.Close()
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Write did not return after Collector closed")
	}
}
