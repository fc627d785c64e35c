package gifski

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/masdude/gifski/internal/gifenc"
	"github.com/masdude/gifski/ordqueue"
	"github.com/masdude/gifski/progress"
)

// Settings configures an encode. Every field is optional; the zero value
// keeps source dimensions, uses quality 90, and loops forever.
type Settings struct {
	// Width and Height bound the output frame size (spec.md §4.2). Zero
	// means "use the source dimensions unchanged".
	Width, Height uint32

	// Quality in 1..=100 applies to every frame after the first; the first
	// frame is always quantized at quality 100 regardless (spec.md
	// invariant 3).
	Quality int

	// Once, if true, omits the infinite-loop extension.
	Once bool

	// Fast, if true, runs the quantizer at its fastest (least precise)
	// speed setting.
	Fast bool
}

const queueCapacity = 4

// Collector and Writer are produced together by New: frames flow in
// through the Collector and out through the Writer, bridged by the
// quantizer stage running internally.
//
// New spawns nothing by itself; Write is what starts the quantizer
// goroutine (spec.md §4.5).
func New(settings Settings) (*Collector, *Writer) {
	if settings.Quality == 0 {
		settings.Quality = 90
	}

	_, producer1, iter1 := ordqueue.New[*rawFrame](queueCapacity)

	collector := &Collector{settings: settings, producer: producer1}
	writer := &Writer{settings: settings, q1in: iter1}
	return collector, writer
}

// Writer drains quantized frames in order and streams them to an encoder.
// It owns spawning the quantizer goroutine (spec.md §4.5): Write must be
// called exactly once, after every Collector referencing this pipeline has
// been (or will be) closed.
type Writer struct {
	settings Settings
	q1in     *ordqueue.Iterator[*rawFrame]
}

// Write runs the quantizer on a dedicated goroutine and the writer loop on
// the calling goroutine, joining the quantizer before returning. The first
// error observed by either side is returned; the other side's error, if
// any, is discarded (spec.md §4.5, §7).
func (w *Writer) Write(out io.Writer, reporter progress.Reporter) error {
	if reporter == nil {
		reporter = progress.Nop()
	}

	_, producer2, iter2 := ordqueue.New[*giffedFrame](queueCapacity)

	quantizeErrCh := make(chan error, 1)
	go func() {
		defer producer2.Close()
		quantizeErrCh <- runQuantizer(w.settings, w.q1in, producer2)
	}()

	writeErr := w.writeLoop(iter2, out, reporter)
	if writeErr != nil {
		// Abandon Q2 so the quantizer's next Push observes ErrReceiverGone
		// and unwinds instead of blocking forever (spec.md §5 cancellation).
		iter2.Close()
	}

	quantizeErr := <-quantizeErrCh

	// The quantizer is upstream of the writer, so when both sides observe a
	// failure its error is almost always the root cause (e.g. a dimension
	// mismatch means the writer just sees end-of-stream with zero frames
	// written); prefer it over whatever the writer concluded from that. The
	// exception is ErrReceiverGone, which the quantizer only sees because the
	// writer failed first and abandoned Q2: then the writer's error wins.
	if quantizeErr != nil && !(writeErr != nil && errors.Is(quantizeErr, ordqueue.ErrReceiverGone)) {
		return quantizeErr
	}
	return writeErr
}

func (w *Writer) writeLoop(in *ordqueue.Iterator[*giffedFrame], out io.Writer, reporter progress.Reporter) error {
	var enc *gifenc.Encoder
	count := 0

	for {
		frame, ok := in.Next()
		if !ok {
			break
		}

		if enc == nil {
			e, err := gifenc.New(out, uint16(frame.width), uint16(frame.height), nil)
			if err != nil {
				return errors.Wrap(err, "gifenc: open")
			}
			enc = e
			if !w.settings.Once {
				if err := enc.WriteLoopExtension(0); err != nil {
					return errors.Wrap(err, "gifenc: loop extension")
				}
			}
		}

		var transparent *uint8
		if frame.transparent >= 0 {
			t := uint8(frame.transparent)
			transparent = &t
		}

		err := enc.WriteFrame(&gifenc.Frame{
			Delay:       frame.delay,
			Disposal:    gifenc.DisposalKeep,
			Transparent: transparent,
			Width:       uint16(frame.width),
			Height:      uint16(frame.height),
			Palette:     frame.palette,
			Buffer:      frame.indices,
		})
		if err != nil {
			return errors.Wrap(err, "gifenc: write frame")
		}

		reporter.Increase()
		count++
	}

	if enc == nil {
		return errors.New("Found no usable frames to encode")
	}

	log.Debug().Int("frames", count).Msg("gif written")
	return enc.Close()
}
