// Package gifenc is a streaming GIF89a encoder: frames are written one at a
// time as they become available, rather than all at once the way the
// standard library's image/gif.EncodeAll requires. That incremental shape
// is exactly what the Writer stage (spec.md §4.4) needs, and exactly what
// image/gif does not expose.
//
// The encoder follows a "compute size, then write header, then write body"
// discipline for each chunk-like section, applied here to GIF's
// length-prefixed sub-blocks instead of a CRC'd chunk format, alongside
// byte-level GIF89a framing: logical screen descriptor, color tables,
// graphic control extension, image descriptor, LZW sub-blocks, and the
// NETSCAPE2.0 loop extension.
package gifenc

import (
	"bufio"
	"compress/lzw"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

// DisposalMethod mirrors the GIF89a graphic control extension's disposal
// field. The core pipeline only ever uses Keep.
type DisposalMethod uint8

const (
	DisposalUnspecified DisposalMethod = 0
	DisposalKeep        DisposalMethod = 1
	DisposalBackground  DisposalMethod = 2
	DisposalPrevious    DisposalMethod = 3
)

// Frame is one animation frame as the Writer stage hands it to the
// encoder: a local palette, a disposal method, an optional transparent
// index, and the index buffer.
type Frame struct {
	Delay          uint16 // centiseconds
	Disposal       DisposalMethod
	Transparent    *uint8 // nil means no transparent color in this frame
	NeedsUserInput bool
	Top, Left      uint16
	Width, Height  uint16
	Interlaced     bool
	Palette        color.Palette
	Buffer         []byte // Width*Height indices into Palette, row-major
}

// Encoder writes a single GIF89a stream incrementally: construct with New,
// optionally WriteLoopExtension before the first frame, then WriteFrame
// once per frame, and Close when done.
type Encoder struct {
	w      *bufio.Writer
	width  uint16
	height uint16
	closed bool
}

// New writes the GIF header and logical screen descriptor and returns an
// Encoder ready for frames. globalPalette is written as the global color
// table when non-empty; gifski's core pipeline always passes an empty one,
// since every frame carries its own locally-quantized palette.
func New(w io.Writer, width, height uint16, globalPalette color.Palette) (*Encoder, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("GIF89a"); err != nil {
		return nil, errors.Wrap(err, "gifenc: write header")
	}
	if err := writeUint16(bw, width); err != nil {
		return nil, errors.Wrap(err, "gifenc: write screen width")
	}
	if err := writeUint16(bw, height); err != nil {
		return nil, errors.Wrap(err, "gifenc: write screen height")
	}

	if len(globalPalette) > 0 {
		size := log2Ceil(len(globalPalette))
		if err := bw.WriteByte(0x80 | byte(size-1)); err != nil {
			return nil, err
		}
		bw.WriteByte(0) // background color index
		bw.WriteByte(0) // pixel aspect ratio
		if err := writeColorTable(bw, globalPalette, 1<<uint(size)); err != nil {
			return nil, errors.Wrap(err, "gifenc: write global color table")
		}
	} else {
		bw.WriteByte(0) // no global color table
		bw.WriteByte(0) // background color index
		bw.WriteByte(0) // pixel aspect ratio
	}

	return &Encoder{w: bw, width: width, height: height}, nil
}

// WriteLoopExtension writes a NETSCAPE2.0 application extension requesting
// the animation loop `repeat` times (0 means loop forever). Must be called
// before the first WriteFrame, if at all.
func (e *Encoder) WriteLoopExtension(repeat uint16) error {
	e.w.WriteByte(0x21) // extension introducer
	e.w.WriteByte(0xFF) // application extension label
	e.w.WriteByte(0x0B) // block size
	if _, err := e.w.WriteString("NETSCAPE2.0"); err != nil {
		return errors.Wrap(err, "gifenc: write application identifier")
	}
	e.w.WriteByte(0x03) // sub-block size
	e.w.WriteByte(0x01) // loop sub-block id
	if err := writeUint16(e.w, repeat); err != nil {
		return err
	}
	return e.w.WriteByte(0x00) // block terminator
}

// WriteFrame appends one animation frame: a graphic control extension
// (disposal, transparency, delay), an image descriptor with a local color
// table, and LZW-compressed indices.
func (e *Encoder) WriteFrame(f *Frame) error {
	if len(f.Palette) == 0 {
		return errors.New("gifenc: frame has empty palette")
	}
	if len(f.Buffer) != int(f.Width)*int(f.Height) {
		return errors.Errorf("gifenc: buffer length %d does not match %dx%d", len(f.Buffer), f.Width, f.Height)
	}

	if err := e.writeGraphicControlExtension(f); err != nil {
		return err
	}
	if err := e.writeImageDescriptor(f); err != nil {
		return err
	}
	return e.writeImageData(f)
}

func (e *Encoder) writeGraphicControlExtension(f *Frame) error {
	e.w.WriteByte(0x21) // extension introducer
	e.w.WriteByte(0xF9) // graphic control label
	e.w.WriteByte(0x04) // block size

	var packed byte
	packed |= byte(f.Disposal&0x7) << 2
	if f.NeedsUserInput {
		packed |= 0x02
	}
	if f.Transparent != nil {
		packed |= 0x01
	}
	e.w.WriteByte(packed)

	if err := writeUint16(e.w, f.Delay); err != nil {
		return err
	}
	if f.Transparent != nil {
		e.w.WriteByte(*f.Transparent)
	} else {
		e.w.WriteByte(0)
	}
	return e.w.WriteByte(0x00) // block terminator
}

func (e *Encoder) writeImageDescriptor(f *Frame) error {
	e.w.WriteByte(0x2C) // image separator
	if err := writeUint16(e.w, f.Left); err != nil {
		return err
	}
	if err := writeUint16(e.w, f.Top); err != nil {
		return err
	}
	if err := writeUint16(e.w, f.Width); err != nil {
		return err
	}
	if err := writeUint16(e.w, f.Height); err != nil {
		return err
	}

	size := log2Ceil(len(f.Palette))
	var packed byte = 0x80 | byte(size-1) // local color table present
	if f.Interlaced {
		packed |= 0x40
	}
	e.w.WriteByte(packed)

	return writeColorTable(e.w, f.Palette, 1<<uint(size))
}

func (e *Encoder) writeImageData(f *Frame) error {
	litWidth := log2Ceil(len(f.Palette))
	if litWidth < 2 {
		litWidth = 2
	}
	if err := e.w.WriteByte(byte(litWidth)); err != nil {
		return err
	}

	bw := &blockWriter{w: e.w}
	lzww := lzw.NewWriter(bw, lzw.LSB, litWidth)
	if _, err := lzww.Write(f.Buffer); err != nil {
		lzww.Close()
		return errors.Wrap(err, "gifenc: lzw encode")
	}
	if err := lzww.Close(); err != nil {
		return errors.Wrap(err, "gifenc: lzw close")
	}
	if err := bw.close(); err != nil {
		return err
	}
	return e.w.WriteByte(0x00) // block terminator
}

func writeColorTable(w io.Writer, p color.Palette, paddedSize int) error {
	for i := 0; i < paddedSize; i++ {
		if i < len(p) {
			c := color.NRGBAModel.Convert(p[i]).(color.NRGBA)
			if _, err := w.Write([]byte{c.R, c.G, c.B}); err != nil {
				return err
			}
		} else {
			if _, err := w.Write([]byte{0, 0, 0}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes the GIF trailer and flushes the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.w.WriteByte(0x3B); err != nil {
		return err
	}
	return e.w.Flush()
}
