package gifenc

import "io"

// writeUint16 writes v little-endian, the byte order GIF uses throughout
// (unlike PNG, which is big-endian).
func writeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	_, err := w.Write(buf[:])
	return err
}

// log2Ceil returns the smallest p such that 2^p >= n, clamped to [1,8],
// the color-table-size field GIF encodes in place of an actual color
// count.
func log2Ceil(n int) int {
	p := 1
	for (1 << uint(p)) < n {
		p++
		if p >= 8 {
			break
		}
	}
	return p
}

// blockWriter turns a continuous byte stream into GIF's length-prefixed
// sub-block format (each sub-block up to 255 data bytes preceded by its own
// length byte, terminated by a zero-length block): compute how much data is
// about to be written and prefix it, capped to a 255-byte block size.
type blockWriter struct {
	w   io.Writer
	buf [256]byte
	n   int
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := copy(b.buf[b.n+1:256], p)
		b.n += n
		p = p[n:]
		total += n
		if b.n == 255 {
			b.buf[0] = 255
			if _, err := b.w.Write(b.buf[:256]); err != nil {
				return total, err
			}
			b.n = 0
		}
	}
	return total, nil
}

// close flushes any partially filled sub-block. It does not write GIF's
// final zero-length terminator block — the caller does that once, after
// the underlying LZW writer has been closed.
func (b *blockWriter) close() error {
	if b.n == 0 {
		return nil
	}
	b.buf[0] = byte(b.n)
	_, err := b.w.Write(b.buf[:b.n+1])
	b.n = 0
	return err
}
