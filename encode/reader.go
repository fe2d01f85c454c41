package encode

import (
	"errors"
	"fmt"
)

var (
	ErrShortBuffer = errors.New("encode: short buffer")
)

// Reader is a cursor over a byte slice; every read is bounds checked and a failed read
// does not move the cursor.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Reset points the reader at buf and offset off.
func (r *Reader) Reset(buf []byte, off int) {
	r.buf = buf
	r.off = off
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) Remaining() int {
	if r.off >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.off
}

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return fmt.Errorf("encode: seek to %d outside of %d bytes", off, len(r.buf))
	}
	r.off = off
	return nil
}

func (r *Reader) Advance(n int) error {
	if n < 0 || n > r.Remaining() {
		return fmt.Errorf("%w: advance %d with %d remaining", ErrShortBuffer, n, r.Remaining())
	}
	r.off += n
	return nil
}

func (r *Reader) Uint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, fmt.Errorf("%w: read 4 with %d remaining", ErrShortBuffer, r.Remaining())
	}
	v := ToUint32(r.off, r.buf)
	r.off += 4
	return v, nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// PeekInt32 reads an int32 at the cursor without moving it.
func (r *Reader) PeekInt32() (int32, error) {
	if r.Remaining() < 4 {
		return 0, fmt.Errorf("%w: read 4 with %d remaining", ErrShortBuffer, r.Remaining())
	}
	return ToInt32(r.off, r.buf), nil
}

// Bytes returns the next n bytes, aliasing the underlying buffer, and advances past them.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w: read %d with %d remaining", ErrShortBuffer, n,
			r.Remaining())
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}
