package cursor

import (
	"context"
	"fmt"

	"github.com/leftmike/listscan/page"
)

// tupleRecord holds a tuple which continues on overflow pages.
type tupleRecord struct {
	buf []byte
}

// reserve returns a slice of length n, reusing the buffer when it is big enough; the
// capacity of the buffer never shrinks.
func (tr *tupleRecord) reserve(n int) []byte {
	if cap(tr.buf) < n {
		tr.buf = make([]byte, n)
	}
	return tr.buf[:n]
}

// reconstruct assembles the current tuple, which starts on the resident page, from its
// overflow pages, and then makes the page holding its start resident again.
func (c *Cursor) reconstruct(ctx context.Context) error {
	head := c.curVPID
	length := c.tupleLen
	tuple := c.record.reserve(length)

	end := c.tupleOff + length
	if end > page.Size {
		end = page.Size
	}
	n := copy(tuple, c.buf[c.tupleOff:end])

	ovfl := page.OverflowVPID(c.buf)
	for !ovfl.IsNull() && n < length {
		err := c.ensurePage(ctx, ovfl)
		if err != nil {
			return err
		}

		chunk := length - n
		if chunk > page.MaxTupleSizeInPage {
			chunk = page.MaxTupleSizeInPage
		}
		n += copy(tuple[n:], c.buf[page.HeaderSize:page.HeaderSize+chunk])
		ovfl = page.OverflowVPID(c.buf)
	}
	if n != length {
		return fmt.Errorf("cursor: overflow tuple at page %s: got %d bytes want %d", head, n,
			length)
	}

	if c.curVPID != head {
		err := c.ensurePage(ctx, head)
		if err != nil {
			return err
		}
	}

	c.tuple = tuple
	c.stats.Reconstructed += 1
	return nil
}
