package cursor

import (
	"fmt"

	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

// Value is one value of a tuple. A value returned when the cursor is not in copy mode
// may refer to the cursor's memory: it is borrowed, and once the cursor moves or is closed,
// Get returns ErrValueInvalidated.
type Value struct {
	dom sql.Domain
	val sql.Value
	c   *Cursor
	gen uint64
}

func (v Value) Domain() sql.Domain {
	return v.dom
}

// IsNull returns true if the value was unbound.
func (v Value) IsNull() bool {
	return v.val == nil
}

func (v Value) IsBorrowed() bool {
	return v.c != nil
}

func (v Value) valid() bool {
	return v.c == nil || (!v.c.closed && v.c.gen == v.gen)
}

// Get returns the value; nil is NULL.
func (v Value) Get() (sql.Value, error) {
	if !v.valid() {
		return nil, ErrValueInvalidated
	}
	return v.val, nil
}

func (v Value) String() string {
	if !v.valid() {
		return "<invalidated>"
	}
	return sql.Format(v.val)
}

// GetValue decodes the value at column idx of the current tuple. Values are decoded in
// place; the position of the last value found is remembered so that getting values in
// column order does not rescan the tuple.
func (c *Cursor) GetValue(idx int) (Value, error) {
	if c == nil {
		return Value{}, ErrNilCursor
	}
	if c.closed {
		return Value{}, ErrClosed
	}
	if idx < 0 || idx >= len(c.lid.TypeList) {
		return Value{}, fmt.Errorf("%w: %d of %d columns", ErrInvalidIndex, idx,
			len(c.lid.TypeList))
	}
	if c.pos != OnTuple || c.tuple == nil {
		return Value{}, ErrNotOnTuple
	}

	vdx := 0
	off := page.TupleHeaderSize
	if c.valIdx >= 0 && c.valIdx <= idx {
		assertf(c.valOff >= page.TupleHeaderSize && c.valOff <= len(c.tuple),
			"value %d offset %d in tuple of %d bytes", c.valIdx, c.valOff, len(c.tuple))
		vdx = c.valIdx
		off = c.valOff
	}

	r := &c.reader
	r.Reset(c.tuple, off)
	for ; vdx < idx; vdx++ {
		_, n, err := page.ReadValueHeader(r)
		if err == nil {
			err = r.Advance(n)
		}
		if err != nil {
			return Value{}, fmt.Errorf("cursor: tuple %d: value %d: %w", c.tupleNo, vdx, err)
		}
	}
	c.valIdx = idx
	c.valOff = r.Offset()

	dom := c.lid.TypeList[idx]
	flag, n, err := page.ReadValueHeader(r)
	if err != nil {
		return Value{}, fmt.Errorf("cursor: tuple %d: value %d: %w", c.tupleNo, idx, err)
	}
	if flag == page.Unbound {
		return Value{dom: dom}, nil
	}
	b, err := r.Bytes(n)
	if err != nil {
		return Value{}, fmt.Errorf("cursor: tuple %d: value %d: %w", c.tupleNo, idx, err)
	}

	val, err := c.codec.DecodeValue(dom, b, c.copyMode)
	if err != nil {
		return Value{}, fmt.Errorf("cursor: tuple %d: value %d: %w", c.tupleNo, idx, err)
	}
	if c.copyMode {
		return Value{dom: dom, val: val}, nil
	}
	return Value{dom: dom, val: val, c: c, gen: c.gen}, nil
}

// GetValueList decodes the first n values of the current tuple in column order; n should
// be the number of columns.
func (c *Cursor) GetValueList(n int) ([]Value, error) {
	if c == nil {
		return nil, ErrNilCursor
	}
	if c.closed {
		return nil, ErrClosed
	}
	if n < 0 || n > len(c.lid.TypeList) {
		return nil, fmt.Errorf("%w: %d values of %d columns", ErrInvalidIndex, n,
			len(c.lid.TypeList))
	}
	if c.pos != OnTuple || c.tuple == nil {
		return nil, ErrNotOnTuple
	}

	vals := make([]Value, 0, n)
	for idx := 0; idx < n; idx++ {
		v, err := c.GetValue(idx)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// Row returns the values of the current tuple as sql.Values, copying them; unbound values
// are nil.
func (c *Cursor) Row() ([]sql.Value, error) {
	if c == nil {
		return nil, ErrNilCursor
	}
	if c.closed {
		return nil, ErrClosed
	}

	prev := c.SetCopyMode(true)
	defer c.SetCopyMode(prev)

	vals, err := c.GetValueList(len(c.lid.TypeList))
	if err != nil {
		return nil, err
	}
	row := make([]sql.Value, 0, len(vals))
	for _, v := range vals {
		row = append(row, v.val)
	}
	return row, nil
}
