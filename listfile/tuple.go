package listfile

import (
	"fmt"

	"github.com/leftmike/listscan/encode"
	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

// EncodeTuple encodes vals, one per column of types, as a tuple; nil values are unbound.
// The length of the previous tuple is left as zero.
func EncodeTuple(types []sql.Domain, vals []sql.Value) ([]byte, error) {
	if len(vals) != len(types) {
		return nil, fmt.Errorf("listfile: got %d values want %d", len(vals), len(types))
	}

	buf := make([]byte, page.TupleHeaderSize, page.TupleHeaderSize+len(types)*16)
	for cdx, v := range vals {
		if v == nil {
			buf = page.AppendValueHeader(buf, page.Unbound, 0)
			continue
		}

		hdr := len(buf)
		buf = page.AppendValueHeader(buf, page.Bound, 0)
		var err error
		buf, err = encode.EncodeValue(buf, types[cdx], v)
		if err != nil {
			return nil, fmt.Errorf("listfile: column %d: %w", cdx, err)
		}
		encode.FromInt32(hdr+4, buf, int32(len(buf)-hdr-page.ValueHeaderSize))
	}

	page.PutTupleHeader(buf, 0, len(buf), 0)
	return buf, nil
}

// DecodeTuple decodes all of the values of a complete tuple; unbound values are nil.
func DecodeTuple(types []sql.Domain, tuple []byte) ([]sql.Value, error) {
	if len(tuple) < page.TupleHeaderSize {
		return nil, fmt.Errorf("listfile: short tuple: %d bytes", len(tuple))
	}
	length := page.TupleLength(tuple, 0)
	if length > len(tuple) || length < page.TupleHeaderSize {
		return nil, fmt.Errorf("listfile: bad tuple length: %d with %d bytes", length,
			len(tuple))
	}

	r := encode.NewReader(tuple[:length])
	err := r.Advance(page.TupleHeaderSize)
	if err != nil {
		return nil, err
	}

	vals := make([]sql.Value, 0, len(types))
	for cdx, dom := range types {
		flag, n, err := page.ReadValueHeader(r)
		if err != nil {
			return nil, fmt.Errorf("listfile: column %d: %w", cdx, err)
		}
		if flag == page.Unbound {
			vals = append(vals, nil)
			continue
		}
		b, err := r.Bytes(n)
		if err != nil {
			return nil, fmt.Errorf("listfile: column %d: %w", cdx, err)
		}
		v, err := encode.DecodeValue(dom, b, true)
		if err != nil {
			return nil, fmt.Errorf("listfile: column %d: %w", cdx, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
