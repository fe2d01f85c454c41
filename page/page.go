// Package page describes the binary layout of list file pages.
//
// A page is Size bytes: a HeaderSize byte header followed by tuples. Each tuple starts
// with a TupleHeaderSize byte header (the length of the tuple, including the header, and
// the length of the previous tuple on the page) and is followed by one value per column;
// each value is a ValueHeaderSize byte header (bound flag and length) and then the bytes
// of the value. All numbers are little endian.
//
// A tuple which does not fit in MaxTupleSizeInPage bytes continues on overflow pages: the
// page holding the start of the tuple has the address of the first overflow page in its
// header, and each overflow page holds the next piece of the tuple immediately after its
// header and the address of the following overflow page, if any.
package page

import (
	"fmt"

	"github.com/leftmike/listscan/encode"
)

const (
	Size       = 4096
	HeaderSize = 32

	TupleHeaderSize = 8
	ValueHeaderSize = 8

	MaxTupleSizeInPage = Size - HeaderSize

	NullPageID = -1

	tupleCountOffset     = 0
	prevPageIDOffset     = 4
	nextPageIDOffset     = 8
	lastTupleOffset      = 12
	overflowPageIDOffset = 16
	prevVolIDOffset      = 20
	nextVolIDOffset      = 22
	overflowVolIDOffset  = 24

	tupleLengthOffset     = 0
	prevTupleLengthOffset = 4

	valueFlagOffset   = 0
	valueLengthOffset = 4
)

type ValueFlag int32

const (
	Unbound ValueFlag = 0
	Bound   ValueFlag = 1
)

// VPID is the address of a page within a list file.
type VPID struct {
	VolID  int16
	PageID int32
}

var (
	NullVPID = VPID{PageID: NullPageID}
)

func (vpid VPID) IsNull() bool {
	return vpid.PageID == NullPageID
}

func (vpid VPID) String() string {
	if vpid.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d|%d", vpid.VolID, vpid.PageID)
}

// Page is one list file page; it is always Size bytes long.
type Page []byte

// Init clears the page and sets all of the page addresses in the header to null.
func Init(pg Page) {
	for idx := range pg[:HeaderSize] {
		pg[idx] = 0
	}
	SetPrevVPID(pg, NullVPID)
	SetNextVPID(pg, NullVPID)
	SetOverflowVPID(pg, NullVPID)
}

func TupleCount(pg Page) int {
	return int(encode.ToInt32(tupleCountOffset, pg))
}

func SetTupleCount(pg Page, cnt int) {
	encode.FromInt32(tupleCountOffset, pg, int32(cnt))
}

func PrevVPID(pg Page) VPID {
	return VPID{
		VolID:  encode.ToInt16(prevVolIDOffset, pg),
		PageID: encode.ToInt32(prevPageIDOffset, pg),
	}
}

func SetPrevVPID(pg Page, vpid VPID) {
	encode.FromInt16(prevVolIDOffset, pg, vpid.VolID)
	encode.FromInt32(prevPageIDOffset, pg, vpid.PageID)
}

func NextVPID(pg Page) VPID {
	return VPID{
		VolID:  encode.ToInt16(nextVolIDOffset, pg),
		PageID: encode.ToInt32(nextPageIDOffset, pg),
	}
}

func SetNextVPID(pg Page, vpid VPID) {
	encode.FromInt16(nextVolIDOffset, pg, vpid.VolID)
	encode.FromInt32(nextPageIDOffset, pg, vpid.PageID)
}

func OverflowVPID(pg Page) VPID {
	return VPID{
		VolID:  encode.ToInt16(overflowVolIDOffset, pg),
		PageID: encode.ToInt32(overflowPageIDOffset, pg),
	}
}

func SetOverflowVPID(pg Page, vpid VPID) {
	encode.FromInt16(overflowVolIDOffset, pg, vpid.VolID)
	encode.FromInt32(overflowPageIDOffset, pg, vpid.PageID)
}

func LastTupleOffset(pg Page) int {
	return int(encode.ToInt32(lastTupleOffset, pg))
}

func SetLastTupleOffset(pg Page, off int) {
	encode.FromInt32(lastTupleOffset, pg, int32(off))
}

// TupleLength returns the length of the tuple whose header starts at b[off].
func TupleLength(b []byte, off int) int {
	return int(encode.ToInt32(off+tupleLengthOffset, b))
}

// PrevTupleLength returns the length of the tuple before the tuple whose header starts
// at b[off].
func PrevTupleLength(b []byte, off int) int {
	return int(encode.ToInt32(off+prevTupleLengthOffset, b))
}

func PutTupleHeader(b []byte, off, length, prevLength int) {
	encode.FromInt32(off+tupleLengthOffset, b, int32(length))
	encode.FromInt32(off+prevTupleLengthOffset, b, int32(prevLength))
}

func AppendValueHeader(buf []byte, flag ValueFlag, length int) []byte {
	buf = encode.AppendInt32(buf, int32(flag))
	return encode.AppendInt32(buf, int32(length))
}

// ReadValueHeader reads a value header at the reader's cursor and leaves the cursor at the
// start of the value's bytes.
func ReadValueHeader(r *encode.Reader) (ValueFlag, int, error) {
	flag, err := r.Int32()
	if err != nil {
		return 0, 0, err
	}
	length, err := r.Int32()
	if err != nil {
		return 0, 0, err
	}
	if flag != int32(Unbound) && flag != int32(Bound) {
		return 0, 0, fmt.Errorf("page: bad value flag: %d", flag)
	}
	if length < 0 {
		return 0, 0, fmt.Errorf("page: bad value length: %d", length)
	}
	return ValueFlag(flag), int(length), nil
}

// Check verifies that the header of pg is consistent with the tuples it contains.
func Check(pg Page) error {
	if len(pg) != Size {
		return fmt.Errorf("page: got %d bytes want %d", len(pg), Size)
	}

	cnt := TupleCount(pg)
	if cnt < 0 {
		return fmt.Errorf("page: bad tuple count: %d", cnt)
	}
	off := HeaderSize
	last := HeaderSize
	for tdx := 0; tdx < cnt; tdx++ {
		if off+TupleHeaderSize > Size {
			return fmt.Errorf("page: tuple %d at %d past end of page", tdx, off)
		}
		length := TupleLength(pg, off)
		if length < TupleHeaderSize {
			return fmt.Errorf("page: tuple %d at %d: bad length: %d", tdx, off, length)
		}
		last = off
		if off+length > Size {
			if tdx != cnt-1 || OverflowVPID(pg).IsNull() {
				return fmt.Errorf("page: tuple %d at %d: length %d past end of page", tdx, off,
					length)
			}
			break
		}
		off += length
	}
	if cnt > 0 && LastTupleOffset(pg) != last {
		return fmt.Errorf("page: last tuple offset: got %d want %d", LastTupleOffset(pg), last)
	}
	return nil
}
