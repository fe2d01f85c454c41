// Package cursor scans the tuples of a list file in either direction.
//
// A cursor starts before the first tuple. Next, Prev, First, and Last move it and return
// nil when it is on a tuple, io.EOF when it has moved past either end of the list file,
// and any other error when moving failed; after a failure, the cursor should be closed.
// Values of the current tuple are returned by GetValue and GetValueList.
//
// A cursor keeps an area of a few pages. Pages are fetched from a PageClient into the area
// only when they are not already in it; the client may return the requested page followed
// by the pages which follow it. The last page of a list file, if its list id has a copy,
// is never fetched.
package cursor

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/listscan/encode"
	"github.com/leftmike/listscan/listfile"
	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

const (
	DefaultAreaPages = 4
)

// PageClient fetches the page at vpid of a list file into dst, possibly followed by more
// pages, and returns the number of bytes filled: a multiple of page.Size.
type PageClient interface {
	FetchPage(ctx context.Context, fileID uuid.UUID, vpid page.VPID, dst []byte) (int, error)
}

type Options struct {
	// AreaPages is the number of pages in the area; it defaults to DefaultAreaPages.
	AreaPages int
	// Codec decodes values; it defaults to encode.DefaultCodec.
	Codec encode.Codec
}

type Position int

const (
	BeforeFirst Position = iota
	OnTuple
	AfterLast
)

func (pos Position) String() string {
	switch pos {
	case BeforeFirst:
		return "before first"
	case OnTuple:
		return "on tuple"
	case AfterLast:
		return "after last"
	}
	return fmt.Sprintf("unknown position %d", int(pos))
}

// Stats counts how the pages needed by a cursor were found.
type Stats struct {
	Fetches       int
	TailHits      int
	AreaHits      int
	Reconstructed int
}

type Cursor struct {
	pc       PageClient
	codec    encode.Codec
	lid      *listfile.ListID
	closed   bool
	copyMode bool
	pos      Position
	tupleNo  int
	gen      uint64
	stats    Stats

	area       []byte
	filled     int
	headerVPID page.VPID
	curVPID    page.VPID
	buf        page.Page

	pageTupleCount int
	pageTupleNo    int
	tupleOff       int
	tupleLen       int
	tuple          []byte
	record         tupleRecord

	reader encode.Reader
	valIdx int
	valOff int
}

// Open returns a cursor, positioned before the first tuple, over a copy of lid.
func Open(pc PageClient, lid *listfile.ListID, opts *Options) (*Cursor, error) {
	if pc == nil {
		return nil, fmt.Errorf("cursor: missing page client")
	}
	if lid == nil {
		return nil, fmt.Errorf("cursor: missing list id")
	}
	err := lid.Validate()
	if err != nil {
		return nil, err
	}

	areaPages := DefaultAreaPages
	codec := encode.DefaultCodec
	if opts != nil {
		if opts.AreaPages < 0 {
			return nil, fmt.Errorf("cursor: bad area pages: %d", opts.AreaPages)
		} else if opts.AreaPages > 0 {
			areaPages = opts.AreaPages
		}
		if opts.Codec != nil {
			codec = opts.Codec
		}
	}

	c := &Cursor{
		pc:         pc,
		codec:      codec,
		lid:        lid.Clone(),
		copyMode:   true,
		pos:        BeforeFirst,
		tupleNo:    -1,
		area:       make([]byte, areaPages*page.Size),
		headerVPID: page.NullVPID,
		curVPID:    page.NullVPID,
		valIdx:     -1,
	}

	log.WithFields(log.Fields{
		"file":   c.lid.FileID,
		"query":  c.lid.QueryID,
		"tuples": c.lid.TupleCount,
	}).Debug("cursor: open")
	return c, nil
}

// Close releases the memory held by the cursor; it always returns nil and may be called
// more than once.
func (c *Cursor) Close() error {
	if c == nil || c.closed {
		return nil
	}

	log.WithFields(log.Fields{
		"file":     c.lid.FileID,
		"fetches":  c.stats.Fetches,
		"tailhits": c.stats.TailHits,
		"areahits": c.stats.AreaHits,
	}).Debug("cursor: close")

	c.closed = true
	c.gen += 1
	c.pos = BeforeFirst
	c.tupleNo = -1
	c.area = nil
	c.invalidate()
	c.tuple = nil
	c.record = tupleRecord{}
	c.lid = nil
	c.valIdx = -1
	return nil
}

func (c *Cursor) Position() Position {
	if c == nil {
		return BeforeFirst
	}
	return c.pos
}

// TupleNo returns the logical number of the current tuple: -1 before the first tuple and
// the number of tuples after the last tuple.
func (c *Cursor) TupleNo() int {
	if c == nil {
		return -1
	}
	return c.tupleNo
}

func (c *Cursor) ColumnCount() int {
	if c == nil || c.closed {
		return 0
	}
	return len(c.lid.TypeList)
}

func (c *Cursor) Domains() []sql.Domain {
	if c == nil || c.closed {
		return nil
	}
	return append(make([]sql.Domain, 0, len(c.lid.TypeList)), c.lid.TypeList...)
}

// PageTupleCount returns the number of tuples on the resident page.
func (c *Cursor) PageTupleCount() int {
	if c == nil {
		return 0
	}
	return c.pageTupleCount
}

func (c *Cursor) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.stats
}

func (c *Cursor) CopyMode() bool {
	if c == nil {
		return true
	}
	return c.copyMode
}

// SetCopyMode sets whether values are copied or may refer to the cursor's memory and
// returns the previous mode.
func (c *Cursor) SetCopyMode(copyMode bool) bool {
	if c == nil {
		return true
	}
	prev := c.copyMode
	c.copyMode = copyMode
	return prev
}

// moved invalidates the value position and any borrowed values.
func (c *Cursor) moved() {
	c.valIdx = -1
	c.valOff = 0
	c.tuple = nil
	c.gen += 1
}

// checkMove checks that the cursor may move; a relative move needs the page of the current
// tuple to be resident.
func (c *Cursor) checkMove(relative bool) error {
	if c == nil {
		return ErrNilCursor
	}
	if c.closed {
		return ErrClosed
	}
	if c.lid.QueryID == 0 {
		return ErrNoQuery
	}
	if relative && c.pos == OnTuple && c.buf == nil {
		return fmt.Errorf("%w: tuple %d", ErrNoPage, c.tupleNo)
	}
	c.moved()
	return nil
}

// loadPage makes the page at vpid resident.
func (c *Cursor) loadPage(ctx context.Context, vpid page.VPID) error {
	err := c.ensurePage(ctx, vpid)
	if err != nil {
		return err
	}
	c.pageTupleCount = page.TupleCount(c.buf)
	if c.pageTupleCount < 0 {
		return fmt.Errorf("cursor: page %s: bad tuple count: %d", vpid, c.pageTupleCount)
	}
	return nil
}

// pointTuple makes the tuple at tupleOff on the resident page the current tuple.
func (c *Cursor) pointTuple(ctx context.Context) error {
	assertf(c.buf != nil, "tuple %d without a resident page", c.tupleNo)
	assertf(c.pageTupleNo >= 0 && c.pageTupleNo < c.pageTupleCount,
		"tuple %d of %d on page %s", c.pageTupleNo, c.pageTupleCount, c.curVPID)

	if c.tupleOff < page.HeaderSize || c.tupleOff > page.Size-page.TupleHeaderSize {
		return fmt.Errorf("cursor: page %s: bad tuple offset: %d", c.curVPID, c.tupleOff)
	}
	c.tupleLen = page.TupleLength(c.buf, c.tupleOff)
	if c.tupleLen < page.TupleHeaderSize {
		return fmt.Errorf("cursor: page %s: tuple at %d: bad length: %d", c.curVPID,
			c.tupleOff, c.tupleLen)
	}

	if c.pageTupleNo == c.pageTupleCount-1 && !page.OverflowVPID(c.buf).IsNull() {
		return c.reconstruct(ctx)
	}
	if c.tupleOff+c.tupleLen > page.Size {
		return fmt.Errorf("cursor: page %s: tuple at %d: length %d past end of page",
			c.curVPID, c.tupleOff, c.tupleLen)
	}
	c.tuple = c.buf[c.tupleOff : c.tupleOff+c.tupleLen]
	return nil
}

// landFirst moves to the first tuple of the resident page, or of the first page after it
// which has tuples.
func (c *Cursor) landFirst(ctx context.Context) error {
	for c.pageTupleCount == 0 {
		next := page.NextVPID(c.buf)
		if next.IsNull() {
			c.pos = AfterLast
			c.tupleNo = c.lid.TupleCount
			return io.EOF
		}
		err := c.loadPage(ctx, next)
		if err != nil {
			return err
		}
	}

	c.pos = OnTuple
	c.tupleNo += 1
	c.pageTupleNo = 0
	c.tupleOff = page.HeaderSize
	return c.pointTuple(ctx)
}

// landLast moves to the last tuple of the resident page, or of the first page before it
// which has tuples.
func (c *Cursor) landLast(ctx context.Context) error {
	for c.pageTupleCount == 0 {
		prev := page.PrevVPID(c.buf)
		if prev.IsNull() {
			c.pos = BeforeFirst
			c.tupleNo = -1
			return io.EOF
		}
		err := c.loadPage(ctx, prev)
		if err != nil {
			return err
		}
	}

	c.pos = OnTuple
	c.tupleNo -= 1
	c.pageTupleNo = c.pageTupleCount - 1
	c.tupleOff = page.LastTupleOffset(c.buf)
	return c.pointTuple(ctx)
}

// Next moves to the next tuple.
func (c *Cursor) Next(ctx context.Context) error {
	err := c.checkMove(true)
	if err != nil {
		return err
	}

	switch c.pos {
	case BeforeFirst:
		if c.lid.FirstVPID.IsNull() {
			return io.EOF
		}
		err = c.loadPage(ctx, c.lid.FirstVPID)
		if err != nil {
			return err
		}
		c.tupleNo = -1
		return c.landFirst(ctx)
	case OnTuple:
		if c.pageTupleNo < c.pageTupleCount-1 {
			c.tupleNo += 1
			c.pageTupleNo += 1
			c.tupleOff += c.tupleLen
			return c.pointTuple(ctx)
		}

		next := page.NextVPID(c.buf)
		if next.IsNull() {
			c.pos = AfterLast
			c.tupleNo = c.lid.TupleCount
			return io.EOF
		}
		err = c.loadPage(ctx, next)
		if err != nil {
			return err
		}
		return c.landFirst(ctx)
	case AfterLast:
		return io.EOF
	}

	return fmt.Errorf("%w: %s", ErrBadPosition, c.pos)
}

// Prev moves to the previous tuple.
func (c *Cursor) Prev(ctx context.Context) error {
	err := c.checkMove(true)
	if err != nil {
		return err
	}

	switch c.pos {
	case BeforeFirst:
		return io.EOF
	case OnTuple:
		if c.pageTupleNo > 0 {
			prevLen := page.PrevTupleLength(c.buf, c.tupleOff)
			if prevLen < page.TupleHeaderSize || prevLen > c.tupleOff-page.HeaderSize {
				return fmt.Errorf("cursor: page %s: tuple at %d: bad previous length: %d",
					c.curVPID, c.tupleOff, prevLen)
			}
			c.tupleNo -= 1
			c.pageTupleNo -= 1
			c.tupleOff -= prevLen
			return c.pointTuple(ctx)
		}

		prev := page.PrevVPID(c.buf)
		if prev.IsNull() {
			c.pos = BeforeFirst
			c.tupleNo = -1
			return io.EOF
		}
		err = c.loadPage(ctx, prev)
		if err != nil {
			return err
		}
		return c.landLast(ctx)
	case AfterLast:
		if c.lid.FirstVPID.IsNull() {
			return io.EOF
		}
		err = c.loadPage(ctx, c.lid.LastVPID)
		if err != nil {
			return err
		}
		c.tupleNo = c.lid.TupleCount
		return c.landLast(ctx)
	}

	return fmt.Errorf("%w: %s", ErrBadPosition, c.pos)
}

// First moves to the first tuple from any position.
func (c *Cursor) First(ctx context.Context) error {
	err := c.checkMove(false)
	if err != nil {
		return err
	}

	if c.lid.FirstVPID.IsNull() {
		return io.EOF
	}
	err = c.loadPage(ctx, c.lid.FirstVPID)
	if err != nil {
		return err
	}
	c.tupleNo = -1
	return c.landFirst(ctx)
}

// Last moves to the last tuple from any position.
func (c *Cursor) Last(ctx context.Context) error {
	err := c.checkMove(false)
	if err != nil {
		return err
	}

	if c.lid.FirstVPID.IsNull() {
		return io.EOF
	}
	err = c.loadPage(ctx, c.lid.LastVPID)
	if err != nil {
		return err
	}
	c.tupleNo = c.lid.TupleCount
	return c.landLast(ctx)
}
