package listfile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

// PageWriter stores the pages of list files.
type PageWriter interface {
	WritePage(ctx context.Context, fileID uuid.UUID, vpid page.VPID, buf []byte) error
}

// Writer appends tuples to a new list file. Tuples which do not fit in the space left on
// the current page start a new page; tuples longer than page.MaxTupleSizeInPage continue on
// overflow pages. The current page is written when the next page is started or when the
// writer is closed.
type Writer struct {
	pw      PageWriter
	lid     *ListID
	volID   int16
	nextID  int32
	cur     page.Page
	curVPID page.VPID
	used    int
	prevLen int
	closed  bool
}

func NewWriter(pw PageWriter, fileID uuid.UUID, queryID uint64, types []sql.Domain) *Writer {
	return &Writer{
		pw: pw,
		lid: &ListID{
			FileID:    fileID,
			QueryID:   queryID,
			TypeList:  append(make([]sql.Domain, 0, len(types)), types...),
			FirstVPID: page.NullVPID,
			LastVPID:  page.NullVPID,
		},
		curVPID: page.NullVPID,
	}
}

// SetVolume sets the volume of the pages allocated after it is called.
func (w *Writer) SetVolume(volID int16) {
	w.volID = volID
}

func (w *Writer) allocate() page.VPID {
	vpid := page.VPID{VolID: w.volID, PageID: w.nextID}
	w.nextID += 1
	return vpid
}

func (w *Writer) startPage(ctx context.Context) error {
	vpid := w.allocate()
	if w.cur == nil {
		w.cur = make(page.Page, page.Size)
		w.lid.FirstVPID = vpid
	} else {
		page.SetNextVPID(w.cur, vpid)
		err := w.pw.WritePage(ctx, w.lid.FileID, w.curVPID, w.cur)
		if err != nil {
			return err
		}
	}

	prev := w.curVPID
	page.Init(w.cur)
	page.SetPrevVPID(w.cur, prev)
	for idx := page.HeaderSize; idx < page.Size; idx++ {
		w.cur[idx] = 0
	}
	w.curVPID = vpid
	w.lid.LastVPID = vpid
	w.used = page.HeaderSize
	w.prevLen = 0
	return nil
}

// AddTuple appends vals as a tuple to the list file; nil values are unbound.
func (w *Writer) AddTuple(ctx context.Context, vals []sql.Value) error {
	if w.closed {
		return fmt.Errorf("listfile: %s: writer closed", w.lid.FileID)
	}

	tuple, err := EncodeTuple(w.lid.TypeList, vals)
	if err != nil {
		return err
	}
	return w.addTuple(ctx, tuple)
}

func (w *Writer) addTuple(ctx context.Context, tuple []byte) error {
	if w.cur == nil || len(tuple) > page.Size-w.used {
		if w.cur == nil || page.TupleCount(w.cur) > 0 {
			err := w.startPage(ctx)
			if err != nil {
				return err
			}
		}
	}

	page.PutTupleHeader(tuple, 0, len(tuple), w.prevLen)
	off := w.used
	if len(tuple) <= page.MaxTupleSizeInPage {
		copy(w.cur[off:], tuple)
		w.used += len(tuple)
	} else {
		err := w.addOverflow(ctx, tuple)
		if err != nil {
			return err
		}
		w.used = page.Size
	}

	page.SetTupleCount(w.cur, page.TupleCount(w.cur)+1)
	page.SetLastTupleOffset(w.cur, off)
	w.prevLen = len(tuple)
	w.lid.TupleCount += 1
	return nil
}

func (w *Writer) addOverflow(ctx context.Context, tuple []byte) error {
	copy(w.cur[page.HeaderSize:], tuple[:page.MaxTupleSizeInPage])
	rest := tuple[page.MaxTupleSizeInPage:]

	var vpids []page.VPID
	for n := len(rest); n > 0; n -= page.MaxTupleSizeInPage {
		vpids = append(vpids, w.allocate())
	}
	page.SetOverflowVPID(w.cur, vpids[0])

	log.WithFields(log.Fields{
		"file":   w.lid.FileID,
		"page":   w.curVPID,
		"length": len(tuple),
		"pages":  len(vpids),
	}).Debug("listfile: overflow tuple")

	ovfl := make(page.Page, page.Size)
	for vdx, vpid := range vpids {
		page.Init(ovfl)
		if vdx+1 < len(vpids) {
			page.SetOverflowVPID(ovfl, vpids[vdx+1])
		}
		n := copy(ovfl[page.HeaderSize:], rest)
		for idx := page.HeaderSize + n; idx < page.Size; idx++ {
			ovfl[idx] = 0
		}
		rest = rest[n:]

		err := w.pw.WritePage(ctx, w.lid.FileID, vpid, ovfl)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close writes the last page of the list file and returns its list id, including a copy
// of the last page.
func (w *Writer) Close(ctx context.Context) (*ListID, error) {
	if w.closed {
		return nil, fmt.Errorf("listfile: %s: writer closed", w.lid.FileID)
	}
	w.closed = true

	if w.cur != nil {
		err := w.pw.WritePage(ctx, w.lid.FileID, w.curVPID, w.cur)
		if err != nil {
			return nil, err
		}
		w.lid.LastPage = append(make([]byte, 0, page.Size), w.cur...)
	}

	log.WithFields(log.Fields{
		"file":   w.lid.FileID,
		"query":  w.lid.QueryID,
		"tuples": w.lid.TupleCount,
		"pages":  w.nextID,
	}).Debug("listfile: closed writer")
	return w.lid, nil
}
