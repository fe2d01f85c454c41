package cursor

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/listscan/page"
)

// invalidate forgets everything in the area.
func (c *Cursor) invalidate() {
	c.filled = 0
	c.headerVPID = page.NullVPID
	c.curVPID = page.NullVPID
	c.buf = nil
}

// findInArea looks for vpid in the run of pages in the area: the first page of the run is
// at headerVPID and each following page is the overflow page of the page before it, or if
// there is no overflow page, the next page.
func (c *Cursor) findInArea(vpid page.VPID) page.Page {
	if c.filled == 0 {
		return nil
	}
	if vpid == c.headerVPID {
		return page.Page(c.area[:page.Size])
	}

	for off := 0; off+page.Size < c.filled; off += page.Size {
		pg := page.Page(c.area[off : off+page.Size])
		next := page.OverflowVPID(pg)
		if next.IsNull() {
			next = page.NextVPID(pg)
			if next.IsNull() {
				break
			}
		}
		if next == vpid {
			return page.Page(c.area[off+page.Size : off+2*page.Size])
		}
	}
	return nil
}

// ensurePage makes the page at vpid the resident page, fetching it only if it is not the
// cached last page of the list file and not already in the area.
func (c *Cursor) ensurePage(ctx context.Context, vpid page.VPID) error {
	if c.buf != nil && vpid == c.curVPID {
		return nil
	}
	c.buf = nil

	if vpid == c.lid.LastVPID && c.lid.LastPage != nil {
		copy(c.area[:page.Size], c.lid.LastPage)
		c.filled = page.Size
		c.headerVPID = vpid
		c.buf = page.Page(c.area[:page.Size])
		c.curVPID = vpid
		c.stats.TailHits += 1
		return nil
	}

	if pg := c.findInArea(vpid); pg != nil {
		c.buf = pg
		c.curVPID = vpid
		c.stats.AreaHits += 1
		return nil
	}

	c.stats.Fetches += 1
	n, err := c.pc.FetchPage(ctx, c.lid.FileID, vpid, c.area)
	if err != nil {
		c.invalidate()
		return fmt.Errorf("cursor: fetch page %s: %w", vpid, err)
	}
	if n <= 0 || n%page.Size != 0 || n > len(c.area) {
		c.invalidate()
		return fmt.Errorf("cursor: fetch page %s: got %d bytes for %d byte area", vpid, n,
			len(c.area))
	}

	log.WithFields(log.Fields{
		"file":  c.lid.FileID,
		"page":  vpid,
		"pages": n / page.Size,
	}).Trace("cursor: fetched page")

	c.filled = n
	c.headerVPID = vpid
	c.buf = page.Page(c.area[:page.Size])
	c.curVPID = vpid
	return nil
}
