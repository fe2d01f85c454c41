// Package listfile describes list files, the paged results of queries, and writes them.
package listfile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

// ListID describes one list file.
type ListID struct {
	FileID    uuid.UUID
	QueryID   uint64
	TypeList  []sql.Domain
	FirstVPID page.VPID
	LastVPID  page.VPID
	// TupleCount is the number of logical tuples in the list file.
	TupleCount int
	// LastPage, if not nil, is a copy of the page at LastVPID.
	LastPage []byte
}

func (lid *ListID) String() string {
	return fmt.Sprintf("%s [query %d]: %d columns, %d tuples, pages %s to %s", lid.FileID,
		lid.QueryID, len(lid.TypeList), lid.TupleCount, lid.FirstVPID, lid.LastVPID)
}

func (lid *ListID) IsEmpty() bool {
	return lid.FirstVPID.IsNull()
}

// Clone returns a copy of lid which shares no memory with it.
func (lid *ListID) Clone() *ListID {
	if lid == nil {
		return nil
	}

	c := *lid
	if lid.TypeList != nil {
		c.TypeList = append(make([]sql.Domain, 0, len(lid.TypeList)), lid.TypeList...)
	}
	if lid.LastPage != nil {
		c.LastPage = append(make([]byte, 0, len(lid.LastPage)), lid.LastPage...)
	}
	return &c
}

// Validate checks that lid is well formed.
func (lid *ListID) Validate() error {
	if lid.FirstVPID.IsNull() != lid.LastVPID.IsNull() {
		return fmt.Errorf("listfile: %s: first and last pages must both be null or not null",
			lid.FileID)
	}
	if lid.FirstVPID.IsNull() && lid.TupleCount != 0 {
		return fmt.Errorf("listfile: %s: empty list file with %d tuples", lid.FileID,
			lid.TupleCount)
	}
	if lid.FirstVPID.IsNull() && lid.LastPage != nil {
		return fmt.Errorf("listfile: %s: empty list file with a last page", lid.FileID)
	}
	if lid.TupleCount < 0 {
		return fmt.Errorf("listfile: %s: bad tuple count: %d", lid.FileID, lid.TupleCount)
	}
	for cdx, dom := range lid.TypeList {
		err := dom.Valid()
		if err != nil {
			return fmt.Errorf("listfile: %s: column %d: %w", lid.FileID, cdx, err)
		}
	}
	if lid.LastPage != nil && len(lid.LastPage) != page.Size {
		return fmt.Errorf("listfile: %s: last page: got %d bytes want %d", lid.FileID,
			len(lid.LastPage), page.Size)
	}
	return nil
}
