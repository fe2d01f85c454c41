package testutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leftmike/listscan/listfile"
	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

var (
	// Domains are the columns of the rows returned by MakeRows.
	Domains = []sql.Domain{
		sql.Int64Domain,
		sql.StringDomain,
		sql.BoolDomain,
		sql.Float64Domain,
		sql.NumericDomain(10, 2),
		sql.TimestampDomain,
		sql.BytesDomain,
	}

	baseTime = time.Date(2021, 3, 14, 15, 9, 26, 535000, time.UTC)
)

// MakeRows returns n rows of Domains. When big is positive, every big'th row has a string
// long enough to need overflow pages; some of the values are NULL.
func MakeRows(n, big int) [][]sql.Value {
	var rows [][]sql.Value
	for rdx := 0; rdx < n; rdx++ {
		s := fmt.Sprintf("row %d: %s", rdx, strings.Repeat("abcdefghij", rdx%13))
		if big > 0 && rdx%big == big-1 {
			s = fmt.Sprintf("big row %d: %s", rdx,
				strings.Repeat("0123456789", (page.Size*(2+rdx%3))/10))
		}

		row := []sql.Value{
			sql.Int64Value(rdx),
			sql.StringValue(s),
			sql.BoolValue(rdx%2 == 0),
			sql.Float64Value(float64(rdx) / 4),
			sql.NumericValue{Unscaled: int64(rdx*137 - 5000), Scale: 2},
			sql.TimestampValue(baseTime.Add(time.Duration(rdx) * time.Minute)),
			sql.BytesValue([]byte{byte(rdx), byte(rdx >> 8), 0xFF}),
		}
		if rdx%5 == 3 {
			row[3] = nil
		}
		if rdx%7 == 6 {
			row[6] = nil
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteList writes rows to a new list file with a random file id.
func WriteList(ctx context.Context, pw listfile.PageWriter, queryID uint64,
	types []sql.Domain, rows [][]sql.Value) (*listfile.ListID, error) {

	w := listfile.NewWriter(pw, uuid.New(), queryID, types)
	for _, row := range rows {
		err := w.AddTuple(ctx, row)
		if err != nil {
			return nil, err
		}
	}
	return w.Close(ctx)
}
