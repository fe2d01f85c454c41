package testutil

import (
	"strings"

	"github.com/andreyvit/diff"

	"github.com/leftmike/listscan/sql"
)

// FormatRows formats each row on its own line with the values separated by commas.
func FormatRows(rows [][]sql.Value) string {
	var b strings.Builder
	for _, row := range rows {
		for vdx, v := range row {
			if vdx > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sql.Format(v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// EqualRows compares two sets of rows value by value; if they are not equal, it also
// returns a line diff of the formatted rows.
func EqualRows(got, want [][]sql.Value) (bool, string) {
	eq := len(got) == len(want)
	for rdx := 0; eq && rdx < len(got); rdx++ {
		eq = EqualRow(got[rdx], want[rdx])
	}
	if eq {
		return true, ""
	}
	return false, diff.LineDiff(FormatRows(want), FormatRows(got))
}

func EqualRow(got, want []sql.Value) bool {
	if len(got) != len(want) {
		return false
	}
	for vdx := range got {
		if (got[vdx] == nil) != (want[vdx] == nil) || sql.Compare(got[vdx], want[vdx]) != 0 {
			return false
		}
	}
	return true
}
