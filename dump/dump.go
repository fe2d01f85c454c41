// Package dump writes every tuple of a list file, using a cursor to scan it.
package dump

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/listscan/cursor"
	"github.com/leftmike/listscan/sql"
)

type Format int

const (
	Table Format = iota
	Lines
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table":
		return Table, nil
	case "lines":
		return Lines, nil
	}
	return 0, fmt.Errorf("dump: unknown format: %s", s)
}

// Header returns a column heading for each column of the cursor.
func Header(c *cursor.Cursor) []string {
	doms := c.Domains()
	hdr := make([]string, 0, len(doms))
	for cdx, dom := range doms {
		hdr = append(hdr, fmt.Sprintf("c%d %s", cdx, dom))
	}
	return hdr
}

func formatValue(v cursor.Value, raw bool) string {
	val, err := v.Get()
	if err != nil {
		return err.Error()
	}
	if raw {
		if s, ok := val.(sql.StringValue); ok {
			return string(s)
		}
	}
	return sql.Format(val)
}

// List moves c to the first tuple and then to each following tuple, writing their values
// to w. It returns the number of tuples written; the cursor is left after the last tuple.
func List(ctx context.Context, w io.Writer, c *cursor.Cursor, f Format) (int, error) {
	prev := c.SetCopyMode(false)
	defer c.SetCopyMode(prev)

	var tw *tablewriter.Table
	if f == Table {
		tw = tablewriter.NewWriter(w)
		tw.SetAutoFormatHeaders(false)
		tw.SetAutoWrapText(false)
		tw.SetHeader(append([]string{"#"}, Header(c)...))
	}

	var cnt int
	row := make([]string, c.ColumnCount())
	err := c.First(ctx)
	for err == nil {
		var vals []cursor.Value
		vals, err = c.GetValueList(c.ColumnCount())
		if err != nil {
			return cnt, err
		}

		for vdx, v := range vals {
			row[vdx] = formatValue(v, f == Table)
		}
		if f == Table {
			tw.Append(append([]string{fmt.Sprintf("%d", c.TupleNo())}, row...))
		} else {
			fmt.Fprintf(w, "%d: %s\n", c.TupleNo(), strings.Join(row, ", "))
		}
		cnt += 1

		err = c.Next(ctx)
	}
	if err != io.EOF {
		return cnt, err
	}

	if f == Table {
		tw.Render()
	}
	fmt.Fprintf(w, "(%d tuples)\n", cnt)

	log.WithFields(log.Fields{
		"tuples": cnt,
		"stats":  fmt.Sprintf("%+v", c.Stats()),
	}).Debug("dump: listed")
	return cnt, nil
}
