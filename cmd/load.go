package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leftmike/listscan/listfile"
	"github.com/leftmike/listscan/sql"
)

var (
	loadCmd = &cobra.Command{
		Use:   "load [flags] csv-file",
		Short: "Load a CSV file into a new list file",
		Args:  cobra.ExactArgs(1),
		RunE:  loadRun,
	}

	columns    []string
	queryID    uint64 = 1
	volID      int
	nullString = ""
	skipHeader = false
)

func init() {
	fs := loadCmd.Flags()
	initStoreFlags(fs)

	fs.StringArrayVarP(&columns, "column", "c", columns,
		"column `type`, such as int, varchar(20), or numeric(10,2); one per column")
	fs.Uint64Var(&queryID, "query", queryID, "query `id` of the list file; 0 for none")
	fs.IntVar(&volID, "volume", volID, "volume `id` of the pages of the list file")
	fs.StringVar(&nullString, "null", nullString, "`string` which loads as NULL")
	fs.BoolVar(&skipHeader, "header", skipHeader, "skip the first line of the CSV file")

	listscanCmd.AddCommand(loadCmd)
}

func parseColumns(cols []string) ([]sql.Domain, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("listscan: at least one column is required")
	}
	doms := make([]sql.Domain, 0, len(cols))
	for _, col := range cols {
		dom, err := sql.ParseDomain(col)
		if err != nil {
			return nil, fmt.Errorf("listscan: column %s: %s", col, err)
		}
		doms = append(doms, dom)
	}
	return doms, nil
}

// loadCSV adds a tuple to w for each record read from r.
func loadCSV(ctx context.Context, w *listfile.Writer, doms []sql.Domain, r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(doms)
	cr.ReuseRecord = true

	vals := make([]sql.Value, len(doms))
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if line == 1 && skipHeader {
			continue
		}

		for fdx, fld := range rec {
			if fld == nullString {
				vals[fdx] = nil
				continue
			}
			vals[fdx], err = sql.ConvertValue(doms[fdx], sql.StringValue(fld))
			if err != nil {
				return fmt.Errorf("line %d: column %d: %s", line, fdx, err)
			}
		}
		err = w.AddTuple(ctx, vals)
		if err != nil {
			return fmt.Errorf("line %d: %s", line, err)
		}
	}
}

func loadRun(cmd *cobra.Command, args []string) error {
	doms, err := parseColumns(columns)
	if err != nil {
		return err
	}
	if volID < math.MinInt16 || volID > math.MaxInt16 {
		return fmt.Errorf("listscan: volume out of range: %d", volID)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("listscan: %s", err)
	}
	defer f.Close()

	st, err := openStore()
	if err != nil {
		return err
	}

	ctx := context.Background()
	w := listfile.NewWriter(st, uuid.New(), queryID, doms)
	w.SetVolume(int16(volID))
	err = loadCSV(ctx, w, doms, f)
	if err != nil {
		return fmt.Errorf("listscan: %s: %s", args[0], err)
	}
	lid, err := w.Close(ctx)
	if err != nil {
		return fmt.Errorf("listscan: %s", err)
	}
	err = st.SaveListID(ctx, lid)
	if err != nil {
		return fmt.Errorf("listscan: %s", err)
	}

	log.WithFields(log.Fields{
		"file":   lid.FileID,
		"csv":    args[0],
		"tuples": lid.TupleCount,
	}).Info("listscan: loaded")
	fmt.Println(lid.FileID)
	return nil
}
