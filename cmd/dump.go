package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leftmike/listscan/dump"
)

var (
	dumpFormat = "table"
)

func init() {
	dumpCmd := &cobra.Command{
		Use:   "dump [flags] file-id",
		Short: "Print every tuple of a list file",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpRun,
	}

	fs := dumpCmd.Flags()
	initCursorFlags(fs)
	fs.StringVar(&dumpFormat, "format", dumpFormat, "output format: table or lines")

	listscanCmd.AddCommand(dumpCmd)
}

func dumpRun(cmd *cobra.Command, args []string) error {
	f, err := dump.ParseFormat(dumpFormat)
	if err != nil {
		return err
	}

	c, err := openCursor(args[0])
	if err != nil {
		return err
	}
	defer c.Close()

	_, err = dump.List(context.Background(), os.Stdout, c, f)
	if err != nil {
		return fmt.Errorf("listscan: %s", err)
	}
	return nil
}
