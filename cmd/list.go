package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the list files in the store",
		Args:  cobra.NoArgs,
		RunE:  listRun,
	}
	initStoreFlags(listCmd.Flags())

	listscanCmd.AddCommand(listCmd)
}

func listRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	lids, err := st.ListFiles(context.Background())
	if err != nil {
		return fmt.Errorf("listscan: %s", err)
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader([]string{"file", "query", "columns", "tuples", "first", "last"})
	for _, lid := range lids {
		cols := make([]string, 0, len(lid.TypeList))
		for _, dom := range lid.TypeList {
			cols = append(cols, dom.String())
		}
		tw.Append([]string{
			lid.FileID.String(),
			strconv.FormatUint(lid.QueryID, 10),
			strings.Join(cols, ", "),
			strconv.Itoa(lid.TupleCount),
			lid.FirstVPID.String(),
			lid.LastVPID.String(),
		})
	}
	tw.Render()
	fmt.Printf("(%d list files)\n", len(lids))
	return nil
}
