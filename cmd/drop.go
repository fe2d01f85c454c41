package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	dropCmd := &cobra.Command{
		Use:   "drop [flags] file-id ...",
		Short: "Remove list files from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE:  dropRun,
	}
	initStoreFlags(dropCmd.Flags())

	listscanCmd.AddCommand(dropCmd)
}

func dropRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	for _, arg := range args {
		fileID, err := uuid.Parse(arg)
		if err != nil {
			return fmt.Errorf("listscan: file id: %s", err)
		}
		err = st.DropFile(context.Background(), fileID)
		if err != nil {
			return fmt.Errorf("listscan: %s: %w", fileID, err)
		}
	}
	return nil
}
