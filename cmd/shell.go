package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/leftmike/listscan/repl"
)

func init() {
	shellCmd := &cobra.Command{
		Use:   "shell [flags] file-id",
		Short: "Move a cursor over a list file interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  shellRun,
	}
	initCursorFlags(shellCmd.Flags())

	listscanCmd.AddCommand(shellCmd)
}

func shellRun(cmd *cobra.Command, args []string) error {
	c, err := openCursor(args[0])
	if err != nil {
		return err
	}
	defer c.Close()

	return repl.Interact(context.Background(), c)
}
