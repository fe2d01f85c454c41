package repl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"

	"github.com/leftmike/listscan/cursor"
)

const (
	listscanHistory = ".listscan_history"
)

type linePrompter struct {
	line *liner.State
}

func (lp linePrompter) Prompt(prompt string) (string, error) {
	s, err := lp.line.Prompt(prompt)
	if err == liner.ErrPromptAborted {
		return "", io.EOF
	} else if err != nil {
		return "", err
	}
	lp.line.AppendHistory(s)
	return s, nil
}

// Interact runs commands typed at the console against c.
func Interact(ctx context.Context, c *cursor.Cursor) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	if f, err := os.Open(listscanHistory); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	err := Run(ctx, c, linePrompter{line}, os.Stdout, "listscan> ")

	if f, err := os.Create(listscanHistory); err != nil {
		fmt.Fprintf(os.Stderr, "listscan: error writing history file, %s: %s\n",
			listscanHistory, err)
	} else {
		line.WriteHistory(f)
		f.Close()
	}
	return err
}
