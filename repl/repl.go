// Package repl reads commands which move a cursor over a list file and writes the values
// of the tuples it lands on.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/leftmike/listscan/cursor"
	"github.com/leftmike/listscan/dump"
)

// Prompter returns the next line of input, or io.EOF when there is no more.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

type scanner struct {
	s *bufio.Scanner
}

// NewScanner returns a Prompter which reads lines from r and ignores the prompt.
func NewScanner(r io.Reader) Prompter {
	return scanner{bufio.NewScanner(r)}
}

func (sc scanner) Prompt(prompt string) (string, error) {
	if sc.s.Scan() {
		return sc.s.Text(), nil
	}
	if err := sc.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

type command struct {
	usage string
	fn    func(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error
}

var (
	commands map[string]command
)

func init() {
	commands = map[string]command{
		"next":  {"next [count]", moveCmd((*cursor.Cursor).Next)},
		"prev":  {"prev [count]", moveCmd((*cursor.Cursor).Prev)},
		"first": {"first", moveCmd((*cursor.Cursor).First)},
		"last":  {"last", moveCmd((*cursor.Cursor).Last)},
		"row":   {"row", rowCmd},
		"get":   {"get column ...", getCmd},
		"copy":  {"copy [on|off]", copyCmd},
		"stats": {"stats", statsCmd},
		"dump":  {"dump [table|lines]", dumpCmd},
		"help":  {"help", helpCmd},
	}
}

// Run reads commands from p until it returns io.EOF or the command is quit or exit.
// Errors from commands are written to w.
func Run(ctx context.Context, c *cursor.Cursor, p Prompter, w io.Writer,
	prompt string) error {

	for {
		s, err := p.Prompt(prompt)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		args := strings.Fields(s)
		if len(args) == 0 {
			continue
		}
		nam := strings.ToLower(args[0])
		if nam == "quit" || nam == "exit" {
			return nil
		}

		cmd, ok := commands[nam]
		if !ok {
			fmt.Fprintf(w, "unknown command: %s\n", args[0])
			continue
		}
		err = cmd.fn(ctx, c, w, args[1:])
		if err != nil {
			fmt.Fprintln(w, err)
		}
	}
}

func printTuple(c *cursor.Cursor, w io.Writer) error {
	vals, err := c.GetValueList(c.ColumnCount())
	if err != nil {
		return err
	}
	row := make([]string, 0, len(vals))
	for _, v := range vals {
		row = append(row, v.String())
	}
	fmt.Fprintf(w, "%d: %s\n", c.TupleNo(), strings.Join(row, ", "))
	return nil
}

func moveCmd(move func(c *cursor.Cursor, ctx context.Context) error) func(ctx context.Context,
	c *cursor.Cursor, w io.Writer, args []string) error {

	return func(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
		cnt := 1
		if len(args) > 0 {
			var err error
			cnt, err = strconv.Atoi(args[0])
			if err != nil || cnt < 1 {
				return fmt.Errorf("expected a positive count: %s", args[0])
			}
		}

		var err error
		for ; cnt > 0; cnt-- {
			err = move(c, ctx)
			if err != nil {
				break
			}
		}
		if err == io.EOF {
			fmt.Fprintf(w, "(%s)\n", c.Position())
			return nil
		} else if err != nil {
			return err
		}
		return printTuple(c, w)
	}
}

func rowCmd(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
	return printTuple(c, w)
}

func getCmd(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected a column")
	}
	for _, arg := range args {
		idx, err := strconv.Atoi(strings.TrimPrefix(arg, "c"))
		if err != nil {
			return fmt.Errorf("expected a column: %s", arg)
		}
		v, err := c.GetValue(idx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "c%d %s = %s\n", idx, v.Domain(), v)
	}
	return nil
}

func copyCmd(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			c.SetCopyMode(true)
		case "off":
			c.SetCopyMode(false)
		default:
			return fmt.Errorf("expected on or off: %s", args[0])
		}
	}
	if c.CopyMode() {
		fmt.Fprintln(w, "copy mode on")
	} else {
		fmt.Fprintln(w, "copy mode off")
	}
	return nil
}

func statsCmd(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
	st := c.Stats()
	fmt.Fprintf(w, "fetches %d, tail hits %d, area hits %d, reconstructed %d\n", st.Fetches,
		st.TailHits, st.AreaHits, st.Reconstructed)
	return nil
}

func dumpCmd(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
	f := dump.Table
	if len(args) > 0 {
		var err error
		f, err = dump.ParseFormat(args[0])
		if err != nil {
			return err
		}
	}
	_, err := dump.List(ctx, w, c, f)
	return err
}

func helpCmd(ctx context.Context, c *cursor.Cursor, w io.Writer, args []string) error {
	var usage []string
	for _, cmd := range commands {
		usage = append(usage, cmd.usage)
	}
	usage = append(usage, "quit")
	sort.Strings(usage)
	for _, u := range usage {
		fmt.Fprintln(w, u)
	}
	return nil
}
