package main

import (
	"os"

	"github.com/leftmike/listscan/cmd"
)

func main() {
	if cmd.Execute() != nil {
		os.Exit(1)
	}
}
