package main

import (
	"fmt"
	"os"

	"github.com/gokatarajesh/livequiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "livequiz:", err)
		os.Exit(1)
	}
}
