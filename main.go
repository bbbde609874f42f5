package main

import (
	"fmt"
	"os"

	"github.com/thiagokokada/gitk-review/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gitk-review: %v\n", err)
		os.Exit(1)
	}
}
