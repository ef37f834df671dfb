package main

import (
	"os"

	"github.com/Kawdoor/aizer/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
