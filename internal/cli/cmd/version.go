package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI version, injected at build time:
//
//	go build -ldflags "-X github.com/Kawdoor/aizer/internal/cli/cmd.Version=1.2.3" ./cmd/aizer
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(out(cmd), "aizer %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
