package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Kawdoor/aizer/internal/cli/config"
	"github.com/Kawdoor/aizer/internal/cli/shell"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse and edit the selected group interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		session := shell.New(apiClient, groupID, out(cmd))
		defer session.Close()

		rlConfig := &readline.Config{
			Prompt:          session.Prompt(),
			AutoComplete:    session.Completer(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		}
		if p, err := config.Path(); err == nil {
			rlConfig.HistoryFile = filepath.Join(filepath.Dir(p), "history")
		}

		rl, err := readline.NewEx(rlConfig)
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		defer rl.Close()

		session.Out = rl.Stdout()
		fmt.Fprintln(session.Out, `Type "help" for commands.`)
		return session.Run(cmd.Context(), rl)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
