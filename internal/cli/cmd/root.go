package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Kawdoor/aizer/internal/cli/api"
	"github.com/Kawdoor/aizer/internal/cli/config"
	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagServerURL string
	flagGroup     string

	cfg       *config.Config
	apiClient *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "aizer",
	Short: "aizer CLI: track what is stored where, from the terminal",
	Long: `aizer keeps a shared inventory of spaces, the inventories inside them,
and the items inside those.

Get started:
  aizer login --email you@example.com     Sign in
  aizer group create "Home"               Create a group and select it
  aizer space create Garage               Add a space to the selected group
  aizer tree                              Show everything in the group
  aizer shell                             Browse interactively`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		apiClient = api.NewClient(cfg.ServerURL, cfg.AccessToken, cfg.RefreshToken)
		apiClient.OnRefresh = func(s *identity.Session) error {
			cfg.AccessToken = s.AccessToken
			cfg.RefreshToken = s.RefreshToken
			return config.Save(cfg)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVarP(&flagGroup, "group", "g", "", "Group id to act on (default: the selected group)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		return err
	}
	return nil
}

// describe turns classified errors into the text a user should see.
func describe(err error) string {
	switch failure.KindOf(err) {
	case failure.KindAuthExpired:
		return failure.Message(err) + ` (run "aizer login")`
	case failure.KindTransient:
		var fe *failure.Error
		if errors.As(err, &fe) && fe.Message == "" && fe.Err != nil {
			return "failed to reach the server: " + fe.Err.Error()
		}
		return err.Error()
	default:
		return failure.Message(err)
	}
}

func requireAuth() error {
	if cfg == nil || !cfg.HasToken() {
		return fmt.Errorf("not signed in, run \"aizer login\" first")
	}
	return nil
}

// currentGroup returns the --group flag or the selected group.
func currentGroup() (uuid.UUID, error) {
	if flagGroup != "" {
		return parseID(flagGroup, "group")
	}
	if cfg == nil || cfg.GroupID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no group selected, run \"aizer group use <id>\" or pass --group")
	}
	return cfg.GroupID, nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
