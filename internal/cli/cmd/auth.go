package cmd

import (
	"fmt"
	"strings"

	"github.com/Kawdoor/aizer/internal/cli/config"
	"github.com/Kawdoor/aizer/internal/cli/output"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var (
	flagEmail       string
	flagPassword    string
	flagDisplayName string
	flagAccentColor string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your aizer server",
	Long: `Sign in with email and password. Missing values are prompted for.

  aizer login --email ada@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials()
		if err != nil {
			return err
		}

		session, err := apiClient.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		return adoptSession(cmd, session)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials()
		if err != nil {
			return err
		}
		name := flagDisplayName
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}

		session, err := apiClient.Register(cmd.Context(), email, password, name)
		if err != nil {
			return err
		}
		return adoptSession(cmd, session)
	},
}

func credentials() (string, string, error) {
	email := strings.TrimSpace(flagEmail)
	if email == "" {
		line, err := readline.Line("Email: ")
		if err != nil {
			return "", "", fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	password := flagPassword
	if password == "" {
		rl, err := readline.New("")
		if err != nil {
			return "", "", fmt.Errorf("opening terminal: %w", err)
		}
		defer rl.Close()
		raw, err := rl.ReadPassword("Password: ")
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = string(raw)
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}

func adoptSession(cmd *cobra.Command, session *identity.Session) error {
	cfg.AccessToken = session.AccessToken
	cfg.RefreshToken = session.RefreshToken
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if flagJSON {
		output.JSON(out(cmd), session.User)
		return nil
	}
	if session.User != nil {
		fmt.Fprintf(out(cmd), "Signed in as %s (%s)\n", session.User.DisplayName, session.User.Email)
	}
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HasToken() {
			// Local tokens are dropped even if this fails.
			if err := apiClient.Logout(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: server sign-out failed:", describe(err))
			}
		}
		cfg.SignOut()
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(out(cmd), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		user, err := apiClient.Me(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), user)
			return nil
		}
		output.UserInfo(out(cmd), *user)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Change your display name or accent color",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if flagDisplayName == "" && flagAccentColor == "" {
			return fmt.Errorf("nothing to change, pass --name or --color")
		}

		user, err := apiClient.UpdateMe(cmd.Context(), optional(flagDisplayName), optional(flagAccentColor))
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), user)
			return nil
		}
		output.UserInfo(out(cmd), *user)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "Account email")
		c.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&flagDisplayName, "name", "", "Display name (default: the part of the email before @)")
	profileCmd.Flags().StringVar(&flagDisplayName, "name", "", "New display name")
	profileCmd.Flags().StringVar(&flagAccentColor, "color", "", "New accent color")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, profileCmd)
}
