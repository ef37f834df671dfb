package cmd

import (
	"fmt"

	"github.com/Kawdoor/aizer/internal/cli/output"
	"github.com/spf13/cobra"
)

var invitesCmd = &cobra.Command{
	Use:   "invites",
	Short: "List invitations waiting for your answer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		invites, err := apiClient.Invitations(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), invites)
			return nil
		}
		output.InvitationTable(out(cmd), invites)
		return nil
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept <group-id>",
	Short: "Accept an invitation and select the group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := parseID(args[0], "group")
		if err != nil {
			return err
		}

		if err := apiClient.AcceptInvitation(cmd.Context(), groupID); err != nil {
			return err
		}
		if err := selectGroup(groupID); err != nil {
			return err
		}
		fmt.Fprintln(out(cmd), "Invitation accepted.")
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <group-id>",
	Short: "Decline an invitation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := parseID(args[0], "group")
		if err != nil {
			return err
		}

		if err := apiClient.RejectInvitation(cmd.Context(), groupID); err != nil {
			return err
		}
		fmt.Fprintln(out(cmd), "Invitation declined.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(invitesCmd, acceptCmd, rejectCmd)
}
