package cmd

import (
	"fmt"

	"github.com/Kawdoor/aizer/internal/cli/config"
	"github.com/Kawdoor/aizer/internal/cli/output"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagDescription string
	flagForce       bool
	flagRole        string
	flagNoSelect    bool
	flagPage        int
	flagLimit       int
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the groups you belong to",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		groups, err := apiClient.Groups(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), groups)
			return nil
		}
		output.GroupTable(out(cmd), groups, cfg.GroupID)
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Create, select, rename or delete a group",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group you own and select it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		group, err := apiClient.CreateGroup(cmd.Context(), args[0], optional(flagDescription))
		if err != nil {
			return err
		}
		if !flagNoSelect {
			if err := selectGroup(group.ID); err != nil {
				return err
			}
		}

		if flagJSON {
			output.JSON(out(cmd), group)
			return nil
		}
		fmt.Fprintf(out(cmd), "Created group %s (%s)\n", group.Name, group.ID)
		return nil
	},
}

var groupShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a group and your role in it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := groupArg(args)
		if err != nil {
			return err
		}

		group, err := apiClient.Group(cmd.Context(), groupID)
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), group)
			return nil
		}
		output.GroupDetail(out(cmd), *group)
		return nil
	},
}

var groupUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the group later commands act on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := parseID(args[0], "group")
		if err != nil {
			return err
		}

		// Fails unless the caller is an accepted member.
		group, err := apiClient.Group(cmd.Context(), groupID)
		if err != nil {
			return err
		}
		if err := selectGroup(group.ID); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Using group %s (%s)\n", group.Name, group.Role)
		return nil
	},
}

var groupRenameCmd = &cobra.Command{
	Use:   "rename <name>",
	Short: "Rename the selected group (owner or admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		group, err := apiClient.UpdateGroup(cmd.Context(), groupID, &args[0], optional(flagDescription))
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Renamed group to %s\n", group.Name)
		return nil
	},
}

var groupRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a group and everything in it (owner only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := groupArg(args)
		if err != nil {
			return err
		}

		group, err := apiClient.Group(cmd.Context(), groupID)
		if err != nil {
			return err
		}
		if !flagForce && !confirm(cmd, fmt.Sprintf("Delete group %q and all of its contents? This cannot be undone.", group.Name)) {
			fmt.Fprintln(out(cmd), "Cancelled.")
			return nil
		}

		if err := apiClient.DeleteGroup(cmd.Context(), groupID); err != nil {
			return err
		}
		if cfg.GroupID == groupID {
			if err := selectGroup(uuid.Nil); err != nil {
				return err
			}
		}
		fmt.Fprintf(out(cmd), "Deleted group %s\n", group.Name)
		return nil
	},
}

func groupArg(args []string) (uuid.UUID, error) {
	if len(args) == 1 {
		return parseID(args[0], "group")
	}
	return currentGroup()
}

func selectGroup(id uuid.UUID) error {
	cfg.GroupID = id
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List members and pending invitations of the selected group",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		members, err := apiClient.Members(cmd.Context(), groupID)
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), members)
			return nil
		}
		output.MemberTable(out(cmd), members)
		return nil
	},
}

var inviteCmd = &cobra.Command{
	Use:   "invite <email>",
	Short: "Invite a registered user to the selected group (owner or admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		m, err := apiClient.Invite(cmd.Context(), groupID, args[0], models.GroupMembershipRole(flagRole))
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Invited %s as %s\n", args[0], m.Role)
		return nil
	},
}

var roleCmd = &cobra.Command{
	Use:   "role <user-id> <admin|member>",
	Short: "Change a member's role (owner or admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}
		userID, err := parseID(args[0], "user")
		if err != nil {
			return err
		}

		m, err := apiClient.UpdateMemberRole(cmd.Context(), groupID, userID, models.GroupMembershipRole(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Role changed to %s\n", m.Role)
		return nil
	},
}

var kickCmd = &cobra.Command{
	Use:   "kick <user-id>",
	Short: "Remove a member or cancel an invitation (owner or admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}
		userID, err := parseID(args[0], "user")
		if err != nil {
			return err
		}

		if err := apiClient.RemoveMember(cmd.Context(), groupID, userID); err != nil {
			return err
		}
		fmt.Fprintln(out(cmd), "Member removed.")
		return nil
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Leave the selected group",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		me, err := apiClient.Me(cmd.Context())
		if err != nil {
			return err
		}
		if err := apiClient.RemoveMember(cmd.Context(), groupID, me.ID); err != nil {
			return err
		}
		if cfg.GroupID == groupID {
			if err := selectGroup(uuid.Nil); err != nil {
				return err
			}
		}
		fmt.Fprintln(out(cmd), "Left the group.")
		return nil
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent changes in the selected group (owner or admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		logs, page, err := apiClient.Activity(cmd.Context(), groupID, flagPage, flagLimit)
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), logs)
			return nil
		}
		output.ActivityTable(out(cmd), logs)
		if page != nil && page.TotalPages > 1 {
			fmt.Fprintf(out(cmd), "\nPage %d of %d (%d entries)\n", page.Page, page.TotalPages, page.Total)
		}
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&flagDescription, "description", "", "Group description")
	groupCreateCmd.Flags().BoolVar(&flagNoSelect, "no-select", false, "Do not select the new group")
	groupRenameCmd.Flags().StringVar(&flagDescription, "description", "", "New description")
	groupRmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")
	inviteCmd.Flags().StringVar(&flagRole, "role", "member", "Role to grant: admin or member")
	activityCmd.Flags().IntVar(&flagPage, "page", 1, "Page number")
	activityCmd.Flags().IntVar(&flagLimit, "limit", 20, "Entries per page")

	groupCmd.AddCommand(groupCreateCmd, groupShowCmd, groupUseCmd, groupRenameCmd, groupRmCmd)
	rootCmd.AddCommand(groupsCmd, groupCmd, membersCmd, inviteCmd, roleCmd, kickCmd, leaveCmd, activityCmd)
}
