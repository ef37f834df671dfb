package cmd

import (
	"context"
	"fmt"

	"github.com/Kawdoor/aizer/internal/cli/output"
	"github.com/Kawdoor/aizer/internal/cli/resolve"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagShowIDs bool

// loadSnapshot fetches the selected group's snapshot.
func loadSnapshot(ctx context.Context) (uuid.UUID, *hierarchy.Snapshot, error) {
	groupID, err := currentGroup()
	if err != nil {
		return uuid.Nil, nil, err
	}
	snap, err := apiClient.LoadGroupSnapshot(ctx, groupID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return groupID, snap, nil
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show every space, inventory and item in the selected group",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), snap)
			return nil
		}
		output.Tree(out(cmd), snap, flagShowIDs)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find spaces, inventories and items by name, description, color, price or quantity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, err := currentGroup()
		if err != nil {
			return err
		}

		result, err := apiClient.Search(cmd.Context(), groupID, args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), result)
			return nil
		}
		output.SearchResult(out(cmd), *result)
		return nil
	},
}

var whereCmd = &cobra.Command{
	Use:   "where <path-or-id>",
	Short: "Show where an entity is stored",
	Long: `Print the breadcrumb from the outermost space down to an entity.

  aizer where 3f0c...             By id
  aizer where Garage/Toolbox      By path`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		target, err := resolve.Resolve(snap, nil, args[0])
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("%q names the top level", args[0])
		}

		crumbs, err := apiClient.Path(cmd.Context(), groupID, target.Kind, target.ID)
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(out(cmd), crumbs)
			return nil
		}
		fmt.Fprintln(out(cmd), output.Breadcrumb(crumbs))
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&flagShowIDs, "ids", false, "Show entity ids")
	rootCmd.AddCommand(treeCmd, searchCmd, whereCmd)
}
