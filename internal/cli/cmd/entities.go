package cmd

import (
	"fmt"
	"strings"

	"github.com/Kawdoor/aizer/internal/cli/api"
	"github.com/Kawdoor/aizer/internal/cli/output"
	"github.com/Kawdoor/aizer/internal/cli/resolve"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagIn         string
	flagName       string
	flagQuantity   int
	flagNewQty     int
	flagPrice      string
	flagColor      string
	flagClearPrice bool
)

// isTopLevel reports whether ref means "no parent".
func isTopLevel(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref == "/" || ref == ""
}

// placement resolves a container path to a space or an inventory id.
func placement(snap *hierarchy.Snapshot, ref string) (spaceID, inventoryID *uuid.UUID, err error) {
	target, err := resolve.Resolve(snap, nil, ref)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, fmt.Errorf("%q is not a space or inventory", ref)
	}
	id := target.ID
	switch target.Kind {
	case hierarchy.KindSpace:
		return &id, nil, nil
	case hierarchy.KindInventory:
		return nil, &id, nil
	default:
		return nil, nil, fmt.Errorf("%q is an item and cannot hold things", ref)
	}
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", raw)
	}
	return &price, nil
}

func printEntity(cmd *cobra.Command, v interface{}, format string, a ...interface{}) {
	if flagJSON {
		output.JSON(out(cmd), v)
		return
	}
	fmt.Fprintf(out(cmd), format+"\n", a...)
}

// --- spaces ---

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Create, rename, move or delete spaces",
}

var spaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a space, optionally inside another space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		var parentID *uuid.UUID
		if !isTopLevel(flagIn) {
			id, err := resolve.ResolveKind(snap, nil, flagIn, hierarchy.KindSpace)
			if err != nil {
				return err
			}
			parentID = &id
		}

		space, err := apiClient.CreateSpace(cmd.Context(), groupID, args[0], optional(flagDescription), parentID)
		if err != nil {
			return err
		}
		printEntity(cmd, space, "Created space %s (%s)", space.Name, space.ID)
		return nil
	},
}

var spaceRenameCmd = &cobra.Command{
	Use:   "rename <space> <name>",
	Short: "Rename a space",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		id, err := resolve.ResolveKind(snap, nil, args[0], hierarchy.KindSpace)
		if err != nil {
			return err
		}

		space, err := apiClient.UpdateSpace(cmd.Context(), id, &args[1], optional(flagDescription))
		if err != nil {
			return err
		}
		printEntity(cmd, space, "Renamed space to %s", space.Name)
		return nil
	},
}

var spaceMvCmd = &cobra.Command{
	Use:   "mv <space> <parent-space|/>",
	Short: "Nest a space inside another space, or make it top level with /",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		id, err := resolve.ResolveKind(snap, nil, args[0], hierarchy.KindSpace)
		if err != nil {
			return err
		}
		var parentID *uuid.UUID
		if !isTopLevel(args[1]) {
			pid, err := resolve.ResolveKind(snap, nil, args[1], hierarchy.KindSpace)
			if err != nil {
				return err
			}
			parentID = &pid
		}

		space, err := apiClient.SetSpaceParent(cmd.Context(), id, parentID)
		if err != nil {
			return err
		}
		printEntity(cmd, space, "Moved space %s", space.Name)
		return nil
	},
}

// --- inventories ---

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Create, rename, move or delete inventories",
}

var inventoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an inventory inside a space or another inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groupID, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		var spaceID, parentID *uuid.UUID
		if !isTopLevel(flagIn) {
			if spaceID, parentID, err = placement(snap, flagIn); err != nil {
				return err
			}
		}

		inv, err := apiClient.CreateInventory(cmd.Context(), groupID, args[0], optional(flagDescription), spaceID, parentID)
		if err != nil {
			return err
		}
		printEntity(cmd, inv, "Created inventory %s (%s)", inv.Name, inv.ID)
		return nil
	},
}

var inventoryRenameCmd = &cobra.Command{
	Use:   "rename <inventory> <name>",
	Short: "Rename an inventory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		id, err := resolve.ResolveKind(snap, nil, args[0], hierarchy.KindInventory)
		if err != nil {
			return err
		}

		inv, err := apiClient.UpdateInventory(cmd.Context(), id, &args[1], optional(flagDescription))
		if err != nil {
			return err
		}
		printEntity(cmd, inv, "Renamed inventory to %s", inv.Name)
		return nil
	},
}

var inventoryMvCmd = &cobra.Command{
	Use:   "mv <inventory> <space|inventory|/>",
	Short: "Put an inventory in a space or another inventory, or unplace it with /",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		id, err := resolve.ResolveKind(snap, nil, args[0], hierarchy.KindInventory)
		if err != nil {
			return err
		}

		kind := string(relocation.ParentNone)
		var parentID *uuid.UUID
		if !isTopLevel(args[1]) {
			spaceID, invID, err := placement(snap, args[1])
			if err != nil {
				return err
			}
			if spaceID != nil {
				kind, parentID = string(relocation.ParentSpace), spaceID
			} else {
				kind, parentID = string(relocation.ParentInventory), invID
			}
		}

		inv, err := apiClient.SetInventoryParent(cmd.Context(), id, kind, parentID)
		if err != nil {
			return err
		}
		printEntity(cmd, inv, "Moved inventory %s", inv.Name)
		return nil
	},
}

// --- items ---

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Create, edit, move or delete items",
}

var itemCreateCmd = &cobra.Command{
	Use:   "create <name> --in <space|inventory>",
	Short: "Create an item inside a space or an inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if isTopLevel(flagIn) {
			return fmt.Errorf("--in is required: an item lives in exactly one space or inventory")
		}
		groupID, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		spaceID, inventoryID, err := placement(snap, flagIn)
		if err != nil {
			return err
		}
		price, err := parsePrice(flagPrice)
		if err != nil {
			return err
		}
		quantity := flagQuantity

		item, err := apiClient.CreateItem(cmd.Context(), groupID, api.NewItem{
			Name:        args[0],
			Quantity:    &quantity,
			Description: optional(flagDescription),
			Color:       optional(flagColor),
			Price:       price,
			InventoryID: inventoryID,
			SpaceID:     spaceID,
		})
		if err != nil {
			return err
		}
		printEntity(cmd, item, "Created item %s (%s)", output.ItemLine(*item), item.ID)
		return nil
	},
}

var itemEditCmd = &cobra.Command{
	Use:   "edit <item>",
	Short: "Change an item's name, quantity, price, color or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		id, err := resolve.ResolveKind(snap, nil, args[0], hierarchy.KindItem)
		if err != nil {
			return err
		}
		price, err := parsePrice(flagPrice)
		if err != nil {
			return err
		}

		edit := api.ItemEdit{
			Name:        optional(flagName),
			Description: optional(flagDescription),
			Color:       optional(flagColor),
			Price:       price,
			ClearPrice:  flagClearPrice,
		}
		if flagNewQty >= 0 {
			quantity := flagNewQty
			edit.Quantity = &quantity
		}

		item, err := apiClient.UpdateItem(cmd.Context(), id, edit)
		if err != nil {
			return err
		}
		printEntity(cmd, item, "Updated item %s", output.ItemLine(*item))
		return nil
	},
}

var itemMvCmd = &cobra.Command{
	Use:   "mv <item> <space|inventory>",
	Short: "Move an item into a space or an inventory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		id, err := resolve.ResolveKind(snap, nil, args[0], hierarchy.KindItem)
		if err != nil {
			return err
		}
		spaceID, inventoryID, err := placement(snap, args[1])
		if err != nil {
			return err
		}

		item, err := apiClient.MoveItem(cmd.Context(), id, inventoryID, spaceID)
		if err != nil {
			return err
		}
		printEntity(cmd, item, "Moved item %s", item.Name)
		return nil
	},
}

// rmCmd deletes any entity. Non-empty spaces and inventories are refused by
// the server.
var rmCmd = &cobra.Command{
	Use:   "rm <path-or-id>",
	Short: "Delete an empty space, an empty inventory, or an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		_, snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		target, err := resolve.Resolve(snap, nil, args[0])
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("cannot delete the top level")
		}

		if !flagForce && !confirm(cmd, fmt.Sprintf("Delete %s %q?", target.Kind, target.Name)) {
			fmt.Fprintln(out(cmd), "Cancelled.")
			return nil
		}

		switch target.Kind {
		case hierarchy.KindSpace:
			err = apiClient.DeleteSpace(cmd.Context(), target.ID)
		case hierarchy.KindInventory:
			err = apiClient.DeleteInventory(cmd.Context(), target.ID)
		default:
			err = apiClient.DeleteItem(cmd.Context(), target.ID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Deleted %s %s\n", target.Kind, target.Name)
		return nil
	},
}

func init() {
	spaceCreateCmd.Flags().StringVar(&flagIn, "in", "", "Parent space path or id")
	spaceCreateCmd.Flags().StringVar(&flagDescription, "description", "", "Description")
	spaceRenameCmd.Flags().StringVar(&flagDescription, "description", "", "New description")
	spaceCmd.AddCommand(spaceCreateCmd, spaceRenameCmd, spaceMvCmd)

	inventoryCreateCmd.Flags().StringVar(&flagIn, "in", "", "Parent space or inventory path or id")
	inventoryCreateCmd.Flags().StringVar(&flagDescription, "description", "", "Description")
	inventoryRenameCmd.Flags().StringVar(&flagDescription, "description", "", "New description")
	inventoryCmd.AddCommand(inventoryCreateCmd, inventoryRenameCmd, inventoryMvCmd)

	itemCreateCmd.Flags().StringVar(&flagIn, "in", "", "Space or inventory path or id")
	itemCreateCmd.Flags().IntVarP(&flagQuantity, "quantity", "q", 1, "Quantity")
	itemCreateCmd.Flags().StringVar(&flagPrice, "price", "", "Unit price, e.g. 19.99")
	itemCreateCmd.Flags().StringVar(&flagColor, "color", "", "Color")
	itemCreateCmd.Flags().StringVar(&flagDescription, "description", "", "Description")
	itemEditCmd.Flags().StringVar(&flagName, "name", "", "New name")
	itemEditCmd.Flags().IntVarP(&flagNewQty, "quantity", "q", -1, "New quantity")
	itemEditCmd.Flags().StringVar(&flagPrice, "price", "", "New price")
	itemEditCmd.Flags().BoolVar(&flagClearPrice, "clear-price", false, "Remove the price")
	itemEditCmd.Flags().StringVar(&flagColor, "color", "", "New color")
	itemEditCmd.Flags().StringVar(&flagDescription, "description", "", "New description")
	itemCmd.AddCommand(itemCreateCmd, itemEditCmd, itemMvCmd)

	rmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")

	rootCmd.AddCommand(spaceCmd, inventoryCmd, itemCmd, rmCmd)
}
