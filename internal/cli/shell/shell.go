// Package shell is the interactive browser behind "aizer shell". It keeps one
// group snapshot in a hierarchy.Holder and reloads it after every change.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Kawdoor/aizer/internal/cli/api"
	"github.com/Kawdoor/aizer/internal/cli/output"
	"github.com/Kawdoor/aizer/internal/cli/resolve"
	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/chzyer/readline"
	"github.com/google/uuid"
)

var errQuit = errors.New("quit")

const helpText = `Commands:
  ls [path]             List what is directly inside path (default: here)
  cd [path]             Change location; no path goes to the top level
  pwd                   Print the current location
  tree                  Show the whole group
  find <term>           Search names, descriptions, colors, prices, quantities
  where <path>          Print the breadcrumb of an entity
  mkspace <name>        Create a space here
  mkinv <name>          Create an inventory here
  add <name> [qty]      Create an item here
  mv <path> <target>    Move an entity; target "/" unplaces inventories and spaces
  rm <path>             Delete an item, or an empty space or inventory
  reload                Fetch a fresh snapshot
  exit                  Leave the shell
Names containing spaces must be quoted: cd "Living room"`

type Session struct {
	Client  *api.Client
	Holder  *hierarchy.Holder
	GroupID uuid.UUID
	Out     io.Writer

	cwd *hierarchy.Crumb
}

func New(client *api.Client, groupID uuid.UUID, out io.Writer) *Session {
	holder := hierarchy.NewHolder(client)
	holder.Select(groupID)
	return &Session{Client: client, Holder: holder, GroupID: groupID, Out: out}
}

func (s *Session) Close() {
	s.Holder.Close()
}

func (s *Session) snapshot(ctx context.Context) (*hierarchy.Snapshot, error) {
	if snap := s.Holder.Snapshot(); snap != nil {
		return snap, nil
	}
	return s.Holder.Reload(ctx)
}

// reload refreshes the snapshot and drops the current location if it is gone.
func (s *Session) reload(ctx context.Context) (*hierarchy.Snapshot, error) {
	snap, err := s.Holder.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if s.cwd != nil {
		if c, ok := resolve.Lookup(snap, s.cwd.ID); ok {
			s.cwd = &c
		} else {
			s.cwd = nil
		}
	}
	return snap, nil
}

// settle re-fetches the snapshot after a mutation, failed or not. The
// mutation's own error wins over a reload error.
func (s *Session) settle(ctx context.Context, err error) error {
	_, reloadErr := s.reload(ctx)
	if err != nil {
		return err
	}
	return reloadErr
}

// Location renders the current location as "/Garage/Toolbox".
func (s *Session) Location() string {
	snap := s.Holder.Snapshot()
	if s.cwd == nil || snap == nil {
		return "/"
	}
	var b strings.Builder
	for _, c := range snap.Path(s.cwd.Kind, s.cwd.ID) {
		b.WriteString("/" + c.Name)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func (s *Session) Prompt() string {
	return "aizer:" + s.Location() + "> "
}

// Exec runs one command line. It reports quit=true for exit.
func (s *Session) Exec(ctx context.Context, line string) (quit bool, err error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	if err := s.dispatch(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errQuit) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (s *Session) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "exit", "quit":
		return errQuit
	case "help", "?":
		fmt.Fprintln(s.Out, helpText)
		return nil
	case "reload":
		_, err := s.reload(ctx)
		return err
	case "pwd":
		fmt.Fprintln(s.Out, s.Location())
		return nil
	case "ls":
		return s.ls(ctx, args)
	case "cd":
		return s.cd(ctx, args)
	case "tree":
		snap, err := s.snapshot(ctx)
		if err != nil {
			return err
		}
		output.Tree(s.Out, snap, false)
		return nil
	case "find":
		snap, err := s.snapshot(ctx)
		if err != nil {
			return err
		}
		output.SearchResult(s.Out, snap.Search(strings.Join(args, " ")))
		return nil
	case "where":
		return s.where(ctx, args)
	case "mkspace":
		return s.mkspace(ctx, args)
	case "mkinv":
		return s.mkinv(ctx, args)
	case "add":
		return s.add(ctx, args)
	case "mv":
		return s.mv(ctx, args)
	case "rm":
		return s.rm(ctx, args)
	default:
		return fmt.Errorf("unknown command %q, try help", name)
	}
}

func needArgs(args []string, lo, hi int, usage string) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// target resolves a path relative to the current location.
func (s *Session) target(ctx context.Context, ref string) (*hierarchy.Snapshot, *hierarchy.Crumb, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := resolve.Resolve(snap, s.cwd, ref)
	if err != nil {
		return nil, nil, err
	}
	return snap, c, nil
}

func (s *Session) ls(ctx context.Context, args []string) error {
	if err := needArgs(args, 0, 1, "ls [path]"); err != nil {
		return err
	}
	ref := "."
	if len(args) == 1 {
		ref = args[0]
	}
	snap, dir, err := s.target(ctx, ref)
	if err != nil {
		return err
	}

	children := resolve.Children(snap, dir)
	if len(children) == 0 {
		fmt.Fprintln(s.Out, "(empty)")
		return nil
	}
	for _, c := range children {
		switch c.Kind {
		case hierarchy.KindSpace:
			fmt.Fprintf(s.Out, "%s/\n", c.Name)
		case hierarchy.KindInventory:
			fmt.Fprintf(s.Out, "[%s]  %d items\n", c.Name, snap.ChildItemCount(c.ID))
		default:
			item, _ := snap.Item(c.ID)
			fmt.Fprintln(s.Out, output.ItemLine(item))
		}
	}
	return nil
}

func (s *Session) cd(ctx context.Context, args []string) error {
	if err := needArgs(args, 0, 1, "cd [path]"); err != nil {
		return err
	}
	if len(args) == 0 {
		s.cwd = nil
		return nil
	}
	_, c, err := s.target(ctx, args[0])
	if err != nil {
		return err
	}
	if c != nil && c.Kind == hierarchy.KindItem {
		return fmt.Errorf("%s is an item", c.Name)
	}
	s.cwd = c
	return nil
}

func (s *Session) where(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, 1, "where <path>"); err != nil {
		return err
	}
	snap, c, err := s.target(ctx, args[0])
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintln(s.Out, "/")
		return nil
	}
	fmt.Fprintln(s.Out, output.Breadcrumb(snap.Path(c.Kind, c.ID)))
	return nil
}

func (s *Session) mkspace(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, 1, "mkspace <name>"); err != nil {
		return err
	}
	var parentID *uuid.UUID
	if s.cwd != nil {
		if s.cwd.Kind != hierarchy.KindSpace {
			return failure.Validation("mkspace", "spaces can only be created at the top level or inside a space")
		}
		id := s.cwd.ID
		parentID = &id
	}
	_, err := s.Client.CreateSpace(ctx, s.GroupID, args[0], nil, parentID)
	return s.settle(ctx, err)
}

func (s *Session) mkinv(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, 1, "mkinv <name>"); err != nil {
		return err
	}
	var spaceID, parentID *uuid.UUID
	if s.cwd != nil {
		id := s.cwd.ID
		if s.cwd.Kind == hierarchy.KindSpace {
			spaceID = &id
		} else {
			parentID = &id
		}
	}
	_, err := s.Client.CreateInventory(ctx, s.GroupID, args[0], nil, spaceID, parentID)
	return s.settle(ctx, err)
}

func (s *Session) add(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, 2, "add <name> [qty]"); err != nil {
		return err
	}
	if s.cwd == nil {
		return failure.Validation("add", "cd into a space or inventory first")
	}
	quantity := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		quantity = n
	}

	item := api.NewItem{Name: args[0], Quantity: &quantity}
	id := s.cwd.ID
	if s.cwd.Kind == hierarchy.KindSpace {
		item.SpaceID = &id
	} else {
		item.InventoryID = &id
	}
	_, err := s.Client.CreateItem(ctx, s.GroupID, item)
	return s.settle(ctx, err)
}

func (s *Session) mv(ctx context.Context, args []string) error {
	if err := needArgs(args, 2, 2, "mv <path> <target>"); err != nil {
		return err
	}
	snap, src, err := s.target(ctx, args[0])
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("cannot move the top level")
	}
	dst, err := resolve.Resolve(snap, s.cwd, args[1])
	if err != nil {
		return err
	}

	switch src.Kind {
	case hierarchy.KindItem:
		if dst == nil || dst.Kind == hierarchy.KindItem {
			return failure.Validation("mv", "items move into a space or an inventory")
		}
		var inventoryID, spaceID *uuid.UUID
		id := dst.ID
		if dst.Kind == hierarchy.KindSpace {
			spaceID = &id
		} else {
			inventoryID = &id
		}
		_, err = s.Client.MoveItem(ctx, src.ID, inventoryID, spaceID)
	case hierarchy.KindInventory:
		kind := string(relocation.ParentNone)
		var parentID *uuid.UUID
		if dst != nil {
			if dst.Kind == hierarchy.KindItem {
				return failure.Validation("mv", "inventories move into a space or another inventory")
			}
			id := dst.ID
			parentID = &id
			kind = string(dst.Kind)
		}
		_, err = s.Client.SetInventoryParent(ctx, src.ID, kind, parentID)
	case hierarchy.KindSpace:
		var parentID *uuid.UUID
		if dst != nil {
			if dst.Kind != hierarchy.KindSpace {
				return failure.Validation("mv", "spaces move into another space or to /")
			}
			id := dst.ID
			parentID = &id
		}
		_, err = s.Client.SetSpaceParent(ctx, src.ID, parentID)
	}
	return s.settle(ctx, err)
}

func (s *Session) rm(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, 1, "rm <path>"); err != nil {
		return err
	}
	_, c, err := s.target(ctx, args[0])
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("cannot delete the top level")
	}

	switch c.Kind {
	case hierarchy.KindSpace:
		err = s.Client.DeleteSpace(ctx, c.ID)
	case hierarchy.KindInventory:
		err = s.Client.DeleteInventory(ctx, c.ID)
	default:
		err = s.Client.DeleteItem(ctx, c.ID)
	}
	return s.settle(ctx, err)
}

// Completer offers command names and the names of entities at the current
// location.
func (s *Session) Completer() readline.AutoCompleter {
	children := readline.PcItemDynamic(func(string) []string {
		snap := s.Holder.Snapshot()
		if snap == nil {
			return nil
		}
		var names []string
		for _, c := range resolve.Children(snap, s.cwd) {
			name := c.Name
			if strings.ContainsAny(name, " \t") {
				name = strconv.Quote(name)
			}
			names = append(names, name)
		}
		return names
	})

	var items []readline.PrefixCompleterInterface
	for _, name := range []string{"ls", "cd", "where", "mv", "rm"} {
		items = append(items, readline.PcItem(name, children))
	}
	for _, name := range []string{"pwd", "tree", "find", "mkspace", "mkinv", "add", "reload", "help", "exit"} {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands from rl until exit, EOF or Ctrl-C on an empty line.
func (s *Session) Run(ctx context.Context, rl *readline.Instance) error {
	if _, err := s.reload(ctx); err != nil {
		return err
	}

	for {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := s.Exec(ctx, line)
		if err != nil {
			if api.SessionExpired(err) {
				return err
			}
			fmt.Fprintln(s.Out, "Error:", failure.Message(err))
			continue
		}
		if quit {
			return nil
		}
	}
}

// splitArgs splits on whitespace and honors double quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}
