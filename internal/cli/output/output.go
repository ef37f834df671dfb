package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Kawdoor/aizer/internal/cli/api"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
)

// JSON prints v as indented JSON.
func JSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func UserInfo(w io.Writer, u models.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Name:\t%s\n", u.DisplayName)
	if u.AccentColor != nil {
		fmt.Fprintf(tw, "Accent:\t%s\n", *u.AccentColor)
	}
	fmt.Fprintf(tw, "Source:\t%s\n", u.AuthSource)
	fmt.Fprintf(tw, "ID:\t%s\n", u.ID)
	tw.Flush()
}

// GroupTable marks the selected group with an asterisk.
func GroupTable(w io.Writer, groups []models.Group, selected uuid.UUID) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No groups found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tNAME\tID\tOWNER\tCREATED")
	for _, g := range groups {
		mark := " "
		if g.ID == selected {
			mark = "*"
		}
		owner := g.OwnerID.String()
		if g.Owner != nil {
			owner = g.Owner.Email
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, g.Name, g.ID, owner, RelativeTime(g.CreatedAt))
	}
	tw.Flush()
}

func GroupDetail(w io.Writer, g api.GroupDetail) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", g.Name)
	fmt.Fprintf(tw, "ID:\t%s\n", g.ID)
	if g.Description != nil {
		fmt.Fprintf(tw, "Description:\t%s\n", *g.Description)
	}
	fmt.Fprintf(tw, "Your role:\t%s\n", g.Role)
	fmt.Fprintf(tw, "Created:\t%s\n", g.CreatedAt.Format(time.RFC3339))
	tw.Flush()
}

func MemberTable(w io.Writer, members []membership.Member) {
	if len(members) == 0 {
		fmt.Fprintln(w, "No members.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tROLE\tSTATUS\tUSER ID")
	for _, m := range members {
		status := "active"
		if m.Pending {
			status = "invited"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", dash(m.DisplayName), dash(m.Email), m.Role, status, m.UserID)
	}
	tw.Flush()
}

func InvitationTable(w io.Writer, invites []membership.Invitation) {
	if len(invites) == 0 {
		fmt.Fprintln(w, "No pending invitations.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tROLE\tGROUP ID\tINVITED")
	for _, inv := range invites {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", inv.GroupName, inv.Role, inv.GroupID, RelativeTime(inv.InvitedAt))
	}
	tw.Flush()
}

func ActivityTable(w io.Writer, logs []models.AuditLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No activity.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tRESOURCE\tDETAILS")
	for _, l := range logs {
		resource := l.ResourceType
		if l.ResourceID != nil {
			resource += " " + l.ResourceID.String()[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", RelativeTime(l.CreatedAt), l.Action, resource, formatDetails(l.Details))
	}
	tw.Flush()
}

func formatDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}

// ItemLine renders an item as "name xN  $price  color".
func ItemLine(item models.Item) string {
	var b strings.Builder
	b.WriteString(item.Name)
	fmt.Fprintf(&b, " x%d", item.Quantity)
	if item.Price != nil {
		b.WriteString("  $" + item.Price.StringFixed(2))
	}
	if item.Color != nil && *item.Color != "" {
		b.WriteString("  " + *item.Color)
	}
	return b.String()
}

// Tree prints the whole group hierarchy: root spaces with their nested
// spaces, inventories and items, then inventories that have no parent.
func Tree(w io.Writer, snap *hierarchy.Snapshot, showIDs bool) {
	if len(snap.Spaces) == 0 && len(snap.Inventories) == 0 && len(snap.Items) == 0 {
		fmt.Fprintln(w, "Nothing here yet.")
		return
	}
	t := treeWriter{w: w, snap: snap, showIDs: showIDs, seen: map[uuid.UUID]bool{}}
	for _, sp := range snap.RootSpaces() {
		t.space(sp, 0)
	}
	if unplaced := snap.UnplacedInventories(); len(unplaced) > 0 {
		fmt.Fprintln(w, "(unplaced)")
		for _, inv := range unplaced {
			t.inventory(inv, 1)
		}
	}
}

type treeWriter struct {
	w       io.Writer
	snap    *hierarchy.Snapshot
	showIDs bool
	seen    map[uuid.UUID]bool
}

func (t *treeWriter) line(depth int, text string, id uuid.UUID) {
	if t.showIDs {
		text += "  [" + id.String() + "]"
	}
	fmt.Fprintf(t.w, "%s%s\n", strings.Repeat("  ", depth), text)
}

// visit guards against parent cycles in corrupted data.
func (t *treeWriter) visit(id uuid.UUID) bool {
	if t.seen[id] {
		return false
	}
	t.seen[id] = true
	return true
}

func (t *treeWriter) space(sp models.Space, depth int) {
	if !t.visit(sp.ID) {
		return
	}
	t.line(depth, sp.Name+"/", sp.ID)
	for _, child := range t.snap.ChildSpaces(sp.ID) {
		t.space(child, depth+1)
	}
	for _, inv := range t.snap.ChildInventories(sp.ID) {
		t.inventory(inv, depth+1)
	}
	for _, item := range t.snap.ItemsInSpace(sp.ID) {
		t.line(depth+1, "- "+ItemLine(item), item.ID)
	}
}

func (t *treeWriter) inventory(inv models.Inventory, depth int) {
	if !t.visit(inv.ID) {
		return
	}
	t.line(depth, "["+inv.Name+"]", inv.ID)
	for _, child := range t.snap.NestedInventories(inv.ID) {
		t.inventory(child, depth+1)
	}
	for _, item := range t.snap.ChildItems(inv.ID) {
		t.line(depth+1, "- "+ItemLine(item), item.ID)
	}
}

func SearchResult(w io.Writer, r hierarchy.SearchResult) {
	if !r.IsSearching {
		fmt.Fprintln(w, "Enter a search term.")
		return
	}
	if r.Empty() {
		fmt.Fprintf(w, "No matches for %q.\n", r.Term)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tID")
	for _, sp := range r.Spaces {
		fmt.Fprintf(tw, "space\t%s\t%s\n", sp.Name, sp.ID)
	}
	for _, inv := range r.Inventories {
		fmt.Fprintf(tw, "inventory\t%s\t%s\n", inv.Name, inv.ID)
	}
	for _, item := range r.Items {
		fmt.Fprintf(tw, "item\t%s\t%s\n", ItemLine(item), item.ID)
	}
	tw.Flush()
}

// Breadcrumb joins a path as "Garage / Toolbox / Hammer".
func Breadcrumb(crumbs []hierarchy.Crumb) string {
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	return strings.Join(names, " / ")
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
