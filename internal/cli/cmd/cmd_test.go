package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Kawdoor/aizer/internal/cli/clitest"
	"github.com/Kawdoor/aizer/internal/cli/config"
	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default; cobra keeps parsed values
// between executions of the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("aizer %s returned error: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func expectContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func setup(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return clitest.NewServer(t)
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() returned error: %v", err)
	}
	return cfg
}

func TestCLI_InventoryWorkflow(t *testing.T) {
	server := setup(t)

	out := mustExecute(t, "register", "--server", server.URL, "--email", "ada@example.com", "--password", "password123", "--name", "Ada")
	expectContains(t, out, "Signed in as Ada (ada@example.com)")
	if loadConfig(t).ServerURL != server.URL {
		t.Fatalf("expected server URL persisted")
	}

	expectContains(t, mustExecute(t, "whoami"), "ada@example.com", "Ada")

	expectContains(t, mustExecute(t, "group", "create", "Home"), "Created group Home")
	groupID := loadConfig(t).GroupID
	if groupID == uuid.Nil {
		t.Fatal("expected new group to be selected")
	}
	expectContains(t, mustExecute(t, "groups"), "*", "Home")

	mustExecute(t, "space", "create", "Garage")
	mustExecute(t, "space", "create", "Shelf", "--in", "Garage")
	mustExecute(t, "inventory", "create", "Toolbox", "--in", "Garage")
	mustExecute(t, "inv", "create", "Tray", "--in", "Garage/Toolbox")
	out = mustExecute(t, "item", "create", "Hammer", "--in", "garage/toolbox", "-q", "3", "--price", "12.50", "--color", "red")
	expectContains(t, out, "Created item Hammer x3  $12.50  red")

	expectContains(t, mustExecute(t, "tree"),
		"Garage/\n",
		"  Shelf/\n",
		"  [Toolbox]\n",
		"    [Tray]\n",
		"    - Hammer x3  $12.50  red\n",
	)

	expectContains(t, mustExecute(t, "search", "12.5"), "Hammer x3")
	expectContains(t, mustExecute(t, "where", "Garage/Toolbox/Hammer"), "Garage / Toolbox / Hammer")

	mustExecute(t, "item", "mv", "Garage/Toolbox/Hammer", "Garage/Shelf")
	mustExecute(t, "item", "edit", "Garage/Shelf/Hammer", "--name", "Mallet", "-q", "1", "--clear-price")
	expectContains(t, mustExecute(t, "tree"), "  Shelf/\n    - Mallet x1  red\n")

	_, err := execute(t, "y\n", "rm", "Garage")
	if !errors.Is(err, failure.ErrHasChildren) {
		t.Fatalf("expected non-empty space delete to be refused, got %v", err)
	}

	out, err = execute(t, "n\n", "rm", "Garage/Shelf/Mallet")
	if err != nil || !strings.Contains(out, "Cancelled.") {
		t.Fatalf("expected cancelled delete, got %q, %v", out, err)
	}
	expectContains(t, mustExecute(t, "rm", "-f", "Garage/Shelf/Mallet"), "Deleted item Mallet")

	mustExecute(t, "inventory", "mv", "Garage/Toolbox", "/")
	expectContains(t, mustExecute(t, "tree"), "(unplaced)\n  [Toolbox]\n")

	if _, err := execute(t, "", "space", "mv", "Garage", "Garage/Shelf"); !failure.Is(err, failure.KindValidation) {
		t.Errorf("expected cycle to be rejected, got %v", err)
	}

	out = mustExecute(t, "--json", "groups")
	var groups []models.Group
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if len(groups) != 1 || groups[0].ID != groupID {
		t.Errorf("unexpected groups %+v", groups)
	}
}

func TestCLI_InvitationWorkflow(t *testing.T) {
	server := setup(t)

	mustExecute(t, "register", "--server", server.URL, "--email", "owner@example.com", "--password", "password123", "--name", "Owner")
	mustExecute(t, "group", "create", "Workshop")
	groupID := loadConfig(t).GroupID

	mustExecute(t, "register", "--email", "guest@example.com", "--password", "password123", "--name", "Guest")
	if _, err := execute(t, "", "members"); !failure.Is(err, failure.KindPermission) {
		t.Fatalf("expected non-member to be refused, got %v", err)
	}

	mustExecute(t, "login", "--email", "owner@example.com", "--password", "password123")
	expectContains(t, mustExecute(t, "invite", "guest@example.com", "--role", "admin"), "Invited guest@example.com as admin")
	expectContains(t, mustExecute(t, "members"), "guest@example.com", "invited", "owner@example.com")

	mustExecute(t, "login", "--email", "guest@example.com", "--password", "password123")
	expectContains(t, mustExecute(t, "invites"), "Workshop", "admin")
	expectContains(t, mustExecute(t, "accept", groupID.String()), "Invitation accepted.")
	if loadConfig(t).GroupID != groupID {
		t.Error("expected accepted group to be selected")
	}
	expectContains(t, mustExecute(t, "invites"), "No pending invitations.")

	out := mustExecute(t, "group", "show")
	expectContains(t, out, "Workshop", "admin")
	mustExecute(t, "activity")

	expectContains(t, mustExecute(t, "leave"), "Left the group.")
	if loadConfig(t).GroupID != uuid.Nil {
		t.Error("expected selection cleared after leaving")
	}
	if _, err := execute(t, "", "group", "show", groupID.String()); !failure.Is(err, failure.KindPermission) {
		t.Errorf("expected access revoked after leaving, got %v", err)
	}
}

func TestCLI_SessionRefresh(t *testing.T) {
	server := setup(t)

	mustExecute(t, "register", "--server", server.URL, "--email", "ada@example.com", "--password", "password123")
	before := loadConfig(t)

	stale := *before
	stale.AccessToken = "not-a-token"
	if err := config.Save(&stale); err != nil {
		t.Fatalf("config.Save() returned error: %v", err)
	}

	expectContains(t, mustExecute(t, "whoami"), "ada@example.com")

	after := loadConfig(t)
	if after.AccessToken == "not-a-token" || after.AccessToken == "" {
		t.Error("expected refreshed access token persisted")
	}
	if after.RefreshToken == before.RefreshToken {
		t.Error("expected refresh token rotated")
	}

	expired := *after
	expired.AccessToken = "not-a-token"
	expired.RefreshToken = before.RefreshToken
	if err := config.Save(&expired); err != nil {
		t.Fatalf("config.Save() returned error: %v", err)
	}
	_, err := execute(t, "", "whoami")
	if !failure.Is(err, failure.KindAuthExpired) {
		t.Fatalf("expected a spent refresh token to end the session, got %v", err)
	}
	if !strings.Contains(describe(err), "aizer login") {
		t.Errorf("expected hint to sign in again, got %q", describe(err))
	}
}

func TestCLI_Logout(t *testing.T) {
	server := setup(t)

	mustExecute(t, "register", "--server", server.URL, "--email", "ada@example.com", "--password", "password123")
	expectContains(t, mustExecute(t, "logout"), "Signed out.")

	cfg := loadConfig(t)
	if cfg.HasToken() {
		t.Error("expected tokens removed")
	}
	if cfg.ServerURL != server.URL {
		t.Error("expected server URL kept")
	}
	if _, err := execute(t, "", "whoami"); err == nil || !strings.Contains(err.Error(), "not signed in") {
		t.Errorf("expected not signed in error, got %v", err)
	}
}

func TestCLI_RequiresGroup(t *testing.T) {
	server := setup(t)

	mustExecute(t, "register", "--server", server.URL, "--email", "ada@example.com", "--password", "password123")
	if _, err := execute(t, "", "tree"); err == nil || !strings.Contains(err.Error(), "no group selected") {
		t.Errorf("expected no group selected error, got %v", err)
	}
	if _, err := execute(t, "", "tree", "--group", "not-a-uuid"); err == nil || !strings.Contains(err.Error(), "invalid group id") {
		t.Errorf("expected invalid group id error, got %v", err)
	}
	if _, err := execute(t, "", "item", "create", "Loose"); err == nil || !strings.Contains(err.Error(), "--in is required") {
		t.Errorf("expected --in required error, got %v", err)
	}
}
