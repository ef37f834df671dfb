package services

import (
	"context"
	"io"
	"testing"

	"github.com/Kawdoor/aizer/internal/database"
	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/Kawdoor/aizer/pkg/logger"
	"gorm.io/gorm"
)

func init() {
	logger.SetOutput(io.Discard)
}

type testEnv struct {
	db      *gorm.DB
	members *membership.Manager
	owner   models.User
	member  models.User
	admin   models.User
	outside models.User
	group   *models.Group
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	s := store.NewGormStore(db)
	env := &testEnv{db: db, members: membership.NewManager(s)}
	ctx := context.Background()

	users := []*models.User{&env.owner, &env.member, &env.admin, &env.outside}
	for i, email := range []string{"owner@example.com", "member@example.com", "admin@example.com", "outside@example.com"} {
		*users[i] = models.User{Email: email, DisplayName: email, PasswordHash: "x"}
		if err := s.Insert(ctx, users[i]); err != nil {
			t.Fatalf("failed to insert %s: %v", email, err)
		}
	}

	env.group, err = env.members.CreateGroup(ctx, env.owner.ID, "Workshop", nil)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	for _, m := range []struct {
		user models.User
		role models.GroupMembershipRole
	}{
		{env.member, models.GroupRoleMember},
		{env.admin, models.GroupRoleAdmin},
	} {
		if _, err := env.members.Invite(ctx, env.owner.ID, env.group.ID, m.user.Email, m.role); err != nil {
			t.Fatalf("failed to invite %s: %v", m.user.Email, err)
		}
		if err := env.members.AcceptInvitation(ctx, m.user.ID, env.group.ID); err != nil {
			t.Fatalf("failed to accept for %s: %v", m.user.Email, err)
		}
	}
	return env
}
