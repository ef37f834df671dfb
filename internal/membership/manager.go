package membership

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/google/uuid"
)

var (
	ErrNoAccess         = failure.Permission("check membership", "you do not have access to this group")
	ErrInsufficientRole = failure.Permission("check membership", "insufficient permissions")
)

type Manager struct {
	Store store.Transactor
}

func NewManager(s store.Transactor) *Manager {
	return &Manager{Store: s}
}

// Invitation is a pending membership as seen by the invited user.
type Invitation struct {
	GroupID   uuid.UUID                  `json:"groupID"`
	GroupName string                     `json:"groupName"`
	Role      models.GroupMembershipRole `json:"role"`
	InvitedAt time.Time                  `json:"invitedAt"`
}

type GroupEdit struct {
	Name        *string
	Description *string
}

func (m *Manager) Group(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := m.Store.Get(ctx, &group, []store.Filter{store.Eq("id", groupID)}); err != nil {
		if failure.Is(err, failure.KindNotFound) {
			return nil, failure.NotFound("load group", "group not found")
		}
		return nil, err
	}
	return &group, nil
}

func (m *Manager) storedMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMembership, error) {
	var rows []models.GroupMembership
	err := m.Store.Query(ctx, &rows, []store.Filter{store.Eq("group_id", groupID)}, &store.Order{Column: "created_at"})
	return rows, err
}

// Role returns userID's role in groupID, or a permission failure when the
// user is not an accepted member.
func (m *Manager) Role(ctx context.Context, groupID, userID uuid.UUID) (models.GroupMembershipRole, error) {
	group, err := m.Group(ctx, groupID)
	if err != nil {
		return "", err
	}
	if group.OwnerID == userID {
		return models.GroupRoleOwner, nil
	}

	var rows []models.GroupMembership
	if err := m.Store.Query(ctx, &rows, []store.Filter{store.Eq("group_id", groupID), store.Eq("user_id", userID)}, nil); err != nil {
		return "", err
	}
	role, ok := RoleOf(*group, rows, userID)
	if !ok {
		return "", ErrNoAccess
	}
	return role, nil
}

// FetchGroupMembers returns the effective members of a group, pending
// invitees included, decorated with each user's display data.
func (m *Manager) FetchGroupMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	group, err := m.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	rows, err := m.storedMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := EffectiveMembers(*group, rows)

	ids := make([]interface{}, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	var users []models.User
	if err := m.Store.Query(ctx, &users, []store.Filter{store.In("id", ids...)}, nil); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range members {
		if u, ok := byID[members[i].UserID]; ok {
			members[i].Email = u.Email
			members[i].DisplayName = u.DisplayName
			members[i].AccentColor = u.AccentColor
		}
	}
	return members, nil
}

// ListGroups returns the groups userID owns or has accepted membership of,
// newest first.
func (m *Manager) ListGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	var owned []models.Group
	if err := m.Store.Query(ctx, &owned, []store.Filter{store.Eq("owner_id", userID)}, nil); err != nil {
		return nil, err
	}

	var rows []models.GroupMembership
	if err := m.Store.Query(ctx, &rows, []store.Filter{store.Eq("user_id", userID)}, nil); err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(owned))
	for _, g := range owned {
		seen[g.ID] = true
	}
	var joinedIDs []interface{}
	for _, row := range rows {
		if row.Pending() || seen[row.GroupID] {
			continue
		}
		seen[row.GroupID] = true
		joinedIDs = append(joinedIDs, row.GroupID)
	}

	groups := owned
	if len(joinedIDs) > 0 {
		var joined []models.Group
		if err := m.Store.Query(ctx, &joined, []store.Filter{store.In("id", joinedIDs...)}, nil); err != nil {
			return nil, err
		}
		groups = append(groups, joined...)
	}
	if groups == nil {
		groups = []models.Group{}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})
	return groups, nil
}

func (m *Manager) CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, description *string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, failure.Validation("create group", "name is required")
	}
	group := &models.Group{Name: name, Description: trimmed(description), OwnerID: ownerID}
	if err := m.Store.Insert(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (m *Manager) UpdateGroup(ctx context.Context, actorID, groupID uuid.UUID, edit GroupEdit) (*models.Group, error) {
	const op = "update group"

	if err := m.require(ctx, groupID, actorID, models.GroupRoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if edit.Name != nil {
		name := strings.TrimSpace(*edit.Name)
		if name == "" {
			return nil, failure.Validation(op, "name cannot be empty")
		}
		updates["name"] = name
	}
	if edit.Description != nil {
		if d := trimmed(edit.Description); d != nil {
			updates["description"] = *d
		} else {
			updates["description"] = nil
		}
	}
	if len(updates) == 0 {
		return nil, failure.Validation(op, "no valid fields to update")
	}

	n, err := m.Store.Update(ctx, &models.Group{}, updates, []store.Filter{store.Eq("id", groupID)})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, failure.NotFound(op, "group not found")
	}
	return m.Group(ctx, groupID)
}

// DeleteGroup removes a group and everything it owns in one transaction.
// Only the owner may do this.
func (m *Manager) DeleteGroup(ctx context.Context, actorID, groupID uuid.UUID) error {
	const op = "delete group"

	group, err := m.Group(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != actorID {
		return failure.Permission(op, "only group owner can delete the group")
	}

	byGroup := []store.Filter{store.Eq("group_id", groupID)}
	return m.Store.Transaction(ctx, func(tx store.Store) error {
		for _, model := range []interface{}{&models.Item{}, &models.Inventory{}, &models.Space{}, &models.GroupMembership{}} {
			if _, err := tx.Delete(ctx, model, byGroup); err != nil {
				return err
			}
		}
		_, err := tx.Delete(ctx, &models.Group{}, []store.Filter{store.Eq("id", groupID)})
		return err
	})
}

// Invite creates a pending membership for the user registered under email.
// Admins may only invite plain members.
func (m *Manager) Invite(ctx context.Context, actorID, groupID uuid.UUID, email string, role models.GroupMembershipRole) (*models.GroupMembership, error) {
	const op = "invite member"

	if role != models.GroupRoleAdmin && role != models.GroupRoleMember {
		return nil, failure.Validation(op, "invalid role")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, failure.Validation(op, "invalid email")
	}

	actorRole, err := m.Role(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !AtLeast(actorRole, models.GroupRoleAdmin) {
		return nil, ErrInsufficientRole
	}
	if actorRole == models.GroupRoleAdmin && role != models.GroupRoleMember {
		return nil, failure.Permission(op, "admins can only add members with member role")
	}

	var user models.User
	if err := m.Store.Get(ctx, &user, []store.Filter{store.Eq("email", strings.ToLower(addr.Address))}); err != nil {
		if failure.Is(err, failure.KindNotFound) {
			return nil, failure.NotFound(op, "no user with that email")
		}
		return nil, err
	}

	group, err := m.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if user.ID == group.OwnerID {
		return nil, failure.Conflict(op, "user is already a member")
	}

	row := &models.GroupMembership{GroupID: groupID, UserID: user.ID, Role: role}
	if err := m.Store.Insert(ctx, row); err != nil {
		if failure.Is(err, failure.KindConflict) {
			return nil, failure.Conflict(op, "user is already a member")
		}
		return nil, err
	}
	row.User = &user
	return row, nil
}

// PendingInvitations lists the invitations userID has not answered yet.
func (m *Manager) PendingInvitations(ctx context.Context, userID uuid.UUID) ([]Invitation, error) {
	var rows []models.GroupMembership
	if err := m.Store.Query(ctx, &rows, []store.Filter{store.Eq("user_id", userID), store.Eq("accepted_at", nil)}, store.NewestFirst); err != nil {
		return nil, err
	}
	invitations := make([]Invitation, 0, len(rows))
	if len(rows) == 0 {
		return invitations, nil
	}

	ids := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.GroupID)
	}
	var groups []models.Group
	if err := m.Store.Query(ctx, &groups, []store.Filter{store.In("id", ids...)}, nil); err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}

	for _, row := range rows {
		invitations = append(invitations, Invitation{
			GroupID:   row.GroupID,
			GroupName: names[row.GroupID],
			Role:      row.Role,
			InvitedAt: row.CreatedAt,
		})
	}
	return invitations, nil
}

func pendingFilter(groupID, userID uuid.UUID) []store.Filter {
	return []store.Filter{store.Eq("group_id", groupID), store.Eq("user_id", userID), store.Eq("accepted_at", nil)}
}

func (m *Manager) AcceptInvitation(ctx context.Context, userID, groupID uuid.UUID) error {
	n, err := m.Store.Update(ctx, &models.GroupMembership{}, map[string]interface{}{"accepted_at": time.Now().UTC()}, pendingFilter(groupID, userID))
	if err != nil {
		return err
	}
	if n == 0 {
		return failure.NotFound("accept invitation", "invitation not found")
	}
	return nil
}

func (m *Manager) RejectInvitation(ctx context.Context, userID, groupID uuid.UUID) error {
	n, err := m.Store.Delete(ctx, &models.GroupMembership{}, pendingFilter(groupID, userID))
	if err != nil {
		return err
	}
	if n == 0 {
		return failure.NotFound("reject invitation", "invitation not found")
	}
	return nil
}

func (m *Manager) memberRow(ctx context.Context, op string, groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	var row models.GroupMembership
	if err := m.Store.Get(ctx, &row, []store.Filter{store.Eq("group_id", groupID), store.Eq("user_id", userID)}); err != nil {
		if failure.Is(err, failure.KindNotFound) {
			return nil, failure.NotFound(op, "member not found")
		}
		return nil, err
	}
	return &row, nil
}

func (m *Manager) UpdateRole(ctx context.Context, actorID, groupID, userID uuid.UUID, role models.GroupMembershipRole) (*models.GroupMembership, error) {
	const op = "update member role"

	if role != models.GroupRoleAdmin && role != models.GroupRoleMember {
		return nil, failure.Validation(op, "invalid role")
	}
	group, err := m.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	actorRole, err := m.Role(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !AtLeast(actorRole, models.GroupRoleAdmin) {
		return nil, ErrInsufficientRole
	}
	if userID == group.OwnerID {
		return nil, failure.Permission(op, "cannot change owner role")
	}
	if actorRole == models.GroupRoleAdmin && role != models.GroupRoleMember {
		return nil, failure.Permission(op, "admins can only set member role")
	}

	row, err := m.memberRow(ctx, op, groupID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := m.Store.Update(ctx, &models.GroupMembership{}, map[string]interface{}{"role": role}, []store.Filter{store.Eq("id", row.ID)}); err != nil {
		return nil, err
	}
	row.Role = role
	return row, nil
}

// RemoveMember deletes userID's membership. Members may remove themselves;
// removing anyone else needs admin, and only the owner removes admins.
func (m *Manager) RemoveMember(ctx context.Context, actorID, groupID, userID uuid.UUID) error {
	const op = "remove member"

	group, err := m.Group(ctx, groupID)
	if err != nil {
		return err
	}
	if userID == group.OwnerID {
		return failure.Permission(op, "cannot remove group owner")
	}

	row, err := m.memberRow(ctx, op, groupID, userID)
	if err != nil {
		return err
	}

	if actorID != userID {
		actorRole, err := m.Role(ctx, groupID, actorID)
		if err != nil {
			return err
		}
		if !AtLeast(actorRole, models.GroupRoleAdmin) {
			return ErrInsufficientRole
		}
		if actorRole == models.GroupRoleAdmin && row.Role != models.GroupRoleMember {
			return failure.Permission(op, "admins cannot remove other admins")
		}
	}

	n, err := m.Store.Delete(ctx, &models.GroupMembership{}, []store.Filter{store.Eq("id", row.ID)})
	if err != nil {
		return err
	}
	if n == 0 {
		return failure.NotFound(op, "member not found")
	}
	return nil
}

func (m *Manager) require(ctx context.Context, groupID, userID uuid.UUID, minimum models.GroupMembershipRole) error {
	role, err := m.Role(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !AtLeast(role, minimum) {
		return ErrInsufficientRole
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
