// Package membership resolves who belongs to a group and manages the
// invitation lifecycle. The group owner is implied by groups.owner_id and
// usually has no membership row; EffectiveMembers folds it in.
package membership

import (
	"time"

	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
)

type Member struct {
	// ID is the membership row id, or "owner-<userID>" for a synthesized owner.
	ID          string                     `json:"id"`
	GroupID     uuid.UUID                  `json:"groupID"`
	UserID      uuid.UUID                  `json:"userID"`
	Role        models.GroupMembershipRole `json:"role"`
	Pending     bool                       `json:"pending"`
	Synthesized bool                       `json:"synthesized,omitempty"`
	Email       string                     `json:"email,omitempty"`
	DisplayName string                     `json:"displayName,omitempty"`
	AccentColor *string                    `json:"accentColor,omitempty"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

func ownerEntryID(ownerID uuid.UUID) string {
	return "owner-" + ownerID.String()
}

// EffectiveMembers returns the stored memberships plus a synthesized owner
// entry when the owner has no row. The result always holds exactly one
// owner: a row for the owner reports role owner, and any other row claiming
// ownership is reported as admin.
func EffectiveMembers(group models.Group, stored []models.GroupMembership) []Member {
	members := make([]Member, 0, len(stored)+1)
	ownerSeen := false

	for _, row := range stored {
		if row.GroupID != group.ID {
			continue
		}
		m := Member{
			ID:        row.ID.String(),
			GroupID:   row.GroupID,
			UserID:    row.UserID,
			Role:      row.Role,
			Pending:   row.Pending(),
			CreatedAt: row.CreatedAt,
		}
		switch {
		case row.UserID == group.OwnerID:
			if ownerSeen {
				continue
			}
			ownerSeen = true
			m.Role = models.GroupRoleOwner
			m.Pending = false
		case row.Role == models.GroupRoleOwner:
			m.Role = models.GroupRoleAdmin
		}
		members = append(members, m)
	}

	if !ownerSeen {
		members = append(members, Member{
			ID:          ownerEntryID(group.OwnerID),
			GroupID:     group.ID,
			UserID:      group.OwnerID,
			Role:        models.GroupRoleOwner,
			Synthesized: true,
			CreatedAt:   group.CreatedAt,
		})
	}
	return members
}

// RoleOf resolves userID's role in group. Pending invitations grant nothing.
func RoleOf(group models.Group, stored []models.GroupMembership, userID uuid.UUID) (models.GroupMembershipRole, bool) {
	for _, m := range EffectiveMembers(group, stored) {
		if m.UserID == userID && !m.Pending {
			return m.Role, true
		}
	}
	return "", false
}

// rank orders roles for permission checks.
func rank(role models.GroupMembershipRole) int {
	switch role {
	case models.GroupRoleOwner:
		return 3
	case models.GroupRoleAdmin:
		return 2
	case models.GroupRoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether role grants at least the privileges of minimum.
func AtLeast(role, minimum models.GroupMembershipRole) bool {
	return rank(role) > 0 && rank(role) >= rank(minimum)
}
