package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupMembershipRole string

const (
	GroupRoleOwner  GroupMembershipRole = "owner"
	GroupRoleAdmin  GroupMembershipRole = "admin"
	GroupRoleMember GroupMembershipRole = "member"
)

func (r GroupMembershipRole) Valid() bool {
	switch r {
	case GroupRoleOwner, GroupRoleAdmin, GroupRoleMember:
		return true
	}
	return false
}

// GroupMembership is a stored (group, user, role) row. A nil AcceptedAt marks
// an invitation the user has not accepted yet. The group owner usually has no
// row at all; see membership.EffectiveMembers.
type GroupMembership struct {
	BaseModel
	UserID     uuid.UUID           `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_user"`
	GroupID    uuid.UUID           `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_user"`
	Role       GroupMembershipRole `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	AcceptedAt *time.Time          `json:"acceptedAt,omitempty"`
	User       *User               `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group      *Group              `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

func (GroupMembership) TableName() string {
	return "group_members"
}

func (m GroupMembership) Pending() bool {
	return m.AcceptedAt == nil
}
