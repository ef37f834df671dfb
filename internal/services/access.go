package services

import (
	"context"

	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/google/uuid"
)

// AccessService gates group-scoped operations on the caller's effective role.
type AccessService struct {
	Members *membership.Manager
}

func NewAccessService(members *membership.Manager) *AccessService {
	return &AccessService{Members: members}
}

// Require returns the caller's role when it is at least minimum. Non-members
// get membership.ErrNoAccess and members below minimum get
// membership.ErrInsufficientRole.
func (a *AccessService) Require(ctx context.Context, userID, groupID uuid.UUID, minimum models.GroupMembershipRole) (models.GroupMembershipRole, error) {
	role, err := a.Members.Role(ctx, groupID, userID)
	if err != nil {
		logger.WarnWithUser(userID.String(), "permission_denied", map[string]interface{}{
			"group_id": groupID.String(),
			"required": string(minimum),
			"reason":   err.Error(),
		})
		return "", err
	}

	if !membership.AtLeast(role, minimum) {
		logger.WarnWithUser(userID.String(), "permission_denied", map[string]interface{}{
			"group_id": groupID.String(),
			"required": string(minimum),
			"role":     string(role),
		})
		return role, membership.ErrInsufficientRole
	}
	return role, nil
}

// CanRead reports whether userID is an accepted member of groupID.
func (a *AccessService) CanRead(ctx context.Context, userID, groupID uuid.UUID) bool {
	_, err := a.Require(ctx, userID, groupID, models.GroupRoleMember)
	return err == nil
}
