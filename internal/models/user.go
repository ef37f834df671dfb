package models

import (
	"time"

	"github.com/google/uuid"
)

type AuthSource string

const (
	AuthSourceLocal AuthSource = "local"
	AuthSourceLDAP  AuthSource = "ldap"
)

type User struct {
	BaseModel
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:text;not null"`
	DisplayName  string     `json:"displayName" gorm:"type:varchar(100);not null"`
	AccentColor  *string    `json:"accentColor,omitempty" gorm:"type:varchar(20)"`
	AuthSource   AuthSource `json:"authSource" gorm:"type:varchar(20);not null;default:'local'"`
}

func (User) TableName() string {
	return "users"
}

// RefreshToken stores the SHA-256 of an opaque refresh token. Tokens are
// single-use: a refresh revokes the presented row and issues a new one.
type RefreshToken struct {
	BaseModel
	UserID    uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index"`
	TokenHash string     `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null;index"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	User      *User      `json:"-" gorm:"foreignKey:UserID"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
