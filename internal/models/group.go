package models

import "github.com/google/uuid"

type Group struct {
	BaseModel
	Name        string            `json:"name" gorm:"type:varchar(255);not null"`
	Description *string           `json:"description,omitempty" gorm:"type:text"`
	OwnerID     uuid.UUID         `json:"ownerID" gorm:"type:uuid;not null;index"`
	Owner       *User             `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Memberships []GroupMembership `json:"-" gorm:"foreignKey:GroupID"`
}

func (Group) TableName() string {
	return "groups"
}
