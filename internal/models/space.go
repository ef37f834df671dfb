package models

import "github.com/google/uuid"

type Space struct {
	BaseModel
	GroupID     uuid.UUID  `json:"groupID" gorm:"type:uuid;not null;index"`
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	ParentID    *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`
	PhotoURL    *string    `json:"photoURL,omitempty" gorm:"type:text"`

	Group  *Group `json:"-" gorm:"foreignKey:GroupID"`
	Parent *Space `json:"-" gorm:"foreignKey:ParentID"`
}

func (Space) TableName() string {
	return "spaces"
}
