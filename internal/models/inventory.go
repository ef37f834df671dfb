package models

import "github.com/google/uuid"

// Inventory is a container parented by at most one Space or one Inventory.
type Inventory struct {
	BaseModel
	GroupID           uuid.UUID  `json:"groupID" gorm:"type:uuid;not null;index"`
	Name              string     `json:"name" gorm:"type:varchar(255);not null"`
	Description       *string    `json:"description,omitempty" gorm:"type:text"`
	ParentSpaceID     *uuid.UUID `json:"parentSpaceID,omitempty" gorm:"type:uuid;index;check:chk_inventories_single_parent,parent_space_id IS NULL OR parent_inventory_id IS NULL"`
	ParentInventoryID *uuid.UUID `json:"parentInventoryID,omitempty" gorm:"type:uuid;index"`
	PhotoURL          *string    `json:"photoURL,omitempty" gorm:"type:text"`

	Group           *Group     `json:"-" gorm:"foreignKey:GroupID"`
	ParentSpace     *Space     `json:"-" gorm:"foreignKey:ParentSpaceID"`
	ParentInventory *Inventory `json:"-" gorm:"foreignKey:ParentInventoryID"`
}

func (Inventory) TableName() string {
	return "inventories"
}
