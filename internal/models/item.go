package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Item is placed in exactly one Inventory or one Space.
type Item struct {
	BaseModel
	GroupID     uuid.UUID        `json:"groupID" gorm:"type:uuid;not null;index"`
	InventoryID *uuid.UUID       `json:"inventoryID,omitempty" gorm:"type:uuid;index;check:chk_items_single_placement,(inventory_id IS NULL) <> (space_id IS NULL)"`
	SpaceID     *uuid.UUID       `json:"spaceID,omitempty" gorm:"type:uuid;index"`
	Name        string           `json:"name" gorm:"type:varchar(255);not null"`
	Quantity    int              `json:"quantity" gorm:"not null;check:chk_items_quantity,quantity >= 0"`
	Description *string          `json:"description,omitempty" gorm:"type:text"`
	Color       *string          `json:"color,omitempty" gorm:"type:varchar(50)"`
	Price       *decimal.Decimal `json:"price,omitempty" gorm:"type:numeric(12,2);check:chk_items_price,price IS NULL OR price >= 0"`
	Measures    datatypes.JSON   `json:"measures,omitempty"`
	PhotoURL    *string          `json:"photoURL,omitempty" gorm:"type:text"`

	Group     *Group     `json:"-" gorm:"foreignKey:GroupID"`
	Inventory *Inventory `json:"-" gorm:"foreignKey:InventoryID"`
	Space     *Space     `json:"-" gorm:"foreignKey:SpaceID"`
}

func (Item) TableName() string {
	return "items"
}
