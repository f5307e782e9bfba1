package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
)

// CartRecord is the persisted snapshot of one shopper's cart.
// OwnerKey is "user:<uuid>" for accounts and "guest:<uuid>" for anonymous carts.
type CartRecord struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"   json:"id"`
	OwnerKey  string      `gorm:"uniqueIndex;not null"   json:"owner_key"`
	Items     []cart.Item `gorm:"serializer:json"        json:"items"`
	UpdatedAt time.Time   `                              json:"updated_at"`
}

func (c *CartRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartRecord) TableName() string {
	return "carts"
}
