package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Product prices are minor currency units.
type Product struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"  json:"id"`
	Name          string      `gorm:"not null"              json:"name"`
	Description   string      `                             json:"description"`
	Price         int64       `gorm:"not null"              json:"price"`
	OriginalPrice *int64      `                             json:"original_price"`
	Category      string      `gorm:"index"                 json:"category"`
	InStock       bool        `gorm:"not null"              json:"in_stock"`
	Featured      bool        `gorm:"index"                 json:"featured"`
	Rating        float64     `                             json:"rating"`
	ReviewCount   int         `                             json:"review_count"`
	Colors        []string    `gorm:"serializer:json"       json:"colors"`
	Specs         string      `                             json:"specs"`
	Image         string      `                             json:"image"`
	Gallery       []MediaItem `gorm:"serializer:json"       json:"gallery"`
	CreatedAt     time.Time   `                             json:"created_at"`
	UpdatedAt     time.Time   `                             json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}
