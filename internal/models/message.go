package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null"             json:"name"`
	Email     string    `gorm:"not null"             json:"email"`
	Subject   string    `                            json:"subject"`
	Body      string    `gorm:"not null"             json:"body"`
	Read      bool      `gorm:"index;not null"       json:"read"`
	CreatedAt time.Time `gorm:"index"                json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
