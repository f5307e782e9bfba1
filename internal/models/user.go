package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"                   json:"id"`
	Email        string     `gorm:"uniqueIndex;not null"                   json:"email"`
	PasswordHash string     `gorm:"not null"                               json:"-"`
	Role         string     `gorm:"not null"                               json:"role"`
	Name         string     `                                              json:"name"`
	Phone        string     `                                              json:"phone"`
	Address      Address    `gorm:"embedded;embeddedPrefix:address_"       json:"address"`
	BannedUntil  *time.Time `                                              json:"banned_until"`
	LastSignInAt *time.Time `                                              json:"last_sign_in_at"`
	CreatedAt    time.Time  `                                              json:"created_at"`
	UpdatedAt    time.Time  `                                              json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) BannedAt(now time.Time) bool {
	return u.BannedUntil != nil && u.BannedUntil.After(now)
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	Revoked   bool      `gorm:"not null"               json:"revoked"`
	CreatedAt time.Time `                              json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
