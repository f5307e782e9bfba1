package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrTokenRevoked = errors.New("refresh token expired or revoked")

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Setting{},
		&models.Product{},
		&models.Order{},
		&models.User{},
		&models.RefreshToken{},
		&models.CartRecord{},
		&models.Message{},
	)
}
