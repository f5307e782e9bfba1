package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
)

func UserCartKey(id uuid.UUID) string  { return "user:" + id.String() }
func GuestCartKey(id uuid.UUID) string { return "guest:" + id.String() }

// LoadCart returns the saved cart for owner, or an empty cart when none exists.
func (r *GormRepo) LoadCart(ctx context.Context, owner string) (cart.Cart, error) {
	var rec models.CartRecord
	err := r.DB.WithContext(ctx).Where("owner_key = ?", owner).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.Cart{Items: []cart.Item{}}, nil
	}
	if err != nil {
		return cart.Cart{}, err
	}
	return cart.Normalize(cart.Cart{Items: rec.Items}), nil
}

func (r *GormRepo) SaveCart(ctx context.Context, owner string, c cart.Cart) error {
	return saveCart(r.DB.WithContext(ctx), owner, c)
}

func saveCart(db *gorm.DB, owner string, c cart.Cart) error {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	rec := models.CartRecord{OwnerKey: owner, Items: items, UpdatedAt: time.Now().UTC()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
	}).Create(&rec).Error
}

// UpdateCart serializes changes to one owner's cart. The row is created when
// missing and locked; fn gets the current cart and a save func bound to the
// same transaction. An error from fn rolls back every save it made.
func (r *GormRepo) UpdateCart(ctx context.Context, owner string, fn func(current cart.Cart, save func(cart.Cart) error) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.CartRecord{OwnerKey: owner, Items: []cart.Item{}, UpdatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var rec models.CartRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("owner_key = ?", owner).First(&rec).Error; err != nil {
			return err
		}

		return fn(cart.Normalize(cart.Cart{Items: rec.Items}), func(c cart.Cart) error {
			return saveCart(tx, owner, c)
		})
	})
}

func (r *GormRepo) DeleteCart(ctx context.Context, owner string) error {
	return r.DB.WithContext(ctx).Where("owner_key = ?", owner).Delete(&models.CartRecord{}).Error
}
