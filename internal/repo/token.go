package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) refreshExpiredOrRevoked(tx *gorm.DB, jti string, now time.Time) (bool, error) {
	var refresh models.RefreshToken
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("jti = ?", jti).First(&refresh).Error; err != nil {
		return false, err
	}
	return refresh.Revoked || !refresh.ExpiresAt.After(now), nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired, err := r.refreshExpiredOrRevoked(tx, oldJTI, time.Now())
		if err != nil {
			return err
		}
		if expired {
			return ErrTokenRevoked
		}
		if err := tx.Model(&models.RefreshToken{}).Where("jti = ?", oldJTI).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}
