package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListSettings(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	if err := r.DB.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var row models.Setting
	if err := r.DB.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) UpsertSetting(ctx context.Context, key string, value *string) (*models.Setting, error) {
	row := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) DeleteSetting(ctx context.Context, key string) error {
	res := r.DB.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
