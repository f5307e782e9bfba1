package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateMessage(ctx context.Context, m *models.Message) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *GormRepo) ListMessages(ctx context.Context, unreadOnly bool, offset, limit int) (int64, []models.Message, error) {
	q := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Message{})
		if unreadOnly {
			q = q.Where("read = ?", false)
		}
		return q
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return 0, nil, err
	}
	msgs := make([]models.Message, 0, limit)
	if err := q().Order("created_at DESC").Offset(offset).Limit(limit).Find(&msgs).Error; err != nil {
		return 0, nil, err
	}
	return total, msgs, nil
}

func (r *GormRepo) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
