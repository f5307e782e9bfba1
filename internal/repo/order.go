package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderFilter struct {
	Status models.OrderStatus
	UserID *uuid.UUID
	Email  string
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Email != "" {
		q = q.Where("LOWER(customer_email) = LOWER(?)", f.Email)
	}
	return q
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// UpdateOrder locks the row, lets fn mutate it and saves the result.
func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fn func(o *models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		if err := fn(&order); err != nil {
			return err
		}
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OrdersSince returns non-cancelled orders created at or after since, oldest first.
func (r *GormRepo) OrdersSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Select("id", "total", "currency", "status", "created_at").
		Where("created_at >= ? AND status <> ?", since, models.OrderStatusCancelled).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// RevenueTotals sums totals and counts orders, ignoring cancelled ones.
func (r *GormRepo) RevenueTotals(ctx context.Context) (revenue int64, count int64, err error) {
	var row struct {
		Revenue int64
		Count   int64
	}
	err = r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS count").
		Where("status <> ?", models.OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Revenue, row.Count, nil
}

func (r *GormRepo) StatusCounts(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func clearOrderOwner(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.Order{}).Where("user_id = ?", userID).Update("user_id", nil).Error
}
