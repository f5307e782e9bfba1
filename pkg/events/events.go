package events

import (
	"context"
	"errors"
	"time"
)

const (
	TopicOrders   = "order_events"
	TopicProducts = "product_events"
	TopicUsers    = "user_events"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Discard drops every event. Used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, string, any) error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic, key string, event any) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, topic, key, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	OrderCreated       = "order_created"
	OrderStatusChanged = "order_status_changed"
	ProductCreated     = "product_created"
	ProductUpdated     = "product_updated"
	ProductDeleted     = "product_deleted"
	UserRegistered     = "user_registered"
	UserBanned         = "user_banned"
	UserDeleted        = "user_deleted"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"prev_status,omitempty"`
	Total      int64     `json:"total"`
	Currency   string    `json:"currency"`
	Email      string    `json:"customer_email,omitempty"`
	At         time.Time `json:"at"`
}

type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     int64     `json:"price,omitempty"`
	At        time.Time `json:"at"`
}

type UserEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	At     time.Time `json:"at"`
}
