package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem amounts are minor currency units.
type OrderItem struct {
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Amount    int64  `json:"amount"`
}

type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"           json:"id"`
	StripeSessionID string      `gorm:"uniqueIndex;not null"           json:"stripe_session_id"`
	PaymentIntentID string      `gorm:"index"                          json:"payment_intent_id"`
	CustomerEmail   string      `gorm:"index"                          json:"customer_email"`
	CustomerName    string      `                                      json:"customer_name"`
	ShippingAddress *Address    `gorm:"serializer:json"                json:"shipping_address"`
	Items           []OrderItem `gorm:"serializer:json;not null"       json:"items"`
	Subtotal        int64       `gorm:"not null"                       json:"subtotal"`
	Shipping        int64       `gorm:"not null"                       json:"shipping"`
	Total           int64       `gorm:"not null"                       json:"total"`
	Currency        string      `gorm:"size:3;not null"                json:"currency"`
	Status          OrderStatus `gorm:"index;not null"                 json:"status"`
	TrackingNumber  *string     `                                      json:"tracking_number"`
	UserID          *uuid.UUID  `gorm:"type:uuid;index"                json:"user_id"`
	CreatedAt       time.Time   `gorm:"index"                          json:"created_at"`
	UpdatedAt       time.Time   `                                      json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}
