package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Checkout and cart payloads use the storefront client's camelCase keys.

type CheckoutItem struct {
	ProductID     uuid.UUID `json:"productId"`
	Quantity      int64     `json:"quantity"`
	SelectedColor string    `json:"selectedColor"`
}

type CustomerAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type CustomerInfo struct {
	Email   string           `json:"email"`
	Name    string           `json:"name"`
	Phone   string           `json:"phone"`
	Address *CustomerAddress `json:"address"`
}

type CheckoutRequest struct {
	Items        []CheckoutItem `json:"items"`
	CustomerInfo *CustomerInfo  `json:"customerInfo"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type VerifyRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type VerifyResponse struct {
	Success bool      `json:"success"`
	OrderID uuid.UUID `json:"orderId"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

type CartItemRequest struct {
	ProductID     uuid.UUID `json:"productId"`
	SelectedColor string    `json:"selectedColor"`
	Quantity      int       `json:"quantity"`
}

type CartResponse struct {
	Items          []cart.Item `json:"items"`
	TotalItems     int         `json:"totalItems"`
	TotalPrice     int64       `json:"totalPrice"`
	TotalFormatted string      `json:"totalFormatted"`
	Currency       string      `json:"currency"`
}

// Admin and account payloads are snake_case.

type UpdateOrderStatusRequest struct {
	Status         models.OrderStatus `json:"status"`
	TrackingNumber *string            `json:"tracking_number"`
}

type CreateProductRequest struct {
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Price         int64              `json:"price"`
	OriginalPrice *int64             `json:"original_price"`
	Category      string             `json:"category"`
	InStock       *bool              `json:"in_stock"`
	Featured      bool               `json:"featured"`
	Rating        float64            `json:"rating"`
	ReviewCount   int                `json:"review_count"`
	Colors        []string           `json:"colors"`
	Specs         string             `json:"specs"`
	Image         string             `json:"image"`
	Gallery       []models.MediaItem `json:"gallery"`
}

type PatchProductRequest struct {
	Name          *string             `json:"name"`
	Description   *string             `json:"description"`
	Price         *int64              `json:"price"`
	OriginalPrice *int64              `json:"original_price"`
	ClearOriginal bool                `json:"clear_original_price"`
	Category      *string             `json:"category"`
	InStock       *bool               `json:"in_stock"`
	Featured      *bool               `json:"featured"`
	Rating        *float64            `json:"rating"`
	ReviewCount   *int                `json:"review_count"`
	Colors        *[]string           `json:"colors"`
	Specs         *string             `json:"specs"`
	Image         *string             `json:"image"`
	Gallery       *[]models.MediaItem `json:"gallery"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	IsAdmin    bool      `json:"is_admin"`
	AccessExp  time.Time `json:"access_exp"`
	RefreshExp time.Time `json:"refresh_exp"`
}

type UpdateProfileRequest struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *models.Address `json:"address"`
}

type BanRequest struct {
	Hours int `json:"hours"`
}

type UserAuthStatus struct {
	UserID       uuid.UUID  `json:"user_id"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Banned       bool       `json:"banned"`
	BannedUntil  *time.Time `json:"banned_until"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type UpsertSettingRequest struct {
	Value *string `json:"value"`
}

type MessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"message"`
}

type MonthlyRevenue struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
	Orders  int64  `json:"orders"`
}

type Analytics struct {
	Currency      string                       `json:"currency"`
	TotalRevenue  int64                        `json:"total_revenue"`
	TotalOrders   int64                        `json:"total_orders"`
	AverageOrder  int64                        `json:"average_order"`
	StatusCounts  map[models.OrderStatus]int64 `json:"status_counts"`
	Monthly       []MonthlyRevenue             `json:"monthly"`
	GrowthPercent *float64                     `json:"growth_percent"`
}
