// Package payment talks to the hosted-checkout payment processor.
package payment

import (
	"context"
	"errors"
)

var (
	ErrUnknownProduct       = errors.New("unknown product")
	ErrWebhookSecretMissing = errors.New("webhook secret not configured")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrMalformedEvent       = errors.New("malformed webhook event")
)

const PaymentStatusPaid = "paid"

const (
	EventCheckoutCompleted           = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceed = "checkout.session.async_payment_succeeded"
)

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a *Address) Empty() bool {
	return a == nil || (a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Country == "")
}

type Customer struct {
	Email   string
	Name    string
	Phone   string
	Address *Address
}

type LineItem struct {
	PriceID  string
	Quantity int64
}

type ShippingOption struct {
	DisplayName string
	Amount      int64
}

type SessionRequest struct {
	Lines            []LineItem
	Currency         string
	CustomerID       string
	CustomerEmail    string
	Shipping         *ShippingOption
	AllowedCountries []string
	SuccessURL       string
	CancelURL        string
	Metadata         map[string]string
}

type CreatedSession struct {
	ID  string
	URL string
}

type SessionLine struct {
	Description string
	Quantity    int64
	UnitAmount  int64
	AmountTotal int64
}

type ShippingDetails struct {
	Name    string
	Address *Address
}

// Session is the processor's view of a checkout attempt. Amounts are minor units.
type Session struct {
	ID              string
	PaymentStatus   string
	PaymentIntentID string
	Currency        string
	AmountSubtotal  int64
	AmountShipping  int64
	AmountTotal     int64
	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress *Address
	Shipping        *ShippingDetails
	Lines           []SessionLine
	Metadata        map[string]string
}

func (s *Session) Paid() bool {
	return s != nil && s.PaymentStatus == PaymentStatusPaid
}

// Event is a verified webhook delivery. Session fields are set for checkout.session.* events.
type Event struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
	Metadata      map[string]string
}

// SettlesCheckout reports whether the event can materialize an order.
func (e *Event) SettlesCheckout() bool {
	switch e.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncPaymentSucceed:
		return e.SessionID != ""
	}
	return false
}

type Processor interface {
	CreateSession(ctx context.Context, req SessionRequest) (*CreatedSession, error)
	FindOrCreateCustomer(ctx context.Context, c Customer) (string, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
