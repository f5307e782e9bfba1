package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const MetadataUserID = "user_id"

type CheckoutService struct {
	Repo     *repo.GormRepo
	Payments payment.Processor
	Prices   *payment.PriceTable
	Settings *SettingsService
	BaseURL  string
}

func (s *CheckoutService) successURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

func (s *CheckoutService) cancelURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/cart"
}

// CreateSession maps the cart lines to processor prices and returns the hosted payment URL.
func (s *CheckoutService) CreateSession(ctx context.Context, req transport.CheckoutRequest, accountID *uuid.UUID) (string, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.create_session")

	if len(req.Items) == 0 {
		return "", fmt.Errorf("%w: items required", ErrValidation)
	}

	// Lines for the same price are combined; variants share a price id.
	lines := make([]payment.LineItem, 0, len(req.Items))
	index := make(map[string]int, len(req.Items))
	ids := make([]uuid.UUID, 0, len(req.Items))
	qty := make(map[uuid.UUID]int64, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == uuid.Nil {
			return "", fmt.Errorf("%w: productId required", ErrValidation)
		}
		if it.Quantity <= 0 || it.Quantity > cart.MaxQuantity {
			return "", fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, cart.MaxQuantity)
		}
		priceID, err := s.Prices.Lookup(it.ProductID.String())
		if err != nil {
			return "", err
		}
		if i, ok := index[priceID]; ok {
			lines[i].Quantity += it.Quantity
			if lines[i].Quantity > cart.MaxQuantity {
				return "", fmt.Errorf("%w: quantity must be at most %d per product", ErrValidation, cart.MaxQuantity)
			}
		} else {
			index[priceID] = len(lines)
			lines = append(lines, payment.LineItem{PriceID: priceID, Quantity: it.Quantity})
		}
		if _, ok := qty[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}

	st := s.Settings.LoadOrDefaults(ctx)

	subtotal, err := s.subtotal(ctx, ids, qty)
	if err != nil {
		return "", err
	}
	shipping := &payment.ShippingOption{DisplayName: "Standard shipping", Amount: st.ShippingCost}
	if st.FreeShippingThreshold > 0 && subtotal >= st.FreeShippingThreshold {
		shipping = &payment.ShippingOption{DisplayName: "Free shipping", Amount: 0}
	}

	currency := st.Currency
	if s.Prices != nil && s.Prices.Currency != "" {
		currency = s.Prices.Currency
	}

	sr := payment.SessionRequest{
		Lines:            lines,
		Currency:         currency,
		Shipping:         shipping,
		AllowedCountries: st.ShippingCountries,
		SuccessURL:       s.successURL(),
		CancelURL:        s.cancelURL(),
		Metadata:         map[string]string{},
	}
	if accountID != nil {
		sr.Metadata[MetadataUserID] = accountID.String()
	}

	if ci := req.CustomerInfo; ci != nil && strings.TrimSpace(ci.Email) != "" {
		cust := payment.Customer{
			Email: strings.TrimSpace(ci.Email),
			Name:  strings.TrimSpace(ci.Name),
			Phone: strings.TrimSpace(ci.Phone),
		}
		if a := ci.Address; a != nil {
			cust.Address = &payment.Address{
				Line1:      a.Line1,
				Line2:      a.Line2,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Country:    strings.ToUpper(a.Country),
			}
		}
		customerID, err := s.Payments.FindOrCreateCustomer(ctx, cust)
		if err != nil {
			l.Warn("customer_prefill_error", "reason", "continuing with email only", "error", err)
			sr.CustomerEmail = cust.Email
		} else {
			sr.CustomerID = customerID
		}
	}

	created, err := s.Payments.CreateSession(ctx, sr)
	if err != nil {
		return "", err
	}
	l.Info("checkout_session_created", "session_id", created.ID, "lines", len(lines))
	return created.URL, nil
}

func (s *CheckoutService) subtotal(ctx context.Context, ids []uuid.UUID, qty map[uuid.UUID]int64) (int64, error) {
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range products {
		q := qty[p.ID]
		if p.Price <= 0 || q <= 0 {
			continue
		}
		if p.Price > (math.MaxInt64-total)/q {
			return 0, fmt.Errorf("%w: order total too large", ErrValidation)
		}
		total += p.Price * q
	}
	return total, nil
}
