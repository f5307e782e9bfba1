package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Stripe implements Processor with Stripe Checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*CreatedSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		},
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	for _, l := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(l.PriceID),
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
		params.CustomerUpdate = &stripe.CheckoutSessionCustomerUpdateParams{
			Address:  stripe.String("auto"),
			Name:     stripe.String("auto"),
			Shipping: stripe.String("auto"),
		}
	} else {
		params.CustomerCreation = stripe.String("always")
		if req.CustomerEmail != "" {
			params.CustomerEmail = stripe.String(req.CustomerEmail)
		}
	}

	if req.Shipping != nil {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(req.Shipping.DisplayName),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(req.Shipping.Amount),
					Currency: stripe.String(req.Currency),
				},
			},
		}}
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &CreatedSession{ID: cs.ID, URL: cs.URL}, nil
}

func (s *Stripe) FindOrCreateCustomer(ctx context.Context, c Customer) (string, error) {
	if c.Email == "" {
		return "", fmt.Errorf("stripe: customer email required")
	}

	lp := &stripe.CustomerListParams{Email: stripe.String(c.Email)}
	lp.Limit = stripe.Int64(1)
	lp.Context = ctx

	var existing *stripe.Customer
	it := s.api.Customers.List(lp)
	if it.Next() {
		existing = it.Customer()
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("stripe: list customers: %w", err)
	}

	cp := customerParams(c)
	cp.Context = ctx

	if existing != nil {
		cu, err := s.api.Customers.Update(existing.ID, cp)
		if err != nil {
			return "", fmt.Errorf("stripe: update customer: %w", err)
		}
		return cu.ID, nil
	}

	cu, err := s.api.Customers.New(cp)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return cu.ID, nil
}

func customerParams(c Customer) *stripe.CustomerParams {
	cp := &stripe.CustomerParams{Email: stripe.String(c.Email)}
	if c.Name != "" {
		cp.Name = stripe.String(c.Name)
	}
	if c.Phone != "" {
		cp.Phone = stripe.String(c.Phone)
	}
	if !c.Address.Empty() {
		addr := addressParams(c.Address)
		cp.Address = addr
		cp.Shipping = &stripe.CustomerShippingParams{
			Name:    stripe.String(c.Name),
			Address: addressParams(c.Address),
		}
		if c.Phone != "" {
			cp.Shipping.Phone = stripe.String(c.Phone)
		}
	}
	return cp
}

func addressParams(a *Address) *stripe.AddressParams {
	p := &stripe.AddressParams{
		Line1:      stripe.String(a.Line1),
		City:       stripe.String(a.City),
		PostalCode: stripe.String(a.PostalCode),
		Country:    stripe.String(a.Country),
	}
	if a.Line2 != "" {
		p.Line2 = stripe.String(a.Line2)
	}
	if a.State != "" {
		p.State = stripe.String(a.State)
	}
	return p
}

func (s *Stripe) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("line_items")
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session: %w", err)
	}

	out := sessionFromStripe(cs)

	if cs.LineItems != nil && cs.LineItems.HasMore {
		lp := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(id)}
		lp.Context = ctx
		out.Lines = out.Lines[:0]
		it := s.api.CheckoutSessions.ListLineItems(lp)
		for it.Next() {
			out.Lines = append(out.Lines, lineFromStripe(it.LineItem()))
		}
		if err := it.Err(); err != nil {
			return nil, fmt.Errorf("stripe: list line items: %w", err)
		}
	}
	return out, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, ErrWebhookSecretMissing
	}
	if strings.TrimSpace(signature) == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") {
		if ev.Data == nil {
			return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
		}
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.SessionID = cs.ID
		out.PaymentStatus = string(cs.PaymentStatus)
		out.Metadata = cs.Metadata
	}
	return out, nil
}

func sessionFromStripe(cs *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:             cs.ID,
		PaymentStatus:  string(cs.PaymentStatus),
		Currency:       strings.ToLower(string(cs.Currency)),
		AmountSubtotal: cs.AmountSubtotal,
		AmountTotal:    cs.AmountTotal,
		CustomerEmail:  cs.CustomerEmail,
		Metadata:       cs.Metadata,
	}
	if cs.TotalDetails != nil {
		out.AmountShipping = cs.TotalDetails.AmountShipping
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntentID = cs.PaymentIntent.ID
	}
	if cd := cs.CustomerDetails; cd != nil {
		if cd.Email != "" {
			out.CustomerEmail = cd.Email
		}
		out.CustomerName = cd.Name
		out.CustomerPhone = cd.Phone
		out.CustomerAddress = addressFromStripe(cd.Address)
	}
	if sd := cs.ShippingDetails; sd != nil && sd.Address != nil {
		out.Shipping = &ShippingDetails{
			Name:    sd.Name,
			Address: addressFromStripe(sd.Address),
		}
	}
	if cs.LineItems != nil {
		for _, li := range cs.LineItems.Data {
			out.Lines = append(out.Lines, lineFromStripe(li))
		}
	}
	return out
}

func lineFromStripe(li *stripe.LineItem) SessionLine {
	l := SessionLine{
		Description: li.Description,
		Quantity:    li.Quantity,
		AmountTotal: li.AmountTotal,
	}
	if li.Price != nil {
		l.UnitAmount = li.Price.UnitAmount
	}
	if l.UnitAmount == 0 && l.Quantity > 0 {
		l.UnitAmount = li.AmountSubtotal / l.Quantity
	}
	return l
}

func addressFromStripe(a *stripe.Address) *Address {
	if a == nil {
		return nil
	}
	out := &Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
	if out.Empty() {
		return nil
	}
	return out
}
