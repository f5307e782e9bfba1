package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
)

const whsec = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	_, err := mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	require.NoError(t, err)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(eventType, status string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_test_1",
  "object": "event",
  "api_version": "2020-08-27",
  "type": %q,
  "data": {"object": {
    "id": "cs_test_123",
    "object": "checkout.session",
    "payment_status": %q,
    "metadata": {"user_id": "5b6c0a1e-8f0d-4f63-9a8e-2c1f0e4b7d11"}
  }}
}`, eventType, status))
}

func TestStripe_ParseWebhook_Valid(t *testing.T) {
	p := NewStripe("sk_test_x", whsec)
	payload := checkoutEvent(EventCheckoutCompleted, "paid")

	ev, err := p.ParseWebhook(payload, signedHeader(t, payload, whsec, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "evt_test_1", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_test_123", ev.SessionID)
	assert.Equal(t, "paid", ev.PaymentStatus)
	assert.Equal(t, "5b6c0a1e-8f0d-4f63-9a8e-2c1f0e4b7d11", ev.Metadata["user_id"])
	assert.True(t, ev.SettlesCheckout())
}

func TestStripe_ParseWebhook_Rejections(t *testing.T) {
	payload := checkoutEvent(EventCheckoutCompleted, "paid")

	tests := []struct {
		name    string
		secret  string
		header  string
		wantErr error
	}{
		{name: "secret not configured", secret: "", header: signedHeader(t, payload, whsec, time.Now()), wantErr: ErrWebhookSecretMissing},
		{name: "missing header", secret: whsec, header: "", wantErr: ErrInvalidSignature},
		{name: "garbage header", secret: whsec, header: "nonsense", wantErr: ErrInvalidSignature},
		{name: "wrong secret", secret: whsec, header: signedHeader(t, payload, "whsec_other", time.Now()), wantErr: ErrInvalidSignature},
		{name: "too old", secret: whsec, header: signedHeader(t, payload, whsec, time.Now().Add(-time.Hour)), wantErr: ErrInvalidSignature},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewStripe("sk_test_x", tt.secret).ParseWebhook(payload, tt.header)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStripe_ParseWebhook_OtherEventType(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	ev, err := NewStripe("sk_test_x", whsec).ParseWebhook(payload, signedHeader(t, payload, whsec, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.False(t, ev.SettlesCheckout())
}

func TestStripe_ParseWebhook_Malformed(t *testing.T) {
	payload := []byte(`{not json`)

	_, err := NewStripe("sk_test_x", whsec).ParseWebhook(payload, signedHeader(t, payload, whsec, time.Now()))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

const sessionFixture = `{
  "id": "cs_test_123",
  "object": "checkout.session",
  "payment_status": "paid",
  "currency": "usd",
  "amount_subtotal": 4999,
  "amount_total": 5998,
  "payment_intent": "pi_123",
  "customer_details": {
    "email": "ada@example.com",
    "name": "Ada Lovelace",
    "phone": "+15555550100",
    "address": {"line1": "1 Billing Rd", "city": "Boston", "postal_code": "02110", "country": "US"}
  },
  "total_details": {"amount_shipping": 999, "amount_discount": 0, "amount_tax": 0},
  "line_items": {
    "object": "list",
    "has_more": false,
    "data": [
      {"id": "li_1", "object": "item", "description": "Desk Lamp", "quantity": 1, "amount_subtotal": 2999, "amount_total": 2999, "price": {"id": "price_lamp", "object": "price", "unit_amount": 2999}},
      {"id": "li_2", "object": "item", "description": "Bulb", "quantity": 2, "amount_subtotal": 2000, "amount_total": 2000}
    ]
  },
  "metadata": {"user_id": "abc"}
}`

func TestSessionFromStripe(t *testing.T) {
	var cs stripe.CheckoutSession
	require.NoError(t, json.Unmarshal([]byte(sessionFixture), &cs))

	s := sessionFromStripe(&cs)

	assert.True(t, s.Paid())
	assert.Equal(t, "usd", s.Currency)
	assert.Equal(t, int64(4999), s.AmountSubtotal)
	assert.Equal(t, int64(999), s.AmountShipping)
	assert.Equal(t, "pi_123", s.PaymentIntentID)
	assert.Equal(t, "ada@example.com", s.CustomerEmail)
	assert.Equal(t, "Ada Lovelace", s.CustomerName)
	require.NotNil(t, s.CustomerAddress)
	assert.Equal(t, "Boston", s.CustomerAddress.City)
	assert.Nil(t, s.Shipping)

	require.Len(t, s.Lines, 2)
	assert.Equal(t, SessionLine{Description: "Desk Lamp", Quantity: 1, UnitAmount: 2999, AmountTotal: 2999}, s.Lines[0])
	assert.Equal(t, int64(1000), s.Lines[1].UnitAmount)
}

func TestSessionFromStripe_ShippingDetails(t *testing.T) {
	raw := `{"id":"cs_1","object":"checkout.session","payment_status":"unpaid",
	  "shipping_details":{"name":"Grace Hopper","address":{"line1":"2 Ship St","city":"Arlington","postal_code":"22201","country":"US"}}}`
	var cs stripe.CheckoutSession
	require.NoError(t, json.Unmarshal([]byte(raw), &cs))

	s := sessionFromStripe(&cs)
	assert.False(t, s.Paid())
	require.NotNil(t, s.Shipping)
	assert.Equal(t, "Grace Hopper", s.Shipping.Name)
	assert.Equal(t, "2 Ship St", s.Shipping.Address.Line1)
}

func TestCustomerParams(t *testing.T) {
	cp := customerParams(Customer{
		Email:   "ada@example.com",
		Name:    "Ada",
		Phone:   "+1555",
		Address: &Address{Line1: "1 Main", City: "Boston", PostalCode: "02110", Country: "US"},
	})

	assert.Equal(t, "ada@example.com", *cp.Email)
	require.NotNil(t, cp.Address)
	assert.Equal(t, "Boston", *cp.Address.City)
	assert.Nil(t, cp.Address.Line2)
	require.NotNil(t, cp.Shipping)
	assert.Equal(t, "Ada", *cp.Shipping.Name)
	assert.Equal(t, "+1555", *cp.Shipping.Phone)

	bare := customerParams(Customer{Email: "x@example.com"})
	assert.Nil(t, bare.Address)
	assert.Nil(t, bare.Shipping)
	assert.Nil(t, bare.Name)
}
