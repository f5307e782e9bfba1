package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

const validSignature = "t=1,v1=valid"

type fakeProcessor struct {
	mu            sync.Mutex
	sessions      map[string]*payment.Session
	getCalls      int
	created       []payment.SessionRequest
	secretMissing bool
	getErr        error
}

func (f *fakeProcessor) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.CreatedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &payment.CreatedSession{ID: "cs_new", URL: "https://checkout.example/pay/cs_new"}, nil
}

func (f *fakeProcessor) FindOrCreateCustomer(context.Context, payment.Customer) (string, error) {
	return "cus_123", nil
}

func (f *fakeProcessor) GetSession(_ context.Context, id string) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProcessor) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if f.secretMissing {
		return nil, payment.ErrWebhookSecretMissing
	}
	if signature != validSignature {
		return nil, payment.ErrInvalidSignature
	}
	var raw struct {
		ID            string `json:"id"`
		Type          string `json:"type"`
		SessionID     string `json:"session_id"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil || raw.Type == "" {
		return nil, payment.ErrMalformedEvent
	}
	return &payment.Event{ID: raw.ID, Type: raw.Type, SessionID: raw.SessionID, PaymentStatus: raw.PaymentStatus}, nil
}

func (f *fakeProcessor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Email
}

func (m *fakeMailer) Send(_ context.Context, e notify.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Repo   *repo.GormRepo
	Pay    *fakeProcessor
	Mail   *fakeMailer
	Prices *payment.PriceTable
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := testutil.NewRepo(t)
	pay := &fakeProcessor{sessions: map[string]*payment.Session{}}
	mail := &fakeMailer{}
	prices := &payment.PriceTable{Currency: "usd", Prices: map[string]string{}}

	settingsSvc := &service.SettingsService{Repo: r}
	carts := &service.CartService{Repo: r}
	accounts := &service.AccountService{
		Repo:          r,
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
	orders := &service.OrderService{Repo: r, Payments: pay, Mailer: mail, Settings: settingsSvc}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = false

	e := echo.New()
	e.Use(loggingmw.RequestLogger(logging.NewWithWriter(io.Discard, "error")))
	Register(e, &Deps{
		DB:             r.DB,
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Settings: settingsSvc}},
		CartHandler:    &CartHTTP{Svc: carts, Settings: settingsSvc},
		CheckoutHandler: &CheckoutHTTP{
			Svc: &service.CheckoutService{
				Repo:     r,
				Payments: pay,
				Prices:   prices,
				Settings: settingsSvc,
				BaseURL:  "https://shop.example",
			},
			Carts:    carts,
			Accounts: accounts,
		},
		PaymentHandler:  &PaymentHTTP{Orders: orders, Payments: pay, Carts: carts},
		AccountHandler:  &AccountHTTP{Svc: accounts, Carts: carts},
		OrderHandler:    &OrderHTTP{Svc: orders},
		AdminHandler:    &AdminHTTP{Svc: &service.AdminService{Repo: r, Settings: settingsSvc}},
		SettingsHandler: &SettingsHTTP{Svc: settingsSvc},
		MessageHandler:  &MessageHTTP{Svc: &service.MessageService{Repo: r}},
		JWTSecret:       accounts.AccessSecret,
		Refresher:       accounts,
		CSRF:            csrfCfg,
	})

	return &testEnv{T: t, E: e, Repo: r, Pay: pay, Mail: mail, Prices: prices}
}

func (env *testEnv) doJSONRequest(method, path string, body any, header map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (env *testEnv) addProduct(name string, price int64) *models.Product {
	env.T.Helper()
	p, err := env.Repo.CreateProduct(context.Background(), &models.Product{Name: name, Price: price, InStock: true})
	require.NoError(env.T, err)
	env.Prices.Prices[p.ID.String()] = "price_" + name
	return p
}

func (env *testEnv) createUser(email, password, role string) *models.User {
	env.T.Helper()
	h, err := pkg_hash.HashPassword(password)
	require.NoError(env.T, err)
	u := &models.User{Email: email, PasswordHash: h, Role: role}
	require.NoError(env.T, env.Repo.CreateUserIfNotExists(context.Background(), u))
	return u
}

// login returns the auth cookies plus any extra cookies sent with the request.
func (env *testEnv) login(email, password string, extra ...*http.Cookie) []*http.Cookie {
	env.T.Helper()
	rec := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, nil, extra...)
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())
	access := responseCookie(rec, "accessToken")
	refresh := responseCookie(rec, "refreshToken")
	require.NotNil(env.T, access)
	require.NotNil(env.T, refresh)
	return []*http.Cookie{access, refresh}
}

func (env *testEnv) countOrders() int64 {
	env.T.Helper()
	var n int64
	require.NoError(env.T, env.Repo.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func paidSession(id string) *payment.Session {
	return &payment.Session{
		ID:             id,
		PaymentStatus:  payment.PaymentStatusPaid,
		Currency:       "usd",
		AmountSubtotal: 4999,
		AmountShipping: 999,
		CustomerEmail:  "ada@example.com",
		CustomerName:   "Ada",
		Lines:          []payment.SessionLine{{Description: "Desk Lamp", Quantity: 1, UnitAmount: 4999, AmountTotal: 4999}},
	}
}

func webhookBody(eventType, sessionID, status string) []byte {
	b, _ := json.Marshal(map[string]string{
		"id":             "evt_1",
		"type":           eventType,
		"session_id":     sessionID,
		"payment_status": status,
	})
	return b
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/live", nil, nil).Code)
	require.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/ready", nil, nil).Code)
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodGet, "/api/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]string](t, rec)
	require.NotEmpty(t, body["error"])
}

func TestWebhook_RejectsUnsignedBeforeTouchingOrders(t *testing.T) {
	env := newTestEnv(t)
	env.Pay.sessions["cs_1"] = paidSession("cs_1")
	payload := webhookBody(payment.EventCheckoutCompleted, "cs_1", "paid")

	cases := []struct {
		name   string
		header map[string]string
	}{
		{"missing signature", nil},
		{"bad signature", map[string]string{SignatureHeader: "t=1,v1=forged"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe", payload, tc.header)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "invalid signature", decode[map[string]string](t, rec)["error"])
		})
	}

	require.Zero(t, env.Pay.calls())
	require.Zero(t, env.countOrders())
	require.Zero(t, env.Mail.count())
}

func TestWebhook_SecretMissingFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	env.Pay.secretMissing = true
	env.Pay.sessions["cs_1"] = paidSession("cs_1")

	rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe",
		webhookBody(payment.EventCheckoutCompleted, "cs_1", "paid"),
		map[string]string{SignatureHeader: validSignature})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, env.Pay.calls())
	require.Zero(t, env.countOrders())
}

func TestWebhook_SettlesOnce(t *testing.T) {
	env := newTestEnv(t)
	env.Pay.sessions["cs_1"] = paidSession("cs_1")
	header := map[string]string{SignatureHeader: validSignature}
	payload := webhookBody(payment.EventCheckoutCompleted, "cs_1", "paid")

	for i := 0; i < 2; i++ {
		rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe", payload, header)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.True(t, decode[map[string]bool](t, rec)["received"])
	}

	require.EqualValues(t, 1, env.countOrders())
	require.Equal(t, 1, env.Mail.count())
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe",
		webhookBody("customer.created", "", ""),
		map[string]string{SignatureHeader: validSignature})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, env.Pay.calls())
	require.Zero(t, env.countOrders())
}

func TestWebhook_UnpaidCompletionIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe",
		webhookBody(payment.EventCheckoutCompleted, "cs_1", "unpaid"),
		map[string]string{SignatureHeader: validSignature})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, env.Pay.calls())
	require.Zero(t, env.countOrders())
}

func TestWebhook_AsyncSuccessOnUnpaidSession(t *testing.T) {
	env := newTestEnv(t)
	s := paidSession("cs_1")
	s.PaymentStatus = "unpaid"
	env.Pay.sessions["cs_1"] = s

	rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe",
		webhookBody(payment.EventCheckoutAsyncPaymentSucceed, "cs_1", ""),
		map[string]string{SignatureHeader: validSignature})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, env.countOrders())
}

func TestWebhook_Malformed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe", []byte("{not json"),
		map[string]string{SignatureHeader: validSignature})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "malformed event", decode[map[string]string](t, rec)["error"])
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	env.Pay.sessions["cs_1"] = paidSession("cs_1")

	rec := env.doJSONRequest(http.MethodPost, "/api/payments/verify", map[string]string{"sessionId": ""}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/payments/verify", map[string]string{"sessionId": "cs_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[transportVerify](t, rec)
	require.True(t, first.Success)
	require.NotEmpty(t, first.OrderID)

	// The webhook arriving afterwards resolves to the same order.
	rec = env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe",
		webhookBody(payment.EventCheckoutCompleted, "cs_1", "paid"),
		map[string]string{SignatureHeader: validSignature})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/payments/verify", map[string]string{"sessionId": "cs_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, first.OrderID, decode[transportVerify](t, rec).OrderID)

	require.EqualValues(t, 1, env.countOrders())
	require.Equal(t, 1, env.Mail.count())
}

type transportVerify struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

func TestVerify_FailureIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.Pay.getErr = errors.New("processor down: api key sk_live_secret")

	rec := env.doJSONRequest(http.MethodPost, "/api/payments/verify", map[string]string{"sessionId": "cs_1"}, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Payment verification failed", decode[map[string]string](t, rec)["error"])
	require.NotContains(t, rec.Body.String(), "sk_live")
}

func TestCart_GuestFlow(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.addProduct("lamp", 4999)

	rec := env.doJSONRequest(http.MethodGet, "/api/cart", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, decode[map[string]any](t, rec)["totalItems"])

	rec = env.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": lamp.ID, "selectedColor": "black"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	guest := responseCookie(rec, CartCookie)
	require.NotNil(t, guest)

	rec = env.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": lamp.ID, "selectedColor": "black"}, nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.EqualValues(t, 2, body["totalItems"])
	require.EqualValues(t, 9998, body["totalPrice"])
	require.Equal(t, "$99.98", body["totalFormatted"])

	rec = env.doJSONRequest(http.MethodPatch, "/api/cart/items", map[string]any{"productId": lamp.ID, "selectedColor": "black", "quantity": 5}, nil, guest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 5, decode[map[string]any](t, rec)["totalItems"])

	rec = env.doJSONRequest(http.MethodDelete, "/api/cart/items", map[string]any{"productId": lamp.ID, "selectedColor": "black"}, nil, guest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 0, decode[map[string]any](t, rec)["totalItems"])
}

func TestCart_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": "7f1f3a5e-8b52-4a38-9d6c-8d2f0e4b1c11"}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.addProduct("lamp", 4999)

	rec := env.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": lamp.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	guest := responseCookie(rec, CartCookie)
	require.NotNil(t, guest)

	rec = env.doJSONRequest(http.MethodPost, "/api/checkout", map[string]any{
		"items":        []map[string]any{{"productId": lamp.ID, "quantity": 1}},
		"customerInfo": map[string]any{"email": "ada@example.com", "name": "Ada"},
	}, nil, guest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "https://checkout.example/pay/cs_new", decode[map[string]string](t, rec)["url"])

	require.Len(t, env.Pay.created, 1)
	require.Equal(t, "price_lamp", env.Pay.created[0].Lines[0].PriceID)

	rec = env.doJSONRequest(http.MethodGet, "/api/cart", nil, nil, guest)
	require.EqualValues(t, 0, decode[map[string]any](t, rec)["totalItems"])
}

func TestCheckout_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.addProduct("lamp", 4999)
	delete(env.Prices.Prices, lamp.ID.String())

	rec := env.doJSONRequest(http.MethodPost, "/api/checkout", map[string]any{
		"items":        []map[string]any{{"productId": lamp.ID, "quantity": 1}},
		"customerInfo": map[string]any{"email": "ada@example.com"},
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unknown product", decode[map[string]string](t, rec)["error"])
	require.Empty(t, env.Pay.created)
}

func TestLogin_MergesGuestCart(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.addProduct("lamp", 4999)
	env.createUser("ada@example.com", "correct-horse", "user")

	rec := env.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": lamp.ID}, nil)
	guest := responseCookie(rec, CartCookie)
	require.NotNil(t, guest)

	auth := env.login("ada@example.com", "correct-horse", guest)

	rec = env.doJSONRequest(http.MethodGet, "/api/cart", nil, nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode[map[string]any](t, rec)["totalItems"])

	rec = env.doJSONRequest(http.MethodGet, "/api/me", nil, nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ada@example.com", decode[map[string]any](t, rec)["email"])
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("ada@example.com", "correct-horse", "user")

	rec := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "nope"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, responseCookie(rec, "accessToken"))
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("user@example.com", "correct-horse", "user")
	env.createUser("admin@example.com", "correct-horse", "admin")

	rec := env.doJSONRequest(http.MethodGet, "/api/admin/orders", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/admin/orders", nil, nil, env.login("user@example.com", "correct-horse")...)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/admin/orders", nil, nil, env.login("admin@example.com", "correct-horse")...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, responseCookie(rec, "XSRF-TOKEN"))
}

func TestAdmin_UpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("admin@example.com", "correct-horse", "admin")
	env.Pay.sessions["cs_1"] = paidSession("cs_1")

	rec := env.doJSONRequest(http.MethodPost, "/api/payments/verify", map[string]string{"sessionId": "cs_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orderID := decode[transportVerify](t, rec).OrderID

	cookies := env.login("admin@example.com", "correct-horse")
	body := map[string]string{"status": "shipped", "tracking_number": "TRK1"}
	path := "/api/admin/orders/" + orderID

	// Without the double-submit token the write is refused.
	rec = env.doJSONRequest(http.MethodPatch, path, body, map[string]string{"Origin": "http://example.com"}, cookies...)
	require.Equal(t, http.StatusForbidden, rec.Code)

	xsrf := &http.Cookie{Name: "XSRF-TOKEN", Value: "tok-123"}
	header := map[string]string{"Origin": "http://example.com", "X-CSRF-Token": "tok-123"}

	rec = env.doJSONRequest(http.MethodPatch, path, body, header, append(cookies, xsrf)...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	o := decode[models.Order](t, rec)
	require.Equal(t, models.OrderStatusShipped, o.Status)
	require.NotNil(t, o.TrackingNumber)
	require.Equal(t, "TRK1", *o.TrackingNumber)
	require.Equal(t, 2, env.Mail.count())

	rec = env.doJSONRequest(http.MethodPatch, path, map[string]string{"status": "pending"}, header, append(cookies, xsrf)...)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCart_QuantityAboveLimit(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.addProduct("lamp", 4999)

	rec := env.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": lamp.ID, "selectedColor": "red"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	guest := responseCookie(rec, CartCookie)
	require.NotNil(t, guest)

	rec = env.doJSONRequest(http.MethodPatch, "/api/cart/items",
		map[string]any{"productId": lamp.ID, "selectedColor": "red", "quantity": math.MaxInt64 / 4000}, nil, guest)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.doJSONRequest(http.MethodGet, "/api/cart", nil, nil, guest)
	body := decode[map[string]any](t, rec)
	require.EqualValues(t, 1, body["totalItems"])
	require.EqualValues(t, 4999, body["totalPrice"])
}

func TestWebhook_OversizedPayload(t *testing.T) {
	env := newTestEnv(t)
	env.Pay.sessions["cs_1"] = paidSession("cs_1")

	payload := append(webhookBody(payment.EventCheckoutCompleted, "cs_1", "paid"), bytes.Repeat([]byte(" "), maxWebhookBody)...)
	rec := env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe", payload,
		map[string]string{SignatureHeader: validSignature})

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, env.Pay.calls())
	require.Zero(t, env.countOrders())

	// A payload right at the limit is still accepted.
	exact := webhookBody(payment.EventCheckoutCompleted, "cs_1", "paid")
	exact = append(exact, bytes.Repeat([]byte(" "), maxWebhookBody-len(exact))...)
	rec = env.doJSONRequest(http.MethodPost, "/api/webhooks/stripe", exact,
		map[string]string{SignatureHeader: validSignature})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 1, env.countOrders())
}
