package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	SignatureHeader = "Stripe-Signature"
	maxWebhookBody  = 1 << 16

	verifyFailed = "Payment verification failed"
)

type PaymentHTTP struct {
	Orders   *service.OrderService
	Payments payment.Processor
	Carts    *service.CartService
}

// Webhook settles paid checkout sessions. The signature is checked before
// anything else touches the payload.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		l.Warn("webhook_error", "status", 400, "reason", "unreadable body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	// A truncated payload would only fail the signature check and be retried forever.
	if len(payload) > maxWebhookBody {
		l.Warn("webhook_error", "status", 413, "reason", "payload too large", "limit", maxWebhookBody)
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	}

	ev, err := h.Payments.ParseWebhook(payload, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrWebhookSecretMissing):
			l.Error("webhook_error", "status", 401, "reason", "webhook secret not configured")
			return echo.NewHTTPError(http.StatusUnauthorized, "webhook not configured")
		case errors.Is(err, payment.ErrInvalidSignature):
			l.Warn("webhook_error", "status", 401, "reason", "invalid signature", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
		default:
			l.Warn("webhook_error", "status", 400, "reason", "malformed event", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "malformed event")
		}
	}
	l = l.With("event_id", ev.ID, "event_type", ev.Type)

	if !ev.SettlesCheckout() {
		l.Info("webhook_ignored")
		return c.JSON(http.StatusOK, transport.WebhookAck{Received: true})
	}
	// Delayed payment methods complete the session unpaid; the async success event follows.
	if ev.Type == payment.EventCheckoutCompleted && ev.PaymentStatus != "" && ev.PaymentStatus != payment.PaymentStatusPaid {
		l.Info("webhook_awaiting_payment", "session_id", ev.SessionID, "payment_status", ev.PaymentStatus)
		return c.JSON(http.StatusOK, transport.WebhookAck{Received: true})
	}

	orderID, err := h.Orders.Reconcile(ctx, ev.SessionID, nil)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotCompleted) {
			l.Warn("webhook_error", "status", 400, "reason", "payment not completed", "session_id", ev.SessionID, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "payment not completed")
		}
		l.Error("webhook_error", "status", 500, "reason", "reconcile failed", "session_id", ev.SessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, verifyFailed)
	}

	l.Info("webhook_success", "session_id", ev.SessionID, "order_id", orderID)
	return c.JSON(http.StatusOK, transport.WebhookAck{Received: true})
}

// Verify is called by the browser after the redirect back from the payment page.
// The account comes from the auth cookie or the session metadata; the body's
// userId is only compared against them.
func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		l.Warn("verify_error", "status", 400, "reason", "sessionId required")
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId required")
	}

	acct, _ := accountID(c)
	if acct != nil && req.UserID != "" && req.UserID != acct.String() {
		l.Warn("verify_user_mismatch", "session_id", sessionID, "body_user_id", req.UserID)
	}

	orderID, err := h.Orders.Reconcile(ctx, sessionID, acct)
	if err != nil {
		l.Error("verify_error", "status", 500, "reason", "reconcile failed", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, verifyFailed)
	}

	if owner := cartOwner(c, false); owner != "" && h.Carts != nil {
		if err := h.Carts.Clear(ctx, owner); err != nil {
			l.Warn("verify_clear_cart_error", "error", err)
		}
	}

	l.Info("verify_success", "session_id", sessionID, "order_id", orderID)
	return c.JSON(http.StatusOK, transport.VerifyResponse{Success: true, OrderID: orderID})
}
