package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CheckoutHTTP struct {
	Svc      *service.CheckoutService
	Carts    *service.CartService
	Accounts *service.AccountService
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create_session")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	acct, _ := accountID(c)
	if req.CustomerInfo == nil && acct != nil && h.Accounts != nil {
		if u, err := h.Accounts.Profile(ctx, *acct); err == nil {
			req.CustomerInfo = service.CustomerInfo(u)
		} else {
			l.Warn("checkout_profile_error", "reason", "continuing without prefill", "error", err)
		}
	}

	url, err := h.Svc.CreateSession(ctx, req, acct)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownProduct):
			l.Warn("checkout_error", "status", 400, "reason", "unknown product", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "unknown product")
		case errors.Is(err, service.ErrValidation):
			l.Warn("checkout_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		default:
			l.Error("checkout_error", "status", 500, "reason", "processor error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create checkout session")
		}
	}

	// The cart is handed off to the payment page.
	if owner := cartOwner(c, false); owner != "" && h.Carts != nil {
		if err := h.Carts.Clear(ctx, owner); err != nil {
			l.Warn("checkout_clear_cart_error", "error", err)
		}
	}

	l.Info("checkout_success")
	return c.JSON(http.StatusOK, transport.CheckoutResponse{URL: url})
}
