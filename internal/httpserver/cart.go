package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/money"
)

type CartHTTP struct {
	Svc      *service.CartService
	Settings *service.SettingsService
}

func (h *CartHTTP) render(c echo.Context, status int, ct cart.Cart) error {
	currency := h.Settings.LoadOrDefaults(c.Request().Context()).Currency
	items := ct.Items
	if items == nil {
		items = []cart.Item{}
	}
	return c.JSON(status, transport.CartResponse{
		Items:          items,
		TotalItems:     ct.TotalItems(),
		TotalPrice:     ct.TotalPrice(),
		TotalFormatted: money.Format(ct.TotalPrice(), currency),
		Currency:       currency,
	})
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	owner := cartOwner(c, false)
	if owner == "" {
		return h.render(c, http.StatusOK, cart.Cart{})
	}

	ct, err := h.Svc.Get(ctx, owner)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("get_cart_success", "items", len(ct.Items))
	return h.render(c, http.StatusOK, ct)
}

func (h *CartHTTP) bindItem(c echo.Context, l *slog.Logger, event string) (transport.CartItemRequest, error) {
	var req transport.CartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == uuid.Nil {
		l.Warn(event, "status", 400, "reason", "productId required")
		return req, echo.NewHTTPError(http.StatusBadRequest, "productId required")
	}
	return req, nil
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	req, err := h.bindItem(c, l, "add_item_error")
	if err != nil {
		return err
	}

	ct, err := h.Svc.Add(ctx, cartOwner(c, true), req.ProductID, req.SelectedColor)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrQuantityLimit):
			l.Warn("add_item_error", "status", 400, "reason", "quantity limit", "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("quantity must be at most %d", cart.MaxQuantity))
		case errors.Is(err, service.ErrValidation):
			l.Warn("add_item_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "product unavailable")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("add_item_error", "status", 404, "reason", "product not found", "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		default:
			l.Error("add_item_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("add_item_success", "product_id", req.ProductID)
	return h.render(c, http.StatusOK, ct)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	req, err := h.bindItem(c, l, "set_quantity_error")
	if err != nil {
		return err
	}
	owner := cartOwner(c, false)
	if owner == "" {
		l.Warn("set_quantity_error", "status", 404, "reason", "no cart")
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	}

	ct, err := h.Svc.SetQuantity(ctx, owner, req.ProductID, req.SelectedColor, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("set_quantity_error", "status", 400, "reason", "quantity too large", "quantity", req.Quantity)
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("quantity must be at most %d", cart.MaxQuantity))
		}
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("set_quantity_error", "status", 404, "reason", "item not in cart", "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
		}
		l.Error("set_quantity_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("set_quantity_success", "product_id", req.ProductID, "quantity", req.Quantity)
	return h.render(c, http.StatusOK, ct)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	req, err := h.bindItem(c, l, "remove_item_error")
	if err != nil {
		return err
	}
	owner := cartOwner(c, false)
	if owner == "" {
		l.Warn("remove_item_error", "status", 404, "reason", "no cart")
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	}

	ct, err := h.Svc.Remove(ctx, owner, req.ProductID, req.SelectedColor)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("remove_item_error", "status", 404, "reason", "item not in cart", "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
		}
		l.Error("remove_item_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("remove_item_success", "product_id", req.ProductID)
	return h.render(c, http.StatusOK, ct)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if owner := cartOwner(c, false); owner != "" {
		if err := h.Svc.Clear(ctx, owner); err != nil {
			l.Error("clear_cart_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}
