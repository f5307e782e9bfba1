package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHTTP struct {
	Svc *service.OrderService
}

func orderFilter(c echo.Context) (repo.OrderFilter, error) {
	f := repo.OrderFilter{
		Status: models.OrderStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
		Email:  strings.TrimSpace(c.QueryParam("email")),
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, err
		}
		f.UserID = &id
	}
	return f, nil
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	f, err := orderFilter(c)
	if err != nil {
		l.Warn("list_orders_error", "status", 400, "reason", "invalid user_id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	page, size := pageParams(c)

	res, err := h.Svc.ListOrders(ctx, f, page, size)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("list_orders_error", "status", 400, "reason", "invalid status", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		l.Error("list_orders_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("list_orders_success", "total", res.Meta.Total)
	return c.JSON(http.StatusOK, res)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "reason", "order not found", "order_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("get_order_success", "order_id", id)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order_status")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req.Status, req.TrackingNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_status_error", "status", 400, "reason", "invalid status", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_status_error", "status", 404, "reason", "order not found", "order_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrInvalidTransition):
			l.Warn("update_status_error", "status", 409, "reason", "invalid transition", "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("update_status_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("update_status_success", "order_id", id, "order_status", o.Status)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) ExportOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.export_orders")

	f, err := orderFilter(c)
	if err != nil {
		l.Warn("export_orders_error", "status", 400, "reason", "invalid user_id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	if f.Status != "" && !service.ValidStatus(f.Status) {
		l.Warn("export_orders_error", "status", 400, "reason", "invalid status")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var buf bytes.Buffer
	if err := h.Svc.ExportXLSX(ctx, f, &buf); err != nil {
		l.Error("export_orders_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	l.Info("export_orders_success", "bytes", buf.Len())
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.my_orders")

	id, err := accountID(c)
	if err != nil {
		l.Warn("my_orders_error", "status", 401, "reason", "unauthorized")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	page, size := pageParams(c)

	res, err := h.Svc.ListOrders(ctx, repo.OrderFilter{UserID: id}, page, size)
	if err != nil {
		l.Error("my_orders_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("my_orders_success", "total", res.Meta.Total)
	return c.JSON(http.StatusOK, res)
}
