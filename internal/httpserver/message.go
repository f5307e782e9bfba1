package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type MessageHTTP struct {
	Svc *service.MessageService
}

func (h *MessageHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "messages.submit")

	var req transport.MessageRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("submit_message_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	m, err := h.Svc.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("submit_message_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("submit_message_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("submit_message_success", "message_id", m.ID)
	return c.JSON(http.StatusCreated, map[string]any{"id": m.ID})
}

func (h *MessageHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_messages")

	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	page, size := pageParams(c)

	res, err := h.Svc.List(ctx, unread, page, size)
	if err != nil {
		l.Error("list_messages_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("list_messages_success", "total", res.Meta.Total)
	return c.JSON(http.StatusOK, res)
}

func (h *MessageHTTP) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.mark_message_read")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("mark_read_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.MarkRead(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("mark_read_error", "status", 404, "reason", "message not found", "message_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		l.Error("mark_read_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("mark_read_success", "message_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *MessageHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_message")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("delete_message_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_message_error", "status", 404, "reason", "message not found", "message_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		l.Error("delete_message_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("delete_message_success", "message_id", id)
	return c.NoContent(http.StatusNoContent)
}
