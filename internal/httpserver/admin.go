package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	page, size := pageParams(c)
	res, err := h.Svc.ListUsers(ctx, page, size)
	if err != nil {
		l.Error("list_users_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("list_users_success", "total", res.Meta.Total)
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_user")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("get_user_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	u, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_user_error", "status", 404, "reason", "user not found", "user_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("get_user_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("get_user_success", "user_id", id)
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHTTP) AuthStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_auth_status")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("auth_status_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	st, err := h.Svc.AuthStatus(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("auth_status_error", "status", 404, "reason", "user not found", "user_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("auth_status_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("auth_status_success", "user_id", id)
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHTTP) Ban(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ban_user")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("ban_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transport.BanRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("ban_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	until, err := h.Svc.Ban(ctx, id, req.Hours)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("ban_error", "status", 400, "reason", "invalid hours", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("ban_error", "status", 404, "reason", "user not found", "user_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			l.Error("ban_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("ban_success", "user_id", id, "until", until)
	return c.JSON(http.StatusOK, map[string]any{"user_id": id, "banned_until": until})
}

func (h *AdminHTTP) Unban(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.unban_user")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("unban_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Unban(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("unban_error", "status", 404, "reason", "user not found", "user_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("unban_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("unban_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("delete_user_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if self, err := accountID(c); err == nil && *self == id {
		l.Warn("delete_user_error", "status", 400, "reason", "cannot delete self")
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete your own account")
	}

	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_user_error", "status", 404, "reason", "user not found", "user_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("delete_user_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("delete_user_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) Analytics(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.analytics")

	a, err := h.Svc.Analytics(ctx)
	if err != nil {
		l.Error("analytics_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("analytics_success")
	return c.JSON(http.StatusOK, a)
}
