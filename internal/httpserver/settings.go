package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type SettingsHTTP struct {
	Svc *service.SettingsService
}

func (h *SettingsHTTP) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.LoadOrDefaults(c.Request().Context()))
}

func (h *SettingsHTTP) ListSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_settings")

	rows, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_settings_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("list_settings_success", "count", len(rows))
	return c.JSON(http.StatusOK, rows)
}

func (h *SettingsHTTP) UpsertSetting(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.upsert_setting")

	key := c.Param("key")
	var req transport.UpsertSettingRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("upsert_setting_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	row, err := h.Svc.Upsert(ctx, key, req.Value)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("upsert_setting_error", "status", 400, "reason", "validation", "key", key, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("upsert_setting_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("upsert_setting_success", "key", key)
	return c.JSON(http.StatusOK, row)
}
