package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AccountHTTP struct {
	Svc   *service.AccountService
	Carts *service.CartService
}

func setAuthCookies(c echo.Context, pair *tokens.Pair) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
}

func authResponse(u *models.User, pair *tokens.Pair) transport.AuthResponse {
	return transport.AuthResponse{
		UserID:     u.ID,
		Role:       u.Role,
		IsAdmin:    u.Role == middleware.RoleAdmin,
		AccessExp:  pair.AccessExp,
		RefreshExp: pair.RefreshExp,
	}
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			l.Warn("register_error", "status", 409, "reason", "email taken")
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		default:
			l.Error("register_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, u)
}

// Login sets the auth cookies and folds the guest cart into the account cart.
func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, u, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, service.ErrBanned):
			l.Warn("login_error", "status", 403, "reason", "banned")
			return echo.NewHTTPError(http.StatusForbidden, "account is banned")
		default:
			l.Error("login_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	setAuthCookies(c, pair)

	if gid, ok := guestID(c); ok && h.Carts != nil {
		if _, err := h.Carts.Merge(ctx, repo.GuestCartKey(gid), repo.UserCartKey(u.ID)); err != nil {
			l.Warn("login_cart_merge_error", "error", err)
		}
	}

	l.Info("login_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, authResponse(u, pair))
}

func (h *AccountHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ck, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
		c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("refresh_error", "status", 401, "reason", "invalid refresh token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrBanned):
			l.Warn("refresh_error", "status", 403, "reason", "banned")
			return echo.NewHTTPError(http.StatusForbidden, "account is banned")
		default:
			l.Error("refresh_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	setAuthCookies(c, pair)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, h.Svc.AccessSecret)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "fresh token unreadable", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "bad subject", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("refresh_success", "user_id", userID)
	return c.JSON(http.StatusOK, authResponse(&models.User{ID: userID, Role: pair.Role}, pair))
}

func (h *AccountHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil && ck.Value != "" {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			l.Warn("logout_revoke_error", "error", err)
		}
	}
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))

	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.me")

	id, err := accountID(c)
	if err != nil {
		l.Warn("me_error", "status", 401, "reason", "unauthorized")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	u, err := h.Svc.Profile(ctx, *id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("me_error", "status", 404, "reason", "user not found", "user_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("me_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("me_success")
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_me")

	id, err := accountID(c)
	if err != nil {
		l.Warn("update_me_error", "status", 401, "reason", "unauthorized")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_me_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Svc.UpdateProfile(ctx, *id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_me_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_me_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			l.Error("update_me_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("update_me_success")
	return c.JSON(http.StatusOK, u)
}
