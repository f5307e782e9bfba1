package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const (
	CartCookie    = "cartId"
	cartCookieTTL = 30 * 24 * time.Hour
)

var errUnauthorized = errors.New("unauthorized")

// ErrorHandler renders every error as {"error": "..."}. Unknown errors never
// leak their text.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, transport.ErrorResponse{Error: msg})
}

// accountID returns the signed-in user, if any.
func accountID(c echo.Context) (*uuid.UUID, error) {
	s, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || s == "" {
		return nil, errUnauthorized
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, errUnauthorized
	}
	return &id, nil
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return page, size
}

func guestID(c echo.Context) (uuid.UUID, bool) {
	ck, err := c.Cookie(CartCookie)
	if err != nil || ck.Value == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(ck.Value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func setGuestCookie(c echo.Context, id uuid.UUID) {
	c.SetCookie(jwthelp.CreateCookie(CartCookie, id.String(), "/", time.Now().Add(cartCookieTTL)))
}

// cartOwner resolves whose cart a request works on. Signed-in users use their
// account cart; anonymous shoppers get a cartId cookie when create is set.
func cartOwner(c echo.Context, create bool) string {
	if id, err := accountID(c); err == nil {
		return repo.UserCartKey(*id)
	}
	if id, ok := guestID(c); ok {
		return repo.GuestCartKey(id)
	}
	if !create {
		return ""
	}
	id := uuid.New()
	setGuestCookie(c, id)
	return repo.GuestCartKey(id)
}
