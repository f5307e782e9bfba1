package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/realtime"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
)

type Deps struct {
	DB *gorm.DB

	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	PaymentHandler  *PaymentHTTP
	AccountHandler  *AccountHTTP
	OrderHandler    *OrderHTTP
	AdminHandler    *AdminHTTP
	SettingsHandler *SettingsHTTP
	MessageHandler  *MessageHTTP
	Feed            *realtime.Hub

	JWTSecret []byte
	Refresher middleware.Refresher
	CSRF      csrf.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		sqlDB, err := d.DB.DB()
		if err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.Refresher)

	api := e.Group("/api")
	api.GET("/settings", d.SettingsHandler.GetSettings)
	api.POST("/messages", d.MessageHandler.Submit)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.Search)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	cart := api.Group("/cart", authMW.OptionalAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items", d.CartHandler.SetQuantity)
	cart.DELETE("/items", d.CartHandler.RemoveItem)

	api.POST("/checkout", d.CheckoutHandler.Checkout, authMW.OptionalAuth)
	api.POST("/webhooks/stripe", d.PaymentHandler.Webhook)
	api.POST("/payments/verify", d.PaymentHandler.Verify, authMW.OptionalAuth)

	auth := api.Group("/auth")
	auth.POST("/register", d.AccountHandler.Register)
	auth.POST("/login", d.AccountHandler.Login)
	auth.POST("/refresh", d.AccountHandler.Refresh)
	auth.POST("/logout", d.AccountHandler.Logout)

	me := api.Group("/me", authMW.RequireAuth)
	me.GET("", d.AccountHandler.Me)
	me.PATCH("", d.AccountHandler.UpdateMe)
	me.GET("/orders", d.OrderHandler.MyOrders)

	admin := api.Group("/admin", authMW.RequireAdmin, csrf.Middleware(d.CSRF))

	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.GET("/orders/export", d.OrderHandler.ExportOrders)
	admin.GET("/orders/:id", d.OrderHandler.GetOrder)
	admin.PATCH("/orders/:id", d.OrderHandler.UpdateStatus)

	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)

	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.GET("/users/:id", d.AdminHandler.GetUser)
	admin.GET("/users/:id/auth", d.AdminHandler.AuthStatus)
	admin.POST("/users/:id/ban", d.AdminHandler.Ban)
	admin.POST("/users/:id/unban", d.AdminHandler.Unban)
	admin.DELETE("/users/:id", d.AdminHandler.DeleteUser)

	admin.GET("/messages", d.MessageHandler.List)
	admin.PATCH("/messages/:id/read", d.MessageHandler.MarkRead)
	admin.DELETE("/messages/:id", d.MessageHandler.Delete)

	admin.GET("/settings", d.SettingsHandler.ListSettings)
	admin.PUT("/settings/:key", d.SettingsHandler.UpsertSetting)

	admin.GET("/analytics", d.AdminHandler.Analytics)

	if d.Feed != nil {
		admin.GET("/feed", d.Feed.ServeWS)
	}
}
