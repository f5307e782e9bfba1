package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/realtime"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
)

func serveCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Load(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migrations before serving")
	return cmd
}

func serve(cfg config.ServiceConfig, migrate bool) error {
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	jwthelp.Secure = cfg.CookieSecure

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if err := pkgdb.Close(db); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}()
	if migrate {
		if err := repo.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	prices, err := payment.LoadPriceTable(cfg.PriceTablePath)
	if err != nil {
		return err
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("stripe_webhook_secret_missing", "effect", "webhook deliveries will be rejected")
	}
	stripe := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	hub := realtime.NewHub(cfg.AllowedOrigins)
	defer hub.Close()

	publishers := events.Fanout{hub}
	var kafka *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := kafka.Close(); err != nil {
				logger.Error("kafka_close_error", "error", err)
			}
		}()
		publishers = append(publishers, kafka)
	}

	var mailer notify.Mailer = notify.LogMailer{Logger: logger}
	if cfg.MailEnabled() {
		mailer = notify.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	}

	r := &repo.GormRepo{DB: db}
	settingsSvc := &service.SettingsService{Repo: r}
	carts := &service.CartService{Repo: r}
	accounts := &service.AccountService{
		Repo:          r,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Events:        publishers,
	}
	catalogSvc := &service.CatalogService{Repo: r, Settings: settingsSvc, Events: publishers}
	if cfg.SearchEnabled() {
		es, err := search.NewElastic(cfg.Search)
		if err != nil {
			return err
		}
		catalogSvc.Index = es
	}
	orders := &service.OrderService{
		Repo:     r,
		Payments: stripe,
		Mailer:   mailer,
		Events:   publishers,
		Settings: settingsSvc,
	}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(httpserver.Common(logger, cfg.AllowedOrigins, csrfCfg.HeaderName)...)

	httpserver.Register(e, &httpserver.Deps{
		DB:             db,
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		CartHandler:    &httpserver.CartHTTP{Svc: carts, Settings: settingsSvc},
		CheckoutHandler: &httpserver.CheckoutHTTP{
			Svc: &service.CheckoutService{
				Repo:     r,
				Payments: stripe,
				Prices:   prices,
				Settings: settingsSvc,
				BaseURL:  cfg.BaseURL,
			},
			Carts:    carts,
			Accounts: accounts,
		},
		PaymentHandler:  &httpserver.PaymentHTTP{Orders: orders, Payments: stripe, Carts: carts},
		AccountHandler:  &httpserver.AccountHTTP{Svc: accounts, Carts: carts},
		OrderHandler:    &httpserver.OrderHTTP{Svc: orders},
		AdminHandler:    &httpserver.AdminHTTP{Svc: &service.AdminService{Repo: r, Settings: settingsSvc, Events: publishers}},
		SettingsHandler: &httpserver.SettingsHTTP{Svc: settingsSvc},
		MessageHandler:  &httpserver.MessageHTTP{Svc: &service.MessageService{Repo: r}},
		Feed:            hub,
		JWTSecret:       cfg.JWTAccessSecret,
		Refresher:       accounts,
		CSRF:            csrfCfg,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown_signal", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	logger.Info("shutdown_complete")
	return nil
}
