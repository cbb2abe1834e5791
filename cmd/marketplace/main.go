package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	"github.com/Skotchmaster/marketplace/internal/idempotency"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/search"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/config"
	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_error", "error", err)
		os.Exit(1)
	}
	if err := repo.Migrate(gdb); err != nil {
		logger.Error("db_migrate_error", "error", err)
		os.Exit(1)
	}

	pub, err := events.Open(cfg)
	if err != nil {
		logger.Error("events_open_error", "driver", cfg.EventsDriver, "error", err)
		os.Exit(1)
	}

	r := repo.New(gdb)
	notifier := &service.NotificationService{Repo: r}
	authSvc := &service.AuthService{
		Repo:          r,
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	catalog := &service.CatalogService{Repo: r, Events: pub}
	orders := &service.OrderService{
		Repo:            r,
		Notifier:        notifier,
		Events:          pub,
		LockTimeout:     cfg.LockTimeout,
		CheckoutTimeout: cfg.CheckoutTimeout,
		NotifyTimeout:   cfg.NotifyTimeout,
	}
	orderHandler := &httpserver.OrderHTTP{Svc: orders}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_ping_error", "addr", cfg.RedisAddr, "error", err)
		}
		orderHandler.Idem = idempotency.New(rdb, cfg.IdempotencyTTL)
	}

	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		idx, err := search.NewClient(esCtx, search.Config{
			Addresses: config.CSV(cfg.ESURL),
			Username:  cfg.ESUser,
			Password:  cfg.ESPassword,
			Index:     cfg.ESIndex,
		})
		cancel()
		if err != nil {
			logger.Warn("search_unavailable", "error", err)
		} else {
			catalog.Index = idx
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, httpserver.HeaderIdempotencyKey, csrf.HeaderName},
		ExposeHeaders:    []string{httpserver.HeaderNotificationStatus, echo.HeaderXRequestID},
		AllowCredentials: false,
	}))
	e.Use(csrf.Middleware(csrf.Config{Secure: true}))

	httpserver.Register(e, &httpserver.Deps{
		DB:                  gdb,
		Auth:                auth.New([]byte(cfg.JWTAccessSecret), authSvc),
		AuthHandler:         &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler:      &httpserver.CatalogHTTP{Svc: catalog},
		OrderHandler:        orderHandler,
		AddressHandler:      &httpserver.AddressHTTP{Svc: &service.AddressService{Repo: r}},
		CartHandler:         &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		NotificationHandler: &httpserver.NotificationHTTP{Svc: notifier},
		ReviewHandler:       &httpserver.ReviewHTTP{Svc: &service.ReviewService{Repo: r}},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	orders.Wait()
	if err := pub.Close(); err != nil {
		logger.Error("events_close_error", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
