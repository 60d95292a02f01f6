package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/olympic-ticketing/internal/config"
	"github.com/iliyamo/olympic-ticketing/internal/database"
	"github.com/iliyamo/olympic-ticketing/internal/handler"
	"github.com/iliyamo/olympic-ticketing/internal/logger"
	"github.com/iliyamo/olympic-ticketing/internal/middleware"
	"github.com/iliyamo/olympic-ticketing/internal/queue"
	"github.com/iliyamo/olympic-ticketing/internal/render"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
	"github.com/iliyamo/olympic-ticketing/internal/router"
	"github.com/iliyamo/olympic-ticketing/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		logger.Fatalf(ctx, "read .env: %v", err)
	}
	cfg, err := config.Load() // Load environment config
	if err != nil {
		logger.Fatalf(ctx, "config: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.DBPath,
	})
	if err != nil {
		logger.Fatalf(ctx, "database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf(ctx, "migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher service.PurchasePublisher
	if cfg.QueueEnabled {
		publisher = queue.NewPublisher(cfg.RabbitMQURL)
	}
	if cfg.QueueConsumer {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.PurchaseLog)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf(ctx, "purchase consumer stopped: %v", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sports := repository.NewSportRepo(db)
	events := repository.NewEventRepo(db)
	offers := repository.NewOfferRepo(db)
	carts := repository.NewCartRepo(db)
	tickets := repository.NewTicketRepo(db)

	identity := service.NewIdentityService(users, tokens, service.JWTCredentials{
		Secret:         cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})
	catalog := service.NewCatalogService(sports, offers)
	cartSvc := service.NewCartService(events, offers, carts)
	checkout := service.NewCheckoutService(db, events, offers, carts, tickets, publisher)
	ticketSvc := service.NewTicketService(tickets, events, sports, offers, users, render.NewPDFRenderer())

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.CorrelationID())
	e.Use(middleware.RequestLogger())

	router.Register(e, router.Handlers{
		Health:  handler.NewHealthHandler(db),
		Auth:    handler.NewAuthHandler(identity, cfg.JWTSecret),
		Catalog: handler.NewCatalogHandler(catalog),
		Cart:    handler.NewCartHandler(cartSvc, checkout),
		Ticket:  handler.NewTicketHandler(ticketSvc),
	}, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Infof(ctx, "listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf(ctx, "server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "shutdown: %v", err)
	}
	logger.Infof(shutdownCtx, "server stopped")
}
