// Command server runs the WhatsApp storefront: the Cloud API webhook that
// drives customer conversations and the back-office REST API.
//
// @title           WhatsApp Storefront API
// @version         1.0
// @description     Back-office REST API and WhatsApp webhook for a conversational grocery storefront.
// @BasePath        /api
// @schemes         http https
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/whatsapp-storefront/internal/config"
	httpapi "github.com/tbourn/whatsapp-storefront/internal/http"
	"github.com/tbourn/whatsapp-storefront/internal/observability"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
	"github.com/tbourn/whatsapp-storefront/internal/search"
	"github.com/tbourn/whatsapp-storefront/internal/services"
	"github.com/tbourn/whatsapp-storefront/internal/session"
	"github.com/tbourn/whatsapp-storefront/internal/sysutil"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments inject the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return fmt.Errorf("instrumenting store: %w", err)
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	// Conversation pipeline: gate → conversation service → dispatcher.
	var cache session.Cache
	if cfg.Bot.SessionCacheSize > 0 {
		cache = session.NewLRUCache(cfg.Bot.SessionCacheSize, cfg.Bot.SessionWindow)
	}
	gate := session.NewGate(db, cache)
	gate.Window = cfg.Bot.SessionWindow

	messenger := whatsapp.NewClient(whatsapp.Config{
		BaseURL:    cfg.WhatsApp.APIBaseURL,
		APIVersion: cfg.WhatsApp.APIVersion,
		PhoneID:    cfg.WhatsApp.PhoneID,
		Token:      cfg.WhatsApp.AccessToken,
		Timeout:    cfg.WhatsApp.HTTPTimeout,
	}, whatsapp.WithObserver(observability.RecordOutbound))

	searcher := search.NewCatalogSearcher(db)
	conversations := services.NewConversationService(db, gate, messenger,
		services.NewCheckoutService(db), searcher,
		services.Shop{
			Name:         cfg.Bot.ShopName,
			SupportPhone: cfg.Bot.SupportPhone,
			CatalogID:    cfg.WhatsApp.CatalogID,
		})
	dispatcher := services.NewDispatcher(conversations)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Deps{
		Dispatcher:      dispatcher,
		OnCatalogChange: searcher.Invalidate,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	serverErr := make(chan error, 1)

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DBDriver).
			Str("api_base", cfg.APIBasePath).
			Str("version", version).
			Msg("server starting")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		log.Error().Err(err).Msg("http shutdown")
	}
	// Acknowledged webhook events still run; let them finish.
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("in-flight conversations abandoned")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server stopped")
	return nil
}
