package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"order-tracking/internal/api"
	apimw "order-tracking/internal/api/middleware"
	"order-tracking/internal/config"
	"order-tracking/internal/logging"
	"order-tracking/internal/modules/orders"
	"order-tracking/internal/modules/tracking"
	"order-tracking/pkg/email"
	"order-tracking/pkg/events"
	"order-tracking/pkg/maps"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Logger()

	e := echo.New()
	e.HideBanner = true

	// 2. --- Middleware ---
	e.Use(apimw.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logging.Ctx(c.Request().Context()).Info()
			if v.Error != nil {
				evt = logging.Ctx(c.Request().Context()).Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to parse database configuration")
	}
	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create connection pool")
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("unable to ping database")
	}
	log.Info().Msg("connected to the database")

	// 4. --- Dependency Injection ---
	orderRepo := orders.NewRepository(dbPool)

	mapsClient := maps.NewBreakerClient(maps.NewClient(cfg.MapsAPIKey, cfg.MapsBaseURL, cfg.ProviderTimeout))
	if !mapsClient.Configured() {
		log.Warn().Msg("MAPS_API_KEY is not set; ETA and geocoding are disabled")
	}

	var mirror tracking.EventMirror
	var kafkaMirror *events.KafkaMirror
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaMirror = events.NewKafkaMirror(brokers, cfg.KafkaTopic)
		mirror = kafkaMirror
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("mirroring tracking events to kafka")
	}

	var notifier tracking.StatusNotifier
	if cfg.EmailEnabled() {
		sender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.SESFromEmail)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to create SES sender")
		}
		notifier = sender
	}

	cache := tracking.NewLocationCache()
	resolver := tracking.NewGeocodeResolver(mapsClient, cfg.ProviderTimeout)
	estimator := tracking.NewRouteEstimator(mapsClient, mapsClient.Configured(), cfg.ProviderTimeout)
	rooms := tracking.NewRoomBroadcaster(mirror)
	orchestrator := tracking.NewOrchestrator(cache, resolver, estimator, rooms, orderRepo, notifier)
	query := tracking.NewQueryService(cache, resolver, estimator, orderRepo)
	trackingHandler := tracking.NewHandler(tracking.NewService(orchestrator, query), rooms, cfg.ClientOrigin)

	// 5. --- Initialize Router ---
	api.SetupRoutes(e, cfg.JWTSecret, trackingHandler)

	// 6. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	orchestrator.Close()
	cache.Close()
	if kafkaMirror != nil {
		if err := kafkaMirror.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka mirror close failed")
		}
	}
	log.Info().Msg("server exiting")
}
