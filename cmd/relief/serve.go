package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relief/relief/internal/config"
	"github.com/relief/relief/internal/domain/emergency"
	"github.com/relief/relief/internal/domain/identity"
	"github.com/relief/relief/internal/domain/profile"
	"github.com/relief/relief/internal/platform/apiclient"
	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/middleware"
	"github.com/relief/relief/internal/platform/websocket"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patient gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(a.cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.ResolvedLogLevel("info")); err == nil {
		logger = logger.Level(level)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	e := newServer(cfg, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("backend", cfg.APIBaseURL).Msg("starting gateway")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gateway")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("gateway stopped")
	return nil
}

// chain runs mw in order, the first outermost.
func chain(mw ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}

// newServer builds the gateway: one backend client shared by every route,
// with cookies scoped per request.
func newServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	codec := auth.NewMarkerCodec(cfg.SessionSecret, cfg.LoginMarkerTTL)
	store := auth.NewCookieStore(codec, cfg.LoginMarkerCookie, !cfg.IsDev())

	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
	}, logger, apiclient.WithUnauthorizedHandler(apiclient.UnauthorizedFunc(func(ctx context.Context) {
		if err := store.Logout(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to clear login marker")
		}
	})))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(store, logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadBodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.BackendCookies(cfg.LoginMarkerCookie))
	e.Use(store.Middleware())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	protected := auth.Gate(store, auth.Protected)
	authOnly := chain(
		auth.Gate(store, auth.AuthOnly),
		middleware.RateLimit(middleware.AuthRateLimitConfig()),
	)

	api := e.Group("/api")
	private := e.Group("/api", protected)

	// Identity
	identitySvc := identity.NewService(identity.NewRepoAPI(client), store, logger)
	identity.NewHandler(identitySvc).RegisterRoutes(api, authOnly, protected)

	// Profile
	profileSvc := profile.NewService(profile.NewRepoAPI(client), logger)
	profile.NewHandler(profileSvc).RegisterRoutes(private)

	// Emergency requests. The browser supplies coordinates, so there is no
	// server-side locator.
	emergencySvc := emergency.NewService(emergency.NewRequestRepoAPI(client), store, nil, logger)
	emergencySvc.SetMaxPhotoBytes(cfg.MaxPhotoBytes)
	emergencySvc.SetRedirectDelay(cfg.RedirectDelay)

	hub := websocket.NewHub(logger)
	emergencyHandler := emergency.NewHandler(emergencySvc)
	emergencyHandler.SetBroadcaster(hub)
	emergencyHandler.RegisterRoutes(private)

	// Live tracking
	stream := emergency.NewLiveStream(emergencySvc, emergency.TrackerConfig{
		Interval:       cfg.PollInterval,
		StopOnTerminal: cfg.StopOnTerminal,
	}, logger)
	websocket.NewHandler(hub, stream, logger, cfg.CORSOrigins...).RegisterRoutes(e.Group(""), protected)

	return e
}
