package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/its-hmtu/vote-dashboard/docs"
	"github.com/its-hmtu/vote-dashboard/internal/api/handler"
	"github.com/its-hmtu/vote-dashboard/internal/api/live"
	"github.com/its-hmtu/vote-dashboard/internal/api/middleware"
	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Lifecycle    ports.LifecycleService
	Live         ports.LiveView
	Catalog      ports.CatalogService
	Registration ports.RegistrationService
	Hub          *live.Hub

	// Mongo is nil when the archive is disabled.
	Mongo *mongo.Database
	Redis *redis.Client

	// JWTSecret empty disables authentication.
	JWTSecret string
	Log       zerolog.Logger

	// Registerer receives the HTTP metrics; nil uses the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "voting",
		Registerer: d.Registerer,
	}))

	// --- Health, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	authn := middleware.Auth(d.JWTSecret)
	if d.JWTSecret == "" {
		d.Log.Warn().Msg("JWT_SECRET is empty: API authentication disabled")
		authn = middleware.Disabled()
	}
	readers := middleware.RBAC(domain.RoleOperator, domain.RoleViewer)
	operators := middleware.RBAC(domain.RoleOperator)

	sessions := handler.NewSessionHandler(d.Lifecycle, d.Live, d.Log)
	catalog := handler.NewCatalogHandler(d.Catalog, d.Log)
	registry := handler.NewRegistryHandler(d.Registration, d.Log)

	v1 := e.Group("/v1", authn)

	v1.GET("/sessions", catalog.List, readers)
	v1.GET("/sessions/current", sessions.Current, readers)
	v1.GET("/sessions/:id", catalog.Get, readers)
	v1.GET("/users", registry.ListUsers, readers)
	v1.GET("/registrations", registry.State, readers)
	if d.Hub != nil {
		v1.GET("/live", d.Hub.ServeWS, readers)
	}

	v1.POST("/sessions", sessions.Start, operators)
	v1.POST("/sessions/current/stop", sessions.Stop, operators)
	v1.DELETE("/sessions/:id", catalog.Purge, operators)
	v1.DELETE("/users/:id", registry.RemoveUser, operators)
	v1.POST("/registrations", registry.OpenRegistration, operators)
	v1.POST("/registrations/complete", registry.CompleteRegistration, operators)
	v1.DELETE("/registrations", registry.CancelRegistration, operators)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
