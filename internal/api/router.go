package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/api/handler"
	"github.com/budgettracker/budget-tracker/internal/api/middleware"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/http/handlers"
)

// BasePath is the prefix every REST route is mounted under.
const BasePath = "/api"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth      ports.AuthService
	Ledger    ports.LedgerService
	JWTSecret string
	Log       zerolog.Logger
	// Ready lists the dependencies /health/ready pings, by name.
	Ready map[string]handlers.Pinger
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
	e.Use(middleware.Metrics())

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	txHandler := handler.NewTransactionHandler(d.Ledger)
	reportHandler := handler.NewReportHandler(d.Ledger)
	authMiddleware := middleware.Auth(d.JWTSecret)

	api := e.Group(BasePath)

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/users/me", authHandler.Me, authMiddleware)

	// --- Ledger routes ---
	me := api.Group("/me", authMiddleware)
	me.GET("/transactions", txHandler.List)
	me.POST("/transactions", txHandler.Create)
	me.PUT("/transactions/:id", txHandler.Update)
	me.DELETE("/transactions/:id", txHandler.Delete)
	me.GET("/summary", reportHandler.Summary)
	me.GET("/reports/:format", reportHandler.Download)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Ready)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

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
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
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
