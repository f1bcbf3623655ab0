package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sirpyerre/resource-booking/internal/api/handler"
	"github.com/sirpyerre/resource-booking/internal/api/middleware"
	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth         ports.AuthService
	Users        ports.UserService
	Resources    ports.ResourceService
	Reservations ports.ReservationService
	Readiness    *handlers.ReadinessHandler
	LoginLimiter *middleware.RateLimiter
	// Registerer receives the HTTP request collectors. Defaults to the
	// prometheus default registerer.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
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
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "booking_http",
		Registerer: d.Registerer,
	}))
	// renders errors itself, so the metrics middleware above sees final statuses
	e.Use(middleware.RequestLogger(d.Log))

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	if d.Readiness != nil {
		e.GET("/health/ready", d.Readiness.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	mountRoutes(e.Group(""), d)
	mountRoutes(e.Group("/api"), d)

	return e
}

func mountRoutes(g *echo.Group, d Deps) {
	authHandler := handler.NewAuthHandler(d.Auth)
	resourceHandler := handler.NewResourceHandler(d.Resources)
	reservationHandler := handler.NewReservationHandler(d.Reservations)
	userHandler := handler.NewUserHandler(d.Users)

	authenticate := middleware.Authenticate(d.Auth)
	manageUsers := middleware.Authorize(domain.CapManageUsers)

	// --- Auth routes ---
	if d.LoginLimiter != nil {
		g.POST("/auth/login", authHandler.Login, middleware.RateLimit(d.LoginLimiter))
	} else {
		g.POST("/auth/login", authHandler.Login)
	}
	g.GET("/auth/profile", authHandler.Profile, authenticate)

	// --- Resources & reservations ---
	g.GET("/resources", resourceHandler.List, authenticate)
	g.GET("/reservations", reservationHandler.List, authenticate)
	g.POST("/reservations", reservationHandler.Create, authenticate)
	g.DELETE("/reservations/:id", reservationHandler.Delete, authenticate)

	// --- User administration ---
	g.GET("/users", userHandler.List, authenticate, manageUsers)
	g.POST("/users", userHandler.Create, authenticate, manageUsers)
	// the service decides who may delete whom
	g.DELETE("/users/:id", userHandler.Delete, authenticate)
}
