package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/agriconnect/marketplace-client/docs"
	"github.com/agriconnect/marketplace-client/internal/api/handler"
	"github.com/agriconnect/marketplace-client/internal/api/middleware"
	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/http/handlers"
)

// Dependencies are the services the shell API is built on.
type Dependencies struct {
	Log        zerolog.Logger
	Navigation ports.NavigationService
	Sessions   ports.SessionService
	Cart       ports.CartService
	Orders     ports.OrderService
	Renderer   handler.Renderer
	Notices    handler.NoticeSource
	// Checks are pinged by the readiness probe, keyed by dependency name.
	Checks map[string]handlers.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// HTTP metrics live on their own registry so several routers can coexist.
	registry := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "shell",
		Registerer: registry,
	}))

	// --- Health probes, metrics and docs ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{registry, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	viewHandler := handler.NewViewHandler(deps.Navigation, deps.Cart, deps.Orders, deps.Renderer)
	navHandler := handler.NewNavigationHandler(deps.Navigation, viewHandler)
	sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.Navigation, viewHandler)
	cartHandler := handler.NewCartHandler(deps.Cart)
	orderHandler := handler.NewOrderHandler(deps.Orders)
	noticeHandler := handler.NewNoticeHandler(deps.Notices)

	v1 := e.Group("/v1")
	v1.GET("/view", viewHandler.Current)
	v1.GET("/notices", noticeHandler.Drain)

	nav := v1.Group("/navigation")
	nav.POST("/role", navHandler.SelectRole)
	nav.POST("/navigate", navHandler.Navigate)
	nav.POST("/back", navHandler.Back)
	nav.POST("/product", navHandler.SelectProduct)

	session := v1.Group("/session")
	session.POST("/login", sessionHandler.Login)
	session.POST("/register", sessionHandler.Register)
	session.POST("/logout", sessionHandler.Logout)

	cart := v1.Group("/cart", middleware.RequireRole(deps.Navigation, domain.RoleConsumer))
	cart.GET("", cartHandler.Get)
	cart.POST("/items", cartHandler.AddItem)
	cart.PATCH("/items/:line_id", cartHandler.UpdateQuantity)
	cart.POST("/reload", cartHandler.Reload)

	orders := v1.Group("/orders", middleware.RequireRole(deps.Navigation))
	orders.GET("", orderHandler.List)
	orders.PATCH("/:order_id/status", orderHandler.UpdateStatus,
		middleware.RequireRole(deps.Navigation, domain.RoleFarmer, domain.RoleAdmin))
	orders.POST("/:order_id/cancel", orderHandler.Cancel)

	return e
}
