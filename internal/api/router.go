package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/zyborn/auction-api/docs"
	"github.com/zyborn/auction-api/internal/api/handler"
	"github.com/zyborn/auction-api/internal/api/middleware"
	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// Dependencies are the constructed services the router wires into handlers.
type Dependencies struct {
	Auth          ports.AuthService
	Bids          ports.BidService
	Items         ports.ItemService
	Verifications ports.VerificationService
	Clock         ports.Clock
	Checks        map[string]handler.Check
	JWTSecret     string
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("auction"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	bidHandler := handler.NewBidHandler(deps.Bids)
	itemHandler := handler.NewItemHandler(deps.Items, deps.Clock)
	verificationHandler := handler.NewVerificationHandler(deps.Verifications)

	requireAuth := middleware.Auth(deps.JWTSecret)
	optionalAuth := middleware.OptionalAuth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	v1 := e.Group("/v1")
	v1.PUT("/me/profile", authHandler.UpdateProfile, requireAuth)

	// --- Catalogue and ledger (public reads) ---
	v1.GET("/increments", bidHandler.Increments)
	v1.GET("/items", itemHandler.List)
	v1.GET("/items/:id", itemHandler.Get)
	v1.GET("/items/:id/status", bidHandler.Status)
	v1.GET("/items/:id/bids", bidHandler.History)

	// Anonymous bids reach the admission engine and are refused there.
	v1.POST("/items/:id/bids", bidHandler.Submit, optionalAuth)

	// --- Bidder verification ---
	verification := v1.Group("/verification", requireAuth)
	verification.GET("", verificationHandler.Get)
	verification.POST("", verificationHandler.Submit)
	verification.POST("/call-booked", verificationHandler.CallBooked)

	// --- Admin ---
	admin := v1.Group("/admin", requireAuth, adminOnly)
	admin.POST("/items", itemHandler.Create)
	admin.GET("/verifications", verificationHandler.List)
	admin.POST("/verifications/reconcile", verificationHandler.Reconcile)
	admin.POST("/verifications/:id/review", verificationHandler.Review)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

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
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error()
			}
			if v.Error != nil {
				evt = evt.Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
