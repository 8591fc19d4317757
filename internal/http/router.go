// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The webhook stays outside authentication and rate limiting: Twilio
//     retries on anything but a fast 200, so the ingest path must never be
//     throttled or challenged
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/config"
	"github.com/atendezap/go-whats-backend/internal/http/handlers"
	"github.com/atendezap/go-whats-backend/internal/http/middleware"
	"github.com/atendezap/go-whats-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. The reply engine and delivery channel are injected by the caller so
// the transport layer stays free of SDK construction concerns.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers
//
// The rate limiter and JWT check apply to the operator API group only.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, engine services.ReplyEngine, delivery services.DeliveryChannel, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(middleware.BodySizeLimit(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers
	r.Use(middleware.SecurityHeaders())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeBadRequest, "method not allowed")
	})

	// Liveness/health
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/integrations
	ledger := services.NewCreditLedger(db)
	prompts := services.NewPromptAssembler(db)
	convSvc := services.NewConversationService(db, ledger, prompts, engine, delivery)
	convSvc.AIReplyCost = cfg.AIReplyCost
	convSvc.OperatorSendCost = cfg.OperatorSendCost
	convSvc.HistoryWindow = cfg.HistoryWindow
	convSvc.EngineTimeout = cfg.EngineTimeout
	convSvc.DeliveryTimeout = cfg.DeliveryTimeout

	authSvc := services.NewAuthService(db, []byte(cfg.JWTSecret))

	h := handlers.New(db, convSvc, ledger, authSvc, handlers.SyncConfig{
		Token:   cfg.AdminSyncToken,
		Enabled: cfg.EnableExternalSync,
	})

	// Inbound webhook: unauthenticated, unthrottled, always acks 200.
	r.POST("/webhook/whatsapp", h.WhatsAppWebhook)

	// External catalog sync: shared-token auth, feature-flagged.
	r.POST("/products/sync", h.SyncCatalog)

	// Operator API
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(rl.Middleware())
	api.Use(gzip.Gzip(gzip.DefaultCompression))

	api.POST("/auth/login", h.Login)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(authSvc))
	{
		// Conversations
		authed.GET("/conversations", h.ListConversations)
		authed.GET("/conversations/:id/messages", h.ListMessages)
		authed.POST("/conversations/:id/messages", h.PostOperatorMessage)
		authed.PUT("/conversations/:id/mode", h.UpdateMode)

		// Dashboard
		authed.GET("/stats", h.GetStats)
	}

	admin := authed.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		// Bot settings and credits
		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
		admin.POST("/settings/credits", h.AddCredits)

		// Catalog
		admin.GET("/products", h.ListProducts)
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		// Accounts
		admin.POST("/operators", h.CreateOperator)
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
