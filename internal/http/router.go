// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Two surfaces share the engine:
//   - the WhatsApp webhook, which must always answer the provider quickly and
//     is therefore exempt from compression and rate limiting;
//   - the REST API for catalog, orders and partners.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/docs"
	"github.com/tbourn/whatsapp-storefront/internal/config"
	"github.com/tbourn/whatsapp-storefront/internal/http/handlers"
	"github.com/tbourn/whatsapp-storefront/internal/http/middleware"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
	"github.com/tbourn/whatsapp-storefront/internal/services"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

const maxBodyBytes = 1 << 20

// idempotencyShim adapts the repository free functions to
// handlers.IdempotencyStore and to the validator's lookup.
type idempotencyShim struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup proxies repo.GetIdempotency; a missing or expired record is not an error.
func (s idempotencyShim) Lookup(ctx context.Context, scope, key string) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, scope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// Save proxies repo.CreateIdempotency with the configured TTL.
func (s idempotencyShim) Save(ctx context.Context, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, scope, key, resourceID, status, s.ttl)
	return err
}

// exists is the IdempotencyValidator lookup.
func (s idempotencyShim) exists(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return rec != nil && err == nil, err
}

// Deps carries collaborators that outlive the router and are owned by the
// caller.
type Deps struct {
	// Dispatcher runs webhook events after the delivery is acknowledged.
	Dispatcher handlers.EventDispatcher
	// OnCatalogChange runs after every committed catalog write.
	OnCatalogChange func()
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with phone and secret scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers
//
// The REST group adds gzip, the idempotency validator and the rate limiter
// (in that order, so replays bypass the limiter).
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{whatsapp.SignatureHeader},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiBase := cfg.APIBasePath
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		NoStorePrefixes: []string{
			joinPath(apiBase, "/orders"),
			joinPath(apiBase, "/partners"),
			joinPath(apiBase, "/webhook"),
		},
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", handlers.Health)

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db
	idem := idempotencyShim{db: db, ttl: cfg.IdempotencyTTL}
	h := handlers.New(
		services.NewProductService(db, deps.OnCatalogChange),
		services.NewOrderService(db),
		services.NewPartnerService(db),
		handlers.WithWebhook(handlers.WebhookConfig{
			VerifyToken: cfg.WhatsApp.VerifyToken,
			AppSecret:   cfg.WhatsApp.AppSecret,
		}, deps.Dispatcher),
		handlers.WithIdempotencyStore(idem),
	)

	api := groupWithPrefix(r, apiBase)
	if apiBase != "" && apiBase != "/" {
		api.GET("/health", handlers.Health)
	}

	// Provider webhook: no compression, no rate limiting.
	api.GET("/webhook/whatsapp", h.VerifyWebhook)
	api.POST("/webhook/whatsapp", h.ReceiveWebhook)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	rest := api.Group("",
		gzip.Gzip(gzip.DefaultCompression),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.exists),
		rl.Handler(),
	)
	{
		// Catalog
		rest.GET("/products", h.ListProducts)
		rest.POST("/products", h.CreateProduct)
		rest.POST("/products/bulk", h.BulkImportProducts)

		// Orders
		rest.GET("/orders", h.ListOrders)
		rest.POST("/orders", h.CreateOrder)
		rest.GET("/orders/:id", h.GetOrder)
		rest.PUT("/orders/:id/status", h.UpdateOrderStatus)

		// Delivery partners
		rest.GET("/partners", h.ListPartners)
		rest.POST("/partners", h.RegisterPartner)
		rest.PUT("/partners/:id/status", h.UpdatePartnerStatus)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath prefixes p with base unless base is the root.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
