// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts the handlers consume, the
// Handlers wiring type and helpers shared by the resource handlers:
//   - products  (catalog listing, creation and bulk import)
//   - orders    (creation with idempotency, listing, detail, status updates)
//   - partners  (delivery partner registration and availability)
//   - webhook   (WhatsApp verification handshake and event intake)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/services"
	"github.com/tbourn/whatsapp-storefront/internal/utils"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

//
// Service contracts (context-aware)
//

// ProductService defines the catalog operations used by the product endpoints.
type ProductService interface {
	// ListPage returns a page of active products with their variants and the
	// total number of active products.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Product, int64, error)
	// Create inserts one product and its variants.
	Create(ctx context.Context, in services.ProductInput) (*domain.Product, error)
	// BulkImport inserts all products atomically and returns how many.
	BulkImport(ctx context.Context, in []services.ProductInput) (int, error)
}

// OrderService defines the order administration operations.
type OrderService interface {
	Create(ctx context.Context, in services.OrderInput) (*domain.Order, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error)
	Get(ctx context.Context, id uint) (*domain.Order, error)
	// Stats returns the order count and latest update time (ETag input).
	Stats(ctx context.Context) (int64, *time.Time, error)
	UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus, changedBy string) (domain.OrderStatus, error)
}

// PartnerService defines delivery partner operations.
type PartnerService interface {
	List(ctx context.Context) ([]domain.DeliveryPartner, error)
	Register(ctx context.Context, name, phone, pin string) (*domain.DeliveryPartner, error)
	UpdateStatus(ctx context.Context, id uint, status domain.PartnerStatus, changedBy string) (*domain.DeliveryPartner, error)
}

// EventDispatcher hands normalized webhook events to background processing.
// Dispatch must not block on the processing itself.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []whatsapp.Event)
}

// IdempotencyStore records which resource a client's Idempotency-Key
// produced, so retries can be answered without repeating the write.
type IdempotencyStore interface {
	// Lookup returns the resource id recorded for (scope, key), if any.
	Lookup(ctx context.Context, scope, key string) (resourceID string, found bool, err error)
	// Save records resourceID for (scope, key).
	Save(ctx context.Context, scope, key, resourceID string, status int) error
}

// WebhookConfig holds the secrets of the inbound webhook.
type WebhookConfig struct {
	// VerifyToken is echoed back by the provider during the handshake.
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 checks when non-empty.
	AppSecret string
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the storefront.
type Handlers struct {
	productSvc ProductService
	orderSvc   OrderService
	partnerSvc PartnerService

	webhook    WebhookConfig
	dispatcher EventDispatcher
	idem       IdempotencyStore
}

// Option customises Handlers.
type Option func(*Handlers)

// WithWebhook enables the WhatsApp webhook endpoints.
func WithWebhook(cfg WebhookConfig, d EventDispatcher) Option {
	return func(h *Handlers) {
		h.webhook = cfg
		h.dispatcher = d
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for order creation.
func WithIdempotencyStore(s IdempotencyStore) Option {
	return func(h *Handlers) { h.idem = s }
}

// New constructs Handlers bound to the given services.
func New(products ProductService, orders OrderService, partners PartnerService, opts ...Option) *Handlers {
	h := &Handlers{productSvc: products, orderSvc: orders, partnerSvc: partners}
	for _, o := range opts {
		o(h)
	}
	return h
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Status updated"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

//
// Helpers
//

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// clampPagination parses page and page_size query params, applying defaults
// and the upper bound.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		maxPageSize,
	)
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}
