// Order HTTP handlers.
//
// This file exposes REST endpoints for orders:
//   - POST /orders              (create from explicit items, Idempotency-Key aware)
//   - GET  /orders              (recent first, paginated, ETag support)
//   - GET  /orders/{id}         (detail with items)
//   - PUT  /orders/{id}/status  (status change, logged)
//
// Idempotency:
// If the client supplies an Idempotency-Key and a previous successful create
// was recorded for it, the handler returns that order with 201 and sets
// `Idempotency-Replayed: true` instead of creating another one.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/http/middleware"
	"github.com/tbourn/whatsapp-storefront/internal/services"
	"github.com/tbourn/whatsapp-storefront/internal/utils"
)

//
// DTOs
//

// OrderItemRequest is one line of an order payload.
type OrderItemRequest struct {
	VariantID uint `json:"variant_id" example:"7"`
	Quantity  int  `json:"quantity" example:"2"`
	// UnitPrice defaults to the variant's current price.
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" swaggertype:"number" example:"85.50"`
}

// CreateOrderRequest is the JSON payload for creating an order.
type CreateOrderRequest struct {
	CustomerID      uint               `json:"customer_id" example:"3"`
	Items           []OrderItemRequest `json:"items"`
	PaymentMethod   string             `json:"payment_method" example:"COD"`
	DeliverySlot    string             `json:"delivery_slot" example:"Tomorrow 9am-12pm"`
	AddressSnapshot json.RawMessage    `json:"address_snapshot,omitempty" swaggertype:"object"`
}

// CreateOrderResponse is returned after an order is created (or replayed).
type CreateOrderResponse struct {
	Message     string             `json:"message" example:"Order created successfully"`
	OrderID     uint               `json:"order_id" example:"41"`
	ReadableID  string             `json:"readable_order_id" example:"ORD-250114-9F2C1A"`
	Status      domain.OrderStatus `json:"status" example:"CONFIRMED"`
	TotalAmount decimal.Decimal    `json:"total_amount" swaggertype:"number" example:"171.00"`
}

// ListOrdersResponse wraps a page of orders and pagination information.
type ListOrdersResponse struct {
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// UpdateOrderStatusRequest is the JSON payload for a status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" example:"PACKED"`
	// ChangedBy defaults to "Admin".
	ChangedBy string `json:"changed_by,omitempty" example:"Ravi"`
}

// UpdateOrderStatusResponse reports the transition that was applied.
type UpdateOrderStatusResponse struct {
	Message        string             `json:"message" example:"Status updated"`
	OrderID        uint               `json:"order_id" example:"41"`
	PreviousStatus domain.OrderStatus `json:"previous_status" example:"CONFIRMED"`
	NewStatus      domain.OrderStatus `json:"new_status" example:"PACKED"`
}

func (r CreateOrderRequest) input() services.OrderInput {
	in := services.OrderInput{
		CustomerID:      r.CustomerID,
		PaymentMethod:   r.PaymentMethod,
		DeliverySlot:    r.DeliverySlot,
		AddressSnapshot: r.AddressSnapshot,
		Items:           make([]services.OrderItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.OrderItemInput{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return in
}

func newCreateOrderResponse(o *domain.Order) CreateOrderResponse {
	return CreateOrderResponse{
		Message:     "Order created successfully",
		OrderID:     o.ID,
		ReadableID:  o.ReadableID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
	}
}

//
// Handlers
//

// CreateOrder godoc
// @ID          createOrder
// @Summary     Create an order
// @Description Creates an order from explicit items. The total is the sum of item totals; COD orders start CONFIRMED, UPI orders PENDING_PAYMENT.
// @Description Supports idempotency via the Idempotency-Key header (same key → same order).
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateOrderRequest  true  "Order payload"
//
// @Success     201  {object}  handlers.CreateOrderResponse
// @Header      201  {string}  Idempotency-Replayed  "true when the response replays an earlier create"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Idempotency (replay path).
	idemKey, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if hasKey && h.idem != nil {
		if rid, found, err := h.idem.Lookup(ctx, scope, idemKey); err == nil && found {
			if id, valid := utils.ParseID(rid); valid {
				if prev, err := h.orderSvc.Get(ctx, id); err == nil {
					c.Header(middleware.HeaderIdempotencyReplayed, "true")
					ok(c, http.StatusCreated, newCreateOrderResponse(prev))
					return
				}
			}
		}
	}

	o, err := h.orderSvc.Create(ctx, req.input())
	if err != nil {
		failService(c, err, ErrCodeCreateFailed, "failed to create order")
		return
	}

	// Idempotency (store path), best effort.
	if hasKey && h.idem != nil {
		rid := strconv.FormatUint(uint64(o.ID), 10)
		if err := h.idem.Save(ctx, scope, idemKey, rid, http.StatusCreated); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Uint("order_id", o.ID).Msg("idempotency record not saved")
		}
	}

	ok(c, http.StatusCreated, newCreateOrderResponse(o))
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List orders (paginated)
// @Description Returns orders, most recent first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Orders
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"orders:3:1700000000:1:20\")
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListOrdersResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.orderSvc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"orders:%d:%d:%d:%d"`, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.orderSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed, "failed to fetch orders")
		return
	}
	ok(c, http.StatusOK, ListOrdersResponse{
		Orders:     items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get order details
// @Description Returns the order with its items (product name and pack size included).
// @Tags        Orders
// @Produce     json
//
// @Param       id  path  int  true  "Order ID"  minimum(1)
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return
	}
	o, err := h.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal, "failed to fetch order")
		return
	}
	ok(c, http.StatusOK, o)
}

// UpdateOrderStatus godoc
// @ID          updateOrderStatus
// @Summary     Update order status
// @Description Moves the order to a new status and appends a status log entry. changed_by defaults to "Admin".
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                                true  "Order ID"  minimum(1)
// @Param       body  body  handlers.UpdateOrderStatusRequest  true  "New status"
//
// @Success     200  {object}  handlers.UpdateOrderStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/status [put]
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	prev, err := h.orderSvc.UpdateStatus(c.Request.Context(), id, status, req.ChangedBy)
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed, "failed to update status")
		return
	}
	ok(c, http.StatusOK, UpdateOrderStatusResponse{
		Message:        "Status updated",
		OrderID:        id,
		PreviousStatus: prev,
		NewStatus:      status,
	})
}
