// Delivery partner HTTP handlers.
//
// This file exposes REST endpoints for delivery partners:
//   - GET  /partners              (active partners ordered by name)
//   - POST /partners              (register; phone numbers are unique)
//   - PUT  /partners/{id}/status  (availability change, logged)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/utils"
)

//
// DTOs
//

// RegisterPartnerRequest is the JSON payload for registering a partner.
type RegisterPartnerRequest struct {
	Name  string `json:"name" example:"Suresh Kumar"`
	Phone string `json:"phone" example:"+919812345678"`
	// PIN is the partner's app login PIN; it is never returned.
	PIN string `json:"pin" example:"4821"`
}

// UpdatePartnerStatusRequest is the JSON payload for an availability change.
type UpdatePartnerStatusRequest struct {
	CurrentStatus string `json:"current_status" example:"AVAILABLE" enums:"AVAILABLE,BUSY,OFFLINE"`
	// ChangedBy defaults to "System".
	ChangedBy string `json:"changed_by,omitempty" example:"Suresh Kumar"`
}

// ListPartnersResponse lists partners.
type ListPartnersResponse struct {
	Partners []domain.DeliveryPartner `json:"partners"`
}

// PartnerResponse wraps a single partner.
type PartnerResponse struct {
	Message string                  `json:"message,omitempty" example:"Partner registered"`
	Partner *domain.DeliveryPartner `json:"partner"`
}

//
// Handlers
//

// ListPartners godoc
// @ID          listPartners
// @Summary     List delivery partners
// @Tags        Partners
// @Produce     json
// @Success     200  {object}  handlers.ListPartnersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /partners [get]
func (h *Handlers) ListPartners(c *gin.Context) {
	items, err := h.partnerSvc.List(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeListFailed, "failed to fetch partners")
		return
	}
	if items == nil {
		items = []domain.DeliveryPartner{}
	}
	ok(c, http.StatusOK, ListPartnersResponse{Partners: items})
}

// RegisterPartner godoc
// @ID          registerPartner
// @Summary     Register a delivery partner
// @Description New partners start OFFLINE. A phone number can only be registered once.
// @Tags        Partners
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterPartnerRequest  true  "Partner payload"
//
// @Success     201  {object}  handlers.PartnerResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or phone already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /partners [post]
func (h *Handlers) RegisterPartner(c *gin.Context) {
	var req RegisterPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.partnerSvc.Register(c.Request.Context(), req.Name, req.Phone, req.PIN)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed, "failed to register partner")
		return
	}
	ok(c, http.StatusCreated, PartnerResponse{Message: "Partner registered", Partner: p})
}

// UpdatePartnerStatus godoc
// @ID          updatePartnerStatus
// @Summary     Update partner availability
// @Tags        Partners
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                                  true  "Partner ID"  minimum(1)
// @Param       body  body  handlers.UpdatePartnerStatusRequest  true  "Availability"
//
// @Success     200  {object}  handlers.PartnerResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Partner not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /partners/{id}/status [put]
func (h *Handlers) UpdatePartnerStatus(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "partner id must be a positive integer")
		return
	}
	var req UpdatePartnerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CurrentStatus) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "current_status required")
		return
	}
	p, err := h.partnerSvc.UpdateStatus(c.Request.Context(), id, domain.PartnerStatus(req.CurrentStatus), req.ChangedBy)
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed, "failed to update partner")
		return
	}
	ok(c, http.StatusOK, PartnerResponse{Partner: p})
}
