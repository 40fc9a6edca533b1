// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes the stable, machine-readable codes carried in the
// ErrorResponse envelope and the mapping from service sentinel errors to an
// HTTP status and code. Clients branch on the code; the message is for humans.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "duplicate",
//	  "message": "phone number already registered"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/whatsapp-storefront/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation       = "validation_failed"
	ErrCodeDuplicate        = "duplicate"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeUpdateFailed     = "update_failed"
	ErrCodeImportFailed     = "import_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failService translates a service error into an error response. Known
// sentinels map to 4xx; anything else is a 5xx with fallbackCode and a
// generic message so internals never leak to clients.
func failService(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrPartnerNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateSKU):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrDuplicatePhone):
		// Existing clients expect 400 for a re-registered phone.
		fail(c, http.StatusBadRequest, ErrCodeDuplicate, err.Error())
	case errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPaymentMethod),
		errors.Is(err, services.ErrInvalidPartner),
		errors.Is(err, services.ErrCustomerNotFound):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		logCause(c, err)
		fail(c, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
