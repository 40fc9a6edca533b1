// Package services defines the business logic of the storefront: the
// conversation state machine, cart and checkout operations, and the catalog,
// order and partner operations behind the REST API.
//
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers. Translation
// into chat replies or HTTP status codes happens in the caller.
package services

import "errors"

// Cart and checkout errors.
var (
	// ErrEmptyCart is returned when checkout or order placement finds no
	// active cart, or an active cart without items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrVariantUnavailable is returned when a variant is unknown, inactive
	// or out of stock.
	ErrVariantUnavailable = errors.New("variant unavailable")

	// ErrEmptyAddress is returned when an address submission carries no text.
	ErrEmptyAddress = errors.New("address is empty")

	// ErrInvalidPaymentMethod is returned for a payment method other than
	// UPI or COD.
	ErrInvalidPaymentMethod = errors.New("payment method must be UPI or COD")
)

// Catalog errors.
var (
	// ErrInvalidProduct is returned when a product payload lacks a name or
	// carries an invalid variant.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrDuplicateSKU is returned when a variant SKU is already in use.
	ErrDuplicateSKU = errors.New("sku already exists")
)

// Order errors.
var (
	// ErrOrderNotFound indicates that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidOrder is returned when an order request has no items, a
	// non-positive quantity or an unknown variant.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidStatus is returned for an unknown order or partner status.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrCustomerNotFound is returned when an order references an unknown
	// customer.
	ErrCustomerNotFound = errors.New("customer not found")
)

// Partner errors.
var (
	// ErrPartnerNotFound indicates that the requested partner does not exist.
	ErrPartnerNotFound = errors.New("partner not found")

	// ErrDuplicatePhone is returned when a partner phone is already registered.
	ErrDuplicatePhone = errors.New("phone number already registered")

	// ErrInvalidPartner is returned when name or phone is missing.
	ErrInvalidPartner = errors.New("name and phone are required")
)
