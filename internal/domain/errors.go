package domain

import "errors"

// Domain error taxonomy. Handlers match these with errors.Is and convert
// them to short user-facing replies; none of them should crash the update
// loop.
var (
	// ErrUnknownProduct indicates the product id is not in the catalog.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrOrderNotFound indicates the order id is not in the ledger.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyProcessed indicates a transition was attempted on a
	// non-PENDING order. The order is left untouched.
	ErrAlreadyProcessed = errors.New("order already processed")
	// ErrInsufficientStock indicates fewer codes remain than requested.
	// An approval failing with this error leaves the order PENDING and
	// the stock unchanged; it is retryable after restock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNoActiveCheckout indicates proof was submitted without a
	// preceding product selection.
	ErrNoActiveCheckout = errors.New("no active checkout")
	// ErrNotAuthorized indicates the caller is not the configured admin.
	ErrNotAuthorized = errors.New("not authorized")
)
