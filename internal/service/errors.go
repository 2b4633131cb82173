package service

import (
	"errors"

	"github.com/kiwari-pos/resto/internal/lifecycle"
)

// ErrorKind is the caller-facing class of a business-rule failure.
type ErrorKind string

const (
	KindInvalidState              ErrorKind = "INVALID_STATE"
	KindTableUnavailable          ErrorKind = "TABLE_UNAVAILABLE"
	KindAmountInsufficient        ErrorKind = "AMOUNT_INSUFFICIENT"
	KindInsufficientBatchQuantity ErrorKind = "INSUFFICIENT_BATCH_QUANTITY"
	KindNotFound                  ErrorKind = "NOT_FOUND"
	KindValidation                ErrorKind = "VALIDATION"
	KindForbidden                 ErrorKind = "FORBIDDEN"
	KindInternal                  ErrorKind = "INTERNAL"
)

// Taxonomy roots. Concrete errors wrap one of these.
var (
	ErrInvalidState              = lifecycle.ErrInvalidState
	ErrTableUnavailable          = errors.New("table is not available")
	ErrAmountInsufficient        = errors.New("amount tendered is less than total")
	ErrInsufficientBatchQuantity = errors.New("batch quantity is insufficient")
	ErrNotFound                  = errors.New("not found")
	ErrValidation                = errors.New("validation failed")
	ErrForbidden                 = errors.New("forbidden")
)

// validationError carries a field-level reason while matching ErrValidation.
type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &validationError{msg: msg} }

// notFoundError names the missing entity while matching ErrNotFound.
type notFoundError struct{ what string }

func (e *notFoundError) Error() string        { return e.what + " not found" }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// Errors returned by the services.
var (
	ErrEmptyItems          = invalid("items are required")
	ErrInvalidOrderType    = invalid("invalid order_type")
	ErrInvalidQuantity     = invalid("quantity must be > 0")
	ErrInvalidMenuID       = invalid("invalid menu_id")
	ErrInvalidTableID      = invalid("invalid table_id")
	ErrTableRequired       = invalid("table_id is required for DINE_IN orders")
	ErrTableNotAllowed     = invalid("table_id is only allowed for DINE_IN orders")
	ErrCustomerName        = invalid("customer_name is required")
	ErrMenuNotFound        = invalid("menu not found")
	ErrMenuUnavailable     = invalid("menu is not available")
	ErrInvalidPayment      = invalid("invalid payment_method")
	ErrInvalidAmount       = invalid("invalid amount_tendered")
	ErrInvalidTableNumber  = invalid("table number must be > 0")
	ErrDuplicateTable      = invalid("table number already exists")
	ErrInvalidStockAmount  = invalid("quantity must be > 0")
	ErrInvalidUnitCost     = invalid("unit_cost must be >= 0")
	ErrInvalidIngredientID = invalid("invalid ingredient_id")
	ErrInvalidBatchID      = invalid("invalid batch_id")
	ErrEmptyLines          = invalid("lines are required")
	ErrReasonRequired      = invalid("reason is required")
	ErrInvalidExpiryDate   = invalid("expiry_date must be YYYY-MM-DD")

	ErrOrderNotFound      error = &notFoundError{what: "order"}
	ErrOrderItemNotFound  error = &notFoundError{what: "order item"}
	ErrTableNotFound      error = &notFoundError{what: "table"}
	ErrBatchNotFound      error = &notFoundError{what: "stock batch"}
	ErrIngredientNotFound error = &notFoundError{what: "ingredient"}
	ErrUnknownMenu        error = &notFoundError{what: "menu"}
)

// Kind classifies err into the error taxonomy. Anything unrecognised is
// KindInternal and must not be shown to the caller verbatim.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTableUnavailable):
		return KindTableUnavailable
	case errors.Is(err, ErrAmountInsufficient):
		return KindAmountInsufficient
	case errors.Is(err, ErrInsufficientBatchQuantity):
		return KindInsufficientBatchQuantity
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	}
	return KindInternal
}
