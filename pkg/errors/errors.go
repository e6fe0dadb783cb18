package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeNotFound              Code = "NOT_FOUND"
	CodeProductNotFound       Code = "PRODUCT_NOT_FOUND"
	CodePaymentMethodNotFound Code = "PAYMENT_METHOD_NOT_FOUND"
	CodeConflict              Code = "CONFLICT"
	CodeStateConflict         Code = "STATE_CONFLICT"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodeOutOfStock            Code = "OUT_OF_STOCK"
	CodeProductUnavailable    Code = "PRODUCT_UNAVAILABLE"
	CodeInvalidCart           Code = "INVALID_CART"
	CodeEmptyCart             Code = "EMPTY_CART"
	CodeNotCancelable         Code = "NOT_CANCELABLE"
	CodePaymentFailed         Code = "PAYMENT_FAILED"
	CodeIdempotency           Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal              Code = "INTERNAL_ERROR"
	CodeDependency            Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is surfaced to callers. Recoverable codes are
// ones the caller can fix locally (re-prompt, adjust quantity) without retrying
// the same request.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	Recoverable    bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Recoverable:    true,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeProductNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Recoverable:    true,
		PublicMessage:  "product not found",
		DetailsAllowed: true,
	},
	CodePaymentMethodNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Recoverable:    true,
		PublicMessage:  "payment method not found",
		DetailsAllowed: true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		Retryable:     true,
		PublicMessage: "conflict detected",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeInsufficientStock: {
		HTTPStatus:     http.StatusConflict,
		Recoverable:    true,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
	},
	CodeOutOfStock: {
		HTTPStatus:     http.StatusConflict,
		Recoverable:    true,
		PublicMessage:  "product out of stock",
		DetailsAllowed: true,
	},
	CodeProductUnavailable: {
		HTTPStatus:     http.StatusConflict,
		Recoverable:    true,
		PublicMessage:  "product unavailable",
		DetailsAllowed: true,
	},
	CodeInvalidCart: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Recoverable:    true,
		PublicMessage:  "cart is not valid for checkout",
		DetailsAllowed: true,
	},
	CodeEmptyCart: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Recoverable:    true,
		PublicMessage:  "cart is empty",
		DetailsAllowed: false,
	},
	CodeNotCancelable: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "order cannot be canceled",
		DetailsAllowed: true,
	},
	CodePaymentFailed: {
		HTTPStatus:     http.StatusPaymentRequired,
		Retryable:      true,
		PublicMessage:  "payment failed",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// Recoverable reports whether the caller can correct the request locally.
func (e *Error) Recoverable() bool {
	if e == nil {
		return false
	}
	return MetadataFor(e.code).Recoverable
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the typed code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
