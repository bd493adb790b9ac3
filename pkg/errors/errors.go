package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and retry decisions.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeInternal   Code = "INTERNAL_ERROR"
	CodeDependency Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is surfaced to API callers.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
	// ExposeMessage lets the typed message replace PublicMessage.
	ExposeMessage  bool
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		ExposeMessage:  true,
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ExposeMessage: true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		ExposeMessage: true,
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

// MetadataFor returns the metadata for code, falling back to CodeInternal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error carried across package boundaries.
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
	return New(code, fmt.Sprintf(format, args...))
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

// PublicMessage is the message safe to return to API callers.
func (e *Error) PublicMessage() string {
	meta := MetadataFor(e.Code())
	if meta.ExposeMessage && e.Message() != "" {
		return e.Message()
	}
	return meta.PublicMessage
}

// PublicDetails returns the details when the code allows exposing them.
func (e *Error) PublicDetails() any {
	if !MetadataFor(e.Code()).DetailsAllowed {
		return nil
	}
	return e.Details()
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

// As returns the outermost typed error in err's chain, or nil.
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

// Classify returns the typed error in err's chain, wrapping untyped errors as
// CodeInternal.
func Classify(err error) *Error {
	if typed := As(err); typed != nil {
		return typed
	}
	return Wrap(CodeInternal, err, "unexpected error")
}

// CodeOf returns the code of err, CodeInternal for untyped errors.
func CodeOf(err error) Code {
	return Classify(err).Code()
}

// IsCode reports whether err carries a typed error with the given code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// IsRetryable reports whether a later attempt may succeed. Typed errors
// follow their code; untyped errors are retryable when the failure is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if typed := As(err); typed != nil {
		return MetadataFor(typed.Code()).Retryable
	}
	return Dump(err).Transient
}
