// Package apperr is the coordinator's tagged-result error type: handlers and
// services return *Error instead of ad-hoc error strings, so every failure
// carries a stable machine-readable Code alongside a human message and
// optional structured Details.
package apperr

import "fmt"

// Code identifies a specific failure condition. Values are stable API
// contract: clients match on Code, never on Message.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeTokenInvalid       Code = "TOKEN_INVALID"
	CodeAccountDisabled    Code = "ACCOUNT_DISABLED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeUsernameExists     Code = "USERNAME_EXISTS"

	CodeRequestNotFound     Code = "REQUEST_NOT_FOUND"
	CodeRequestNameExists   Code = "REQUEST_NAME_EXISTS"
	CodeDuplicateUPC        Code = "DUPLICATE_UPC"
	CodeRequestLocked       Code = "REQUEST_LOCKED"
	CodeInvalidStatus       Code = "INVALID_STATUS"
	CodeQuantityExceeded    Code = "QUANTITY_EXCEEDED"
	CodeInvalidRequestName  Code = "INVALID_REQUEST_NAME"
	CodeValidationError     Code = "VALIDATION_ERROR"
	CodeCatalogNotLoaded    Code = "CATALOG_NOT_LOADED"
	CodeInternalError       Code = "INTERNAL_ERROR"
)

// Error is the tagged result carried across service and handler boundaries.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with no details.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns a copy of e carrying the given structured details, e.g.
// REQUEST_LOCKED -> {"locked_by": "..."}, INVALID_STATUS -> {"current": ...,
// "expected": ...}, QUANTITY_EXCEEDED -> {"remaining": ...}.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As returns err as an *Error and reports whether it is one.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}

// Is reports whether err is an *Error carrying code.
func Is(err error, code Code) bool {
	ae, ok := err.(*Error)
	return ok && ae.Code == code
}
