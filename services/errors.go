package services

import (
	"errors"
	"fmt"
)

// Error codes returned to API clients
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeAlreadyRated       = "ALREADY_RATED"
	CodeTailorUnavailable  = "TAILOR_UNAVAILABLE"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeOTPNotFound        = "OTP_NOT_FOUND"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeOTPInvalid         = "OTP_INVALID"
	CodeCreditLimitReached = "CREDIT_LIMIT_REACHED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError is a domain error with a stable code that maps onto an HTTP response
type AppError struct {
	Code    string
	Message string
	Details interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches any AppError with the same code, so errors.Is(err, &AppError{Code: ...}) works
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// ErrorCode returns the code of an AppError, or "" for any other error
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func validationError(message string, details interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details}
}

func fieldError(field, message string) *AppError {
	return validationError("Invalid request data", map[string]string{field: message})
}

func notFound(entity string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", entity)}
}

func forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// InvalidTransitionDetails describes a rejected status change
type InvalidTransitionDetails struct {
	CurrentStatus   string   `json:"current_status"`
	RequestedStatus string   `json:"requested_status"`
	AllowedStatuses []string `json:"allowed_statuses"`
}

func invalidTransition(message string, details InvalidTransitionDetails) *AppError {
	return &AppError{Code: CodeInvalidTransition, Message: message, Details: details}
}
