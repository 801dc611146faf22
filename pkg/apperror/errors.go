package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsSystem reports whether err is a system/transient failure (SYS_*), one
// where a retry may succeed. Business and validation errors are not system
// errors: retrying them is pointless until the input or the account state
// changes. Unclassified errors are treated as system failures.
func IsSystem(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return true
	}
	return len(appErr.Code) >= 3 && appErr.Code[:3] == "SYS"
}

// ---- Ledger & money movement (LED) ----

func ErrInsufficientBalance() *AppError {
	return New("LED_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAlreadyProcessed() *AppError {
	return New("LED_003", "Transaction has already been processed", http.StatusConflict)
}

func ErrInvalidAmount() *AppError {
	return New("LED_004", "Invalid amount", http.StatusBadRequest)
}

func ErrDuplicateBeneficiary() *AppError {
	return New("LED_005", "Beneficiary already saved", http.StatusConflict)
}

func ErrCurrencyNotSupported(currency string) *AppError {
	return New("LED_006", fmt.Sprintf("Currency %s is not supported", currency), http.StatusBadRequest)
}

// ---- Transaction PIN (PIN) ----

func ErrPinNotSet() *AppError {
	return New("PIN_001", "Transaction PIN has not been set", http.StatusForbidden)
}

func ErrInvalidPin() *AppError {
	return New("PIN_002", "Invalid transaction PIN", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Validation (VAL) ----

// Validation returns an input validation error. Safe to retry after
// correcting the input; nothing has been mutated.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

func ErrRateLimitExceeded() *AppError {
	return New("SYS_003", "Too many requests, slow down", http.StatusTooManyRequests)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
