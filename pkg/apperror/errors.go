package apperror

import (
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

// ---- Ledger preconditions & business rules (LED) ----

func ErrMissingFields(detail string) *AppError {
	return New("LED_001", fmt.Sprintf("Missing required fields: %s", detail), http.StatusBadRequest)
}

func ErrInvalidDirection(got string) *AppError {
	return New("LED_002", fmt.Sprintf("Direction must be credit or debit, got %q", got), http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("LED_003", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrAccountNotFound(entity string) *AppError {
	return New("LED_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New("LED_005", "Amount must be a positive number", http.StatusBadRequest)
}

// ---- Currency conversion (FX) ----

func ErrRatesMissing(currency string) *AppError {
	return New("FX_001", fmt.Sprintf("No exchange rate available for %s", currency), http.StatusUnprocessableEntity)
}

// ---- Wallet provisioning & deposits (WAL) ----

func ErrWalletAlreadyExists() *AppError {
	return New("WAL_001", "Wallet already exists for this account and currency", http.StatusConflict)
}

func ErrUnknownDepositAddress() *AppError {
	return New("WAL_002", "Deposit address is not monitored", http.StatusNotFound)
}

func ErrProvisioningFailed(err error) *AppError {
	return Wrap("WAL_003", "Wallet provisioning failed", http.StatusBadGateway, err)
}

// ---- Settlement (SET) ----

func ErrSettlementFailed(reason string) *AppError {
	return New("SET_001", fmt.Sprintf("Settlement failed: %s", reason), http.StatusUnprocessableEntity)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & external services (SYS) ----

func ErrExternalService(err error) *AppError {
	return Wrap("SYS_002", "External service unavailable", http.StatusBadGateway, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("LED_001", message, http.StatusBadRequest)
}
