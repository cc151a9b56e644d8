package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("LED_003", "Insufficient balance", http.StatusPaymentRequired)
	assert.Equal(t, "[LED_003] Insufficient balance", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("pg: connection refused"))
	assert.Contains(t, wrapped.Error(), "SYS_001")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	e := InternalError(fmt.Errorf("apply delta: %w", inner))
	assert.True(t, errors.Is(e, inner))
}

func TestErrorTaxonomy_Codes(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrMissingFields("user_id"), "LED_001", http.StatusBadRequest},
		{ErrInvalidDirection("sideways"), "LED_002", http.StatusBadRequest},
		{ErrInsufficientBalance(), "LED_003", http.StatusPaymentRequired},
		{ErrAccountNotFound("user"), "LED_004", http.StatusNotFound},
		{ErrInvalidAmount(), "LED_005", http.StatusBadRequest},
		{ErrRatesMissing("XYZ"), "FX_001", http.StatusUnprocessableEntity},
		{ErrWalletAlreadyExists(), "WAL_001", http.StatusConflict},
		{ErrUnknownDepositAddress(), "WAL_002", http.StatusNotFound},
		{ErrSettlementFailed("rates stale"), "SET_001", http.StatusUnprocessableEntity},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{ErrExternalService(errors.New("x")), "SYS_002", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrExternalService_HidesDetail(t *testing.T) {
	e := ErrExternalService(errors.New("watcher: dial tcp 10.0.0.3:443 refused"))
	// Message shown to callers carries no internal detail.
	assert.Equal(t, "External service unavailable", e.Message)
	// The wrapped detail is still reachable for logging.
	assert.Contains(t, e.Error(), "dial tcp")
}
