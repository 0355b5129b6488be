package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeInvalidTransition, http.StatusUnprocessableEntity},
		{ErrCodeInvalidQuantity, http.StatusUnprocessableEntity},
		{ErrCodeSerialCountMismatch, http.StatusUnprocessableEntity},
		{ErrCodePaymentRequired, http.StatusPaymentRequired},
		{ErrCodeServiceUnreachable, http.StatusServiceUnavailable},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"DUPLICATE_REQUEST", ErrCodeDuplicateRequest},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"INVALID_TRANSITION", ErrCodeInvalidTransition},
		{"INVALID_QUANTITY", ErrCodeInvalidQuantity},
		{"SERIAL_COUNT_MISMATCH", ErrCodeSerialCountMismatch},
		{"PAYMENT_REQUIRED", ErrCodePaymentRequired},
		{"SERVICE_UNREACHABLE", ErrCodeServiceUnreachable},
		{"CONFLICT", ErrCodeConflict},
		{"UNAUTHORIZED", ErrCodeUnauthorized},
		// New codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryMappedCodeHasStatus(t *testing.T) {
	for legacy, code := range LegacyErrorCodeMapping {
		t.Run(legacy, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[code]
			assert.True(t, ok, "%s maps to %s which has no HTTP status", legacy, code)
			assert.Contains(t, code, "ERR_")
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Order not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Order not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "order_number", Message: "This field is required"},
		{Field: "quantity", Message: "Must be greater than 0"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "order_number", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON_OmitsEmptyLifecycleFields(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(ErrCodeInternal, "boom"))
	require.NoError(t, err)

	var raw struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{"code": ErrCodeInternal, "message": "boom"}, raw.Error)

	data, err = json.Marshal(NewErrorResponseFromInfo(ErrorInfo{
		Code:          ErrCodePaymentRequired,
		Message:       "receive rejected",
		Action:        "receive",
		Status:        "sent",
		PaymentStatus: "partial",
		Required:      "paid",
	}))
	require.NoError(t, err)
	raw.Error = nil
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "receive", raw.Error["action"])
	assert.Equal(t, "partial", raw.Error["payment_status"])
	assert.Equal(t, "paid", raw.Error["required"])
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{100, 0, 5, 20},
		{100, -1, 5, 20},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}
