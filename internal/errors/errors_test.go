package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMarshalsWithoutCause(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCat    ErrorCategory
	}{
		{
			name:       "validation error",
			err:        NewValidationError("userId is required"),
			wantStatus: http.StatusBadRequest,
			wantCat:    CategoryValidation,
		},
		{
			name:       "auth error",
			err:        NewAuthError("device token mismatch"),
			wantStatus: http.StatusForbidden,
			wantCat:    CategoryAuth,
		},
		{
			name:       "not found error",
			err:        NewNotFoundError("user not found"),
			wantStatus: http.StatusNotFound,
			wantCat:    CategoryValidation,
		},
		{
			name:       "rate limit error",
			err:        NewRateLimitError("30"),
			wantStatus: http.StatusTooManyRequests,
			wantCat:    CategoryRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.err)
			require.NoError(t, err)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, string(tt.wantCat), body["category"])
			assert.Equal(t, float64(tt.wantStatus), body["http_status"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestAppErrorMarshalsWithCause(t *testing.T) {
	appErr := NewStorageError("write failed", errors.New("disk full"))

	data, err := json.Marshal(appErr)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "write failed", body["message"])
	assert.Equal(t, float64(http.StatusInternalServerError), body["http_status"])
}

func TestToAppErrorPassthrough(t *testing.T) {
	original := NewAuthError("nope")
	assert.Same(t, original, ToAppError(original))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewNetworkError("down", nil)))
	assert.True(t, IsRetryableError(NewRateLimitError("10")))
	assert.False(t, IsRetryableError(NewValidationError("bad input")))
}
