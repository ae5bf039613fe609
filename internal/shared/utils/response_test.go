package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/shared/constants"
	"github.com/orris-inc/keyhub/internal/shared/errors"
)

func newResponseContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorResponseWithError(t *testing.T) {
	t.Run("app error keeps its type and carries the request id", func(t *testing.T) {
		c, w := newResponseContext()
		c.Set(constants.ContextKeyRequestID, "req-1")

		ErrorResponseWithError(c, fmt.Errorf("wrapped: %w", errors.NewGoneError("key expired", "deadline passed")))

		assert.Equal(t, http.StatusGone, w.Code)
		resp := decode(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "req-1", resp.RequestID)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "gone", resp.Error.Type)
		assert.Equal(t, "deadline passed", resp.Error.Details)
	})

	t.Run("plain error is hidden behind a 500", func(t *testing.T) {
		c, w := newResponseContext()

		ErrorResponseWithError(c, fmt.Errorf("dial tcp 10.0.0.1:3306: refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "internal_error", resp.Error.Type)
		assert.NotContains(t, resp.Error.Message, "10.0.0.1")
		assert.Empty(t, resp.RequestID)
	})
}

func TestErrorResponseTypeFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusTooManyRequests, "rate_limited"},
		{http.StatusServiceUnavailable, "unavailable"},
		{http.StatusNotFound, "not_found"},
		{http.StatusInternalServerError, "internal_error"},
		{http.StatusTeapot, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, w := newResponseContext()
			ErrorResponse(c, tt.status, "nope")

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.want, resp.Error.Type)
		})
	}
}

func TestCreatedResponse(t *testing.T) {
	c, w := newResponseContext()
	CreatedResponse(c, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Message)
}
