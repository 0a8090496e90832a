package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRateLimiter(3, time.Minute, logger)
	defer rl.Stop()

	// Первые rate запросов проходят
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should be allowed", i)
	}

	// Следующий запрос того же IP отклоняется
	assert.False(t, rl.Allow("10.0.0.1"))

	// Другой IP имеет собственный bucket
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_RefillAfterWindow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRateLimiter(1, 20*time.Millisecond, logger)
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// После окна токены пополняются
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	middleware := RateLimitMiddleware(2, time.Minute, logger)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, doRequest())
	assert.Equal(t, http.StatusOK, doRequest())
	assert.Equal(t, http.StatusTooManyRequests, doRequest())
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		xff      string
		xri      string
		remote   string
		expected string
	}{
		{
			name:     "RemoteAddr only",
			remote:   "10.0.0.1:54321",
			expected: "10.0.0.1:54321",
		},
		{
			name:     "X-Forwarded-For single",
			xff:      "203.0.113.5",
			remote:   "10.0.0.1:54321",
			expected: "203.0.113.5",
		},
		{
			name:     "X-Forwarded-For list takes first",
			xff:      "203.0.113.5,198.51.100.7",
			remote:   "10.0.0.1:54321",
			expected: "203.0.113.5",
		},
		{
			name:     "X-Real-IP fallback",
			xri:      "203.0.113.9",
			remote:   "10.0.0.1:54321",
			expected: "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}
