package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSecureUpgrader_Origins(t *testing.T) {
	upgrader := NewSecureUpgrader([]string{" http://localhost:5173 ", "https://app.campus.edu/", ""}, nil)

	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:5173", true},
		{"https://app.campus.edu", true},
		{"", true},
		{"http://localhost:3000", false},
		{"https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, upgrader.CheckOrigin(req))
		})
	}
}

func TestNewSecureUpgrader_DefaultOrigin(t *testing.T) {
	upgrader := NewSecureUpgrader(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", DefaultAllowedOrigin)
	assert.True(t, upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://example.com")
	assert.False(t, upgrader.CheckOrigin(req))
}
