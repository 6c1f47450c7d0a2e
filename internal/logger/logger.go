// Package logger builds the process logger and logs security events without leaking secrets.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Redacted replaces the value of any sensitive attribute
const Redacted = "[REDACTED]"

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a JSON logger writing to w at the given level
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: redactAttr,
	}))
}

func redactAttr(groups []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// isSensitiveKey checks if a key might contain sensitive data.
func isSensitiveKey(key string) bool {
	switch strings.ToLower(key) {
	case "password", "api_key", "apikey", "token", "access_token", "refresh_token",
		"secret", "client_secret", "authorization", "auth", "credential", "credentials",
		"session", "cookie":
		return true
	}
	return false
}
