package logger

import (
	"log/slog"
	"time"
)

// SecurityLogger provides methods for logging security-related events.
// It ensures sensitive data is never logged.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger wraps logger for security events
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityLogger{logger: logger}
}

// AuthFailure logs a rejected session. Never logs the token itself.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a client exceeds rate limits.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// OAuthStateMismatch logs a consent callback whose state does not belong to the session
func (s *SecurityLogger) OAuthStateMismatch(ip, userID, reason string) {
	s.logger.Warn("oauth_state_mismatch",
		slog.String("event_type", "oauth_state"),
		slog.String("ip", ip),
		slog.String("user_id", userID),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// SecurityEvent logs a generic security event.
func (s *SecurityLogger) SecurityEvent(eventType, ip string, details map[string]string) {
	attrs := []any{
		slog.String("event_type", eventType),
		slog.String("ip", ip),
		slog.Time("timestamp", time.Now().UTC()),
	}

	for k, v := range details {
		// Filter out sensitive keys
		if isSensitiveKey(k) {
			continue
		}
		attrs = append(attrs, slog.String(k, v))
	}

	s.logger.Warn("security_event", attrs...)
}
