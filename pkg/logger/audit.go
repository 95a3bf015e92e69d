package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent is one security-relevant occurrence: a login attempt, a
// password change, an admin action against an account.
type AuditEvent struct {
	EventType     string
	AccountID     string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes the structured audit trail. Events go through the
// service's slog handler so they land in the same stream as operational
// logs, tagged audit_type for filtering.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAuthAttempt records a login outcome. Failures log at Warn so a lockout
// storm stands out in the stream.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
	}
	attrs = appendIfSet(attrs, "account_id", event.AccountID)
	attrs = appendIfSet(attrs, "ip_address", event.IPAddress)
	attrs = appendIfSet(attrs, "user_agent", event.UserAgent)
	attrs = appendIfSet(attrs, "failure_reason", event.FailureReason)

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.emit(level, attrs)
}

// LogPasswordChange records password reset and change outcomes.
func (al *AuditLogger) LogPasswordChange(accountID, ipAddress string, success bool) {
	attrs := []slog.Attr{
		slog.String("audit_type", "password"),
		slog.String("event_type", "password_change"),
		slog.Bool("success", success),
		slog.String("account_id", accountID),
	}
	attrs = appendIfSet(attrs, "ip_address", ipAddress)

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	al.emit(level, attrs)
}

// LogAccountAction records lifecycle events: registration, verification,
// admin unlock/deactivate/delete. Metadata carries actor ids.
func (al *AuditLogger) LogAccountAction(eventType, accountID, ipAddress string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", eventType),
		slog.String("account_id", accountID),
	}
	attrs = appendIfSet(attrs, "ip_address", ipAddress)
	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}
	al.emit(slog.LevelInfo, attrs)
}

func (al *AuditLogger) emit(level slog.Level, attrs []slog.Attr) {
	attrs = append(attrs, slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)))
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

func appendIfSet(attrs []slog.Attr, key, value string) []slog.Attr {
	if value == "" {
		return attrs
	}
	return append(attrs, slog.String(key, value))
}
