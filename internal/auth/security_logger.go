package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pickcoordinator/internal/logger"
)

// ClientInfo contains client information for security logging
type ClientInfo struct {
	IP        string
	UserAgent string
}

// ClientInfoKey is the context key for client information
type ClientInfoKey struct{}

// WithClientInfo adds client information to context
func WithClientInfo(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(ctx, ClientInfoKey{}, ClientInfo{
		IP:        clientIP,
		UserAgent: userAgent,
	})
}

// GetClientInfo retrieves client information from context
func GetClientInfo(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(ClientInfoKey{}).(ClientInfo)
	return info, ok
}

// SecurityEvent represents different types of security events
type SecurityEvent string

const (
	SecurityEventAuthAttempt    SecurityEvent = "auth_attempt"
	SecurityEventAuthSuccess    SecurityEvent = "auth_success"
	SecurityEventAuthFailure    SecurityEvent = "auth_failure"
	SecurityEventTokenRefreshed SecurityEvent = "token_refreshed"
	SecurityEventTokenRevoked   SecurityEvent = "token_revoked"
)

// SecurityLogger handles security event logging without exposing sensitive information
type SecurityLogger struct {
	logger *logrus.Logger
}

// NewSecurityLogger creates a new security logger instance
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: logger.Logger,
	}
}

// SecurityEventData contains data for security events
type SecurityEventData struct {
	Event     SecurityEvent `json:"event"`
	PrincipalID *uuid.UUID  `json:"principal_id,omitempty"`
	Username  string        `json:"username,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// LogAuthAttempt logs general authentication attempts
func (sl *SecurityLogger) LogAuthAttempt(ctx context.Context, clientIP, userAgent string) {
	data := SecurityEventData{
		Event:     SecurityEventAuthAttempt,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}

	sl.logSecurityEvent(ctx, data, "Authentication attempt")
}

// LogAuthSuccess logs successful authentication
func (sl *SecurityLogger) LogAuthSuccess(ctx context.Context, principalID uuid.UUID, username, clientIP, userAgent string) {
	data := SecurityEventData{
		Event:       SecurityEventAuthSuccess,
		PrincipalID: &principalID,
		Username:    username,
		ClientIP:    clientIP,
		UserAgent:   userAgent,
		Timestamp:   time.Now(),
	}

	sl.logSecurityEvent(ctx, data, "Authentication successful")
}

// LogAuthFailure logs failed authentication attempts
func (sl *SecurityLogger) LogAuthFailure(ctx context.Context, reason, clientIP, userAgent string) {
	data := SecurityEventData{
		Event:     SecurityEventAuthFailure,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		Reason:    reason,
		Timestamp: time.Now(),
	}

	sl.logSecurityEvent(ctx, data, "Authentication failed: "+reason)
}

// LogTokenRefreshed logs refresh-token rotation.
func (sl *SecurityLogger) LogTokenRefreshed(ctx context.Context, principalID uuid.UUID, username, clientIP, userAgent string) {
	data := SecurityEventData{
		Event:       SecurityEventTokenRefreshed,
		PrincipalID: &principalID,
		Username:    username,
		ClientIP:    clientIP,
		UserAgent:   userAgent,
		Timestamp:   time.Now(),
	}

	sl.logSecurityEvent(ctx, data, "Refresh token rotated")
}

// LogTokenRevoked logs an explicit refresh-token revocation (logout).
func (sl *SecurityLogger) LogTokenRevoked(ctx context.Context, principalID uuid.UUID, username, clientIP, userAgent string) {
	data := SecurityEventData{
		Event:       SecurityEventTokenRevoked,
		PrincipalID: &principalID,
		Username:    username,
		ClientIP:    clientIP,
		UserAgent:   userAgent,
		Timestamp:   time.Now(),
	}

	sl.logSecurityEvent(ctx, data, "Refresh token revoked")
}

// logSecurityEvent logs a security event with structured logging
func (sl *SecurityLogger) logSecurityEvent(ctx context.Context, data SecurityEventData, message string) {
	entry := logger.WithContext(ctx).WithFields(logrus.Fields{
		"security_event": data.Event,
		"event_data":     data,
		"component":      "security",
		"category":       "authentication",
	})

	if correlationID := logger.GetCorrelationID(ctx); correlationID != "" {
		entry = entry.WithField("correlation_id", correlationID)
	}

	switch data.Event {
	case SecurityEventAuthFailure:
		entry.Warn(message)
	default:
		entry.Info(message)
	}
}
