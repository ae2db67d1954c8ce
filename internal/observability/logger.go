package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldSessionID is the field name for session ID.
	LogFieldSessionID = "session_id"
	// LogFieldOwner is the field name for the session owner.
	LogFieldOwner = "owner"
	// LogFieldScope is the field name for the study scope.
	LogFieldScope = "scope"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldItem is the field name for an item ID.
	LogFieldItem = "item"
	// LogFieldGrade is the field name for a grade value.
	LogFieldGrade = "grade"
	// LogFieldPhase is the field name for an item phase.
	LogFieldPhase = "phase"
	// LogFieldDay is the field name for a counter day.
	LogFieldDay = "day"
)

// SessionContext represents the context for a single study session with structured logging.
type SessionContext struct {
	SessionID string
	OwnerID   string
	Scope     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewSessionContext creates a new session context with a generated session ID.
func NewSessionContext(logger *slog.Logger, ownerID, scope string) *SessionContext {
	return &SessionContext{
		SessionID: generateSessionID(),
		OwnerID:   ownerID,
		Scope:     scope,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// NewSessionContextWithID creates a new session context with a specific session ID.
func NewSessionContextWithID(logger *slog.Logger, sessionID, ownerID, scope string) *SessionContext {
	return &SessionContext{
		SessionID: sessionID,
		OwnerID:   ownerID,
		Scope:     scope,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithFields returns a new logger with additional fields.
func (s *SessionContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	base := s.baseAttrs()
	result := make([]any, 0, len(base)+len(attrs))
	for _, attr := range base {
		result = append(result, attr)
	}
	for _, attr := range attrs {
		result = append(result, attr)
	}
	return s.Logger.With(result...)
}

// Info logs an info message.
func (s *SessionContext) Info(msg string, attrs ...slog.Attr) {
	combined := s.baseAttrsAppended(attrs...)
	s.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, combined...)
}

// Debug logs a debug message.
func (s *SessionContext) Debug(msg string, attrs ...slog.Attr) {
	combined := s.baseAttrsAppended(attrs...)
	s.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, combined...)
}

// Warn logs a warning message.
func (s *SessionContext) Warn(msg string, attrs ...slog.Attr) {
	combined := s.baseAttrsAppended(attrs...)
	s.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, combined...)
}

// Error logs an error message with the error.
func (s *SessionContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	combined := s.baseAttrsAppended(allAttrs...)
	s.Logger.LogAttrs(context.Background(), slog.LevelError, msg, combined...)
}

// Duration returns the elapsed time since the session started.
func (s *SessionContext) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (s *SessionContext) DurationMs() int64 {
	return s.Duration().Milliseconds()
}

// baseAttrs returns the base attributes.
func (s *SessionContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldSessionID, s.SessionID),
		slog.String(LogFieldOwner, s.OwnerID),
		slog.String(LogFieldScope, s.Scope),
	}
}

// baseAttrsAppended combines the base attributes with additional attributes.
func (s *SessionContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := s.baseAttrs()
	return append(base, attrs...)
}

// generateSessionID generates a unique session ID using full UUID.
func generateSessionID() string {
	return uuid.New().String()
}

// LogCtx is a helper to get session context from context.Context.
// This allows logging functions to accept context and extract session info.
type ctxKey struct{}

// WithSessionContext adds the session context to the context.
func WithSessionContext(ctx context.Context, sessCtx *SessionContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, sessCtx)
}

// FromContext extracts the session context from the context.
func FromContext(ctx context.Context) (*SessionContext, bool) {
	sessCtx, ok := ctx.Value(ctxKey{}).(*SessionContext)
	return sessCtx, ok
}

// MustFromContext extracts the session context from the context or panics.
func MustFromContext(ctx context.Context) *SessionContext {
	sessCtx, ok := FromContext(ctx)
	if !ok {
		panic("session context not found in context")
	}
	return sessCtx
}
