package security

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents one step of a submission's lifecycle
type EventType string

const (
	EventSubmissionRejected EventType = "submission_rejected"
	EventAttachmentRejected EventType = "attachment_rejected"
	EventStaffNotified      EventType = "staff_notified"
	EventStaffFailed        EventType = "staff_failed"
	EventAcknowledged       EventType = "acknowledged"
	EventAckFailed          EventType = "ack_failed"
)

// DispatchEvent is one structured log record about a submission.
type DispatchEvent struct {
	Event     EventType
	Submitter string // email, masked before logging
	RequestID string
	Receipt   string
	Reason    string
	Details   map[string]interface{}
}

// DispatchLogger records what happened to each submission without logging
// the submitter's address in clear.
type DispatchLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

// NewDispatchLogger builds a production zap logger writing JSON to stdout.
func NewDispatchLogger(serviceName string) *DispatchLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddStacktrace(zapcore.DPanicLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return NewDispatchLoggerWith(logger, serviceName)
}

// NewDispatchLoggerWith wraps an existing zap logger, e.g. zaptest or zap.NewNop.
func NewDispatchLoggerWith(logger *zap.Logger, serviceName string) *DispatchLogger {
	return &DispatchLogger{
		zapLogger:   logger,
		serviceName: serviceName,
		environment: getEnvironment(),
	}
}

// Log writes one event. Failures are logged at warn, successes at info.
func (dl *DispatchLogger) Log(ctx context.Context, event DispatchEvent) {
	level := zapcore.InfoLevel
	switch event.Event {
	case EventSubmissionRejected, EventAttachmentRejected:
		level = zapcore.WarnLevel
	case EventStaffFailed, EventAckFailed:
		level = zapcore.ErrorLevel
	}

	fields := []zap.Field{
		zap.String("service", dl.serviceName),
		zap.String("env", dl.environment),
		zap.String("event", string(event.Event)),
	}
	if event.Submitter != "" {
		fields = append(fields, zap.String("submitter", MaskEmail(event.Submitter)))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.Receipt != "" {
		fields = append(fields, zap.String("receipt", event.Receipt))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	dl.zapLogger.Log(level, string(event.Event), fields...)
}

// Sync flushes any buffered log entries
func (dl *DispatchLogger) Sync() error {
	return dl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	at := -1
	for i, c := range email {
		if c == '@' {
			at = i
			break
		}
	}
	switch {
	case at < 0:
		return "***"
	case at <= 1:
		return "***" + email[at:]
	}
	return email[:1] + "***" + email[at:]
}

func getEnvironment() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}
