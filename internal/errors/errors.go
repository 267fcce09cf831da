package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeContent    ErrorType = "content"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeReasoning  ErrorType = "reasoning"
	ErrorTypeEncryption ErrorType = "encryption"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err is, or wraps, an AppError of the given
// type.
func IsErrorType(err error, typ ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == typ
	}
	return false
}

// newAppError is an unexported helper to create AppError instances
func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError covers malformed input: bad titles, missing required
// fields. Surfaced immediately, never retried.
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

// NewContentError covers extraction and parsing failures, including
// insufficient extracted text.
func NewContentError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeContent, code, message, cause)
}

// NewTimeoutError covers any pipeline-stage deadline being exceeded.
func NewTimeoutError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, code, message, cause)
}

// NewReasoningError covers the external reasoning capability being
// unreachable or failing repeatedly.
func NewReasoningError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeReasoning, code, message, cause)
}

// NewEncryptionError covers seal/open failures. Always fatal for the
// submission: content is never persisted unencrypted.
func NewEncryptionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeEncryption, code, message, cause)
}

func NewStorageError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeStorage, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{logger: logger}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	if appErr, ok := err.(*AppError); ok {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}

		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}

		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
	} else {
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
	}
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable    = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeMissingTitle       = "MISSING_TARGET_TITLE"
	ErrCodeExtractionFailed   = "EXTRACTION_FAILED"
	ErrCodeTooManyPages       = "TOO_MANY_PAGES"
	ErrCodeInsufficientText   = "INSUFFICIENT_TEXT"
	ErrCodeStageTimeout       = "STAGE_TIMEOUT"
	ErrCodeReasoningFailed    = "REASONING_FAILED"
	ErrCodeReasoningTimeout   = "REASONING_TIMEOUT"
	ErrCodeSealFailed         = "SEAL_FAILED"
	ErrCodeOpenFailed         = "OPEN_FAILED"
	ErrCodeSubmissionNotFound = "SUBMISSION_NOT_FOUND"
	ErrCodeIllegalTransition  = "ILLEGAL_TRANSITION"
	ErrCodeDatabaseFailure    = "DATABASE_FAILURE"
	ErrCodeNoAdmissibleCauses = "NO_ADMISSIBLE_CAUSES"
	ErrCodeMissingAPIKey      = "MISSING_API_KEY"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
)
