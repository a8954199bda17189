package errors

import (
	"fmt"
	"strings"
)

// AppError is the unified lifecycle error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Component is the name of the component the error is attributed to, if any.
	Component string `json:"component,omitempty"`
	// Fatal indicates the error aborts bring-up.
	Fatal bool `json:"fatal"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic fatal detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Fatal:   IsFatalCode(code),
	}
}

// Sentinels for errors.Is matching. They are never returned directly.
var (
	ErrConfiguration           = New(ErrCodeConfiguration, "configuration error")
	ErrCyclicDependency        = New(ErrCodeCyclicDependency, "cyclic dependency")
	ErrInvalidConfig           = New(ErrCodeInvalidConfig, "invalid config")
	ErrConstructionCancelled   = New(ErrCodeConstructionCancelled, "construction cancelled")
	ErrStageSwitchingCancelled = New(ErrCodeStageSwitchingCancelled, "stage switching cancelled")
	ErrConstructionFailed      = New(ErrCodeConstructionFailed, "construction failed")
	ErrActivationFailed        = New(ErrCodeActivationFailed, "activation failed")
	ErrStoppingHookFailed      = New(ErrCodeStoppingHookFailed, "stopping hook failed")
	ErrTeardownFailed          = New(ErrCodeTeardownFailed, "teardown failed")
)

// --- Constructors ---

// Configuration creates an error for an invalid registration or dependency declaration.
func Configuration(format string, args ...any) *AppError {
	return New(ErrCodeConfiguration, fmt.Sprintf(format, args...))
}

// CyclicDependency creates an error naming the cycle, e.g. [a b a].
func CyclicDependency(cycle []string) *AppError {
	e := New(ErrCodeCyclicDependency, "cyclic dependency: "+strings.Join(cycle, " -> "))
	return e.WithDetail("cycle", cycle)
}

// InvalidConfig creates an error for a configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return New(ErrCodeInvalidConfig, message)
}

// ConstructionCancelled creates an error for a task that observed cancellation
// while waiting for the named component.
func ConstructionCancelled(component string, cause error) *AppError {
	e := New(ErrCodeConstructionCancelled, fmt.Sprintf("components load cancelled while waiting for %s", component))
	e.Component = component
	e.Cause = cause
	return e
}

// StageSwitchingCancelled creates an error for a stage wait aborted by cancellation.
// The message is "<label> cancelled".
func StageSwitchingCancelled(label string) *AppError {
	return New(ErrCodeStageSwitchingCancelled, label+" cancelled")
}

// ConstructionFailed creates an error for a component whose factory failed.
func ConstructionFailed(component string, cause error) *AppError {
	e := New(ErrCodeConstructionFailed, fmt.Sprintf("cannot start component %s", component))
	e.Component = component
	e.Cause = cause
	return e
}

// ActivationFailed creates an error for a component whose OnAllComponentsLoaded failed.
func ActivationFailed(component string, cause error) *AppError {
	e := New(ErrCodeActivationFailed, fmt.Sprintf("OnAllComponentsLoaded() failed for component %s", component))
	e.Component = component
	e.Cause = cause
	return e
}

// StoppingHookFailed creates an error for a component whose OnAllComponentsAreStopping failed.
func StoppingHookFailed(component string, cause error) *AppError {
	e := New(ErrCodeStoppingHookFailed, fmt.Sprintf("OnAllComponentsAreStopping() failed for component %s", component))
	e.Component = component
	e.Cause = cause
	return e
}

// TeardownFailed creates an error for a component whose Close failed.
func TeardownFailed(component string, cause error) *AppError {
	e := New(ErrCodeTeardownFailed, fmt.Sprintf("failed to close component %s", component))
	e.Component = component
	e.Cause = cause
	return e
}
