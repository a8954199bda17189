package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph validation errors, reported before any construction starts.
const (
	// ErrCodeConfiguration indicates an invalid registration or dependency declaration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeCyclicDependency indicates the declared dependencies form a cycle.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	// ErrCodeInvalidConfig indicates the service configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Cancellation errors, recovered by the waiting task.
const (
	// ErrCodeConstructionCancelled indicates bring-up was aborted while a task waited on a dependency.
	ErrCodeConstructionCancelled ErrorCode = "CONSTRUCTION_CANCELLED"
	// ErrCodeStageSwitchingCancelled indicates a stage wait was aborted.
	ErrCodeStageSwitchingCancelled ErrorCode = "STAGE_SWITCHING_CANCELLED"
)

// Lifecycle failures.
const (
	// ErrCodeConstructionFailed indicates a component factory returned an error.
	ErrCodeConstructionFailed ErrorCode = "CONSTRUCTION_FAILED"
	// ErrCodeActivationFailed indicates OnAllComponentsLoaded failed.
	ErrCodeActivationFailed ErrorCode = "ACTIVATION_FAILED"
	// ErrCodeStoppingHookFailed indicates OnAllComponentsAreStopping failed. Logged only.
	ErrCodeStoppingHookFailed ErrorCode = "STOPPING_HOOK_FAILED"
	// ErrCodeTeardownFailed indicates Close failed during teardown. Logged only.
	ErrCodeTeardownFailed ErrorCode = "TEARDOWN_FAILED"
)

// fatalCodes lists the codes that abort a bring-up.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeConfiguration:      true,
	ErrCodeCyclicDependency:   true,
	ErrCodeInvalidConfig:      true,
	ErrCodeConstructionFailed: true,
	ErrCodeActivationFailed:   true,
}

// IsFatalCode returns true if the error code aborts bring-up.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
