package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_FatalDetection(t *testing.T) {
	tests := []struct {
		code  ErrorCode
		fatal bool
	}{
		{ErrCodeConfiguration, true},
		{ErrCodeCyclicDependency, true},
		{ErrCodeConstructionFailed, true},
		{ErrCodeActivationFailed, true},
		{ErrCodeConstructionCancelled, false},
		{ErrCodeStoppingHookFailed, false},
		{ErrCodeTeardownFailed, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg")
			if err.Fatal != tc.fatal {
				t.Errorf("expected fatal=%v for %s, got %v", tc.fatal, tc.code, err.Fatal)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeConfiguration, "bad")
	if err.Error() != "CONFIGURATION_ERROR: bad" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = err.WithCause(fmt.Errorf("root"))
	if !strings.Contains(err.Error(), "(cause: root)") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := ConstructionCancelled("db", nil)
	if !stderrors.Is(err, ErrConstructionCancelled) {
		t.Error("expected errors.Is to match by code")
	}
	if stderrors.Is(err, ErrConstructionFailed) {
		t.Error("expected no match for a different code")
	}
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	cancelled := ConstructionCancelled("db", nil)
	wrapped := fmt.Errorf("factory: %w", cancelled)
	failed := ConstructionFailed("cache", wrapped)

	if !stderrors.Is(failed, ErrConstructionFailed) {
		t.Error("expected outer code to match")
	}
	if !stderrors.Is(failed, ErrConstructionCancelled) {
		t.Error("expected cause chain to match")
	}
	if ComponentOf(failed) != "cache" {
		t.Errorf("expected component 'cache', got %q", ComponentOf(failed))
	}
}

func TestCyclicDependency_NamesCycle(t *testing.T) {
	err := CyclicDependency([]string{"a", "b", "a"})
	if !strings.Contains(err.Message, "a -> b -> a") {
		t.Errorf("expected cycle path in message, got %q", err.Message)
	}
	cycle, ok := err.Details["cycle"].([]string)
	if !ok || len(cycle) != 3 {
		t.Errorf("expected cycle detail, got %v", err.Details["cycle"])
	}
}

func TestStageSwitchingCancelled_Label(t *testing.T) {
	err := StageSwitchingCancelled("WaitForRunning")
	if err.Message != "WaitForRunning cancelled" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestConstructors_SetComponent(t *testing.T) {
	cause := fmt.Errorf("boom")
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"construction failed", ConstructionFailed("a", cause), ErrCodeConstructionFailed},
		{"activation failed", ActivationFailed("a", cause), ErrCodeActivationFailed},
		{"stopping hook failed", StoppingHookFailed("a", cause), ErrCodeStoppingHookFailed},
		{"teardown failed", TeardownFailed("a", cause), ErrCodeTeardownFailed},
		{"construction cancelled", ConstructionCancelled("a", cause), ErrCodeConstructionCancelled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Component != "a" {
				t.Errorf("expected component 'a', got %q", tc.err.Component)
			}
			if !stderrors.Is(tc.err, cause) {
				t.Error("expected cause to be unwrappable")
			}
		})
	}
}

func TestToResponse(t *testing.T) {
	err := ActivationFailed("http", fmt.Errorf("bind"))
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeActivationFailed {
		t.Errorf("expected code ACTIVATION_FAILED, got %s", resp.Error.Code)
	}
	if resp.Error.Component != "http" {
		t.Errorf("expected component 'http', got %q", resp.Error.Component)
	}
}

func TestIsCodeAndAsAppError(t *testing.T) {
	if IsCode(fmt.Errorf("plain"), ErrCodeConfiguration) {
		t.Error("plain error should not match any code")
	}
	if !IsCode(fmt.Errorf("wrap: %w", Configuration("x %d", 1)), ErrCodeConfiguration) {
		t.Error("expected wrapped configuration error to match")
	}
	if _, ok := AsAppError(nil); ok {
		t.Error("nil should not be an AppError")
	}
	if !IsAppError(InvalidConfig("bad")) {
		t.Error("expected AppError")
	}
}
