// Package errors provides the typed errors raised while bringing a component
// graph up and down.
//
// Every error is an *AppError carrying a machine-readable ErrorCode and,
// where it applies, the name of the component that caused it. Matching with
// the standard library works by code:
//
//	if errors.Is(err, lcerrors.ErrConstructionCancelled) { ... }
package errors
