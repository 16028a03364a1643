// Package errors provides structured error types for the metareflect library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the type and member names involved, a field path for
// nested metadata structures, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseQuery, errors.KindAmbiguousMatch).
//		Type("N.T`1").
//		Member("M").
//		Detail("2 candidates").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseResolve, "assembly", "Lib, Version=1.0.0.0")
//	err := errors.Malformed(errors.PhaseDecode, path, "type var 3 out of range")
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches a kind regardless of phase, and Permanent reports whether a
// failure is deterministic enough to be memoized by the caches.
package errors
