// Package engine is the embedding API: compiling source and files,
// running and enumerating queries, global variables and tables, and the
// ambient configuration/error surface around the compiler and machine
// packages.
package engine

import "github.com/rzubek/botl/langerrors"

// The six error kinds are langerrors.Kind values under the hood; engine
// re-exports the Error and Kind types and the kind constants (with a Kind
// suffix) so callers can inspect errors without importing langerrors. The
// constructors are not re-exported.
type (
	// Error is a typed compile-time or run-time error.
	Error = langerrors.Error
	// ErrorKind discriminates the six error kinds.
	ErrorKind = langerrors.Kind
)

const (
	SyntaxErrorKind           = langerrors.Syntax
	InstantiationErrorKind    = langerrors.Instantiation
	TypeErrorKind             = langerrors.Type
	UnknownPredicateErrorKind = langerrors.UnknownPredicate
	InvalidOperationErrorKind = langerrors.InvalidOperation
	UserThrowErrorKind        = langerrors.UserThrow
)
