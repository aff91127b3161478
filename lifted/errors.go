package lifted

import "errors"

var (
	// ErrInvariantViolation signals a programmer error, e.g. calling lifted
	// instantiation on a schema that has no free variables
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrUnknownPredicate is returned when an atom names a predicate the task does not declare
	ErrUnknownPredicate = errors.New("unknown predicate")

	// ErrArity is returned when an atom's argument count differs from its predicate's arity
	ErrArity = errors.New("arity mismatch")

	// ErrMalformedTask covers remaining structural problems in a task
	ErrMalformedTask = errors.New("malformed task")
)
