package keel

import (
	"fmt"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeInvalidArgument indicates malformed input, e.g. an empty key.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeAlreadyRegistered indicates an identity collision for a key or alias.
	CodeAlreadyRegistered = "ALREADY_REGISTERED"

	// CodeCircularAlias indicates an alias edge that would close a cycle.
	CodeCircularAlias = "CIRCULAR_ALIAS"

	// CodeResolutionConflict indicates transformed aliases colliding on
	// different canonical names during ResolveAll.
	CodeResolutionConflict = "RESOLUTION_CONFLICT"

	// CodeCurrentlyInCreation indicates the reentrancy guard tripped for a
	// non-exempt key: an unresolvable construction cycle.
	CodeCurrentlyInCreation = "CURRENTLY_IN_CREATION"

	// CodeCreationNotAllowed indicates creation was requested during or
	// after global teardown.
	CodeCreationNotAllowed = "CREATION_NOT_ALLOWED"

	// CodeNotFound indicates removal of a nonexistent alias.
	CodeNotFound = "NOT_FOUND"

	// CodeIllegalState indicates an internal invariant violation.
	CodeIllegalState = "ILLEGAL_STATE"

	// CodeStateChanged indicates an instance appeared through another path
	// while its factory was running.
	CodeStateChanged = "STATE_CHANGED"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrStateChanged is wrapped by a factory to signal that the instance it was
// computing appeared some other way in the meantime. GetOrCreate tolerates it
// by re-checking the finalized cache before propagating.
var ErrStateChanged = errs.NewError(CodeStateChanged, "instance state changed during creation", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrInvalidArgument creates an error for malformed input.
func ErrInvalidArgument(message string) *errs.Error {
	return errs.NewError(CodeInvalidArgument, message, nil)
}

// ErrAlreadyRegistered creates an error for an occupied key.
func ErrAlreadyRegistered(key string) *errs.Error {
	return errs.NewError(
		CodeAlreadyRegistered,
		fmt.Sprintf("instance already registered under key '%s'", key),
		nil,
	).WithContext("key", key).(*errs.Error)
}

// ErrAliasAlreadyRegistered creates an error for an alias bound to a
// different canonical name when overriding is disabled.
func ErrAliasAlreadyRegistered(alias, canonical, registered string) *errs.Error {
	return errs.NewError(
		CodeAlreadyRegistered,
		fmt.Sprintf("cannot define alias '%s' for name '%s': it is already registered for name '%s'",
			alias, canonical, registered),
		nil,
	).WithContext("alias", alias).
		WithContext("canonical", canonical).(*errs.Error)
}

// ErrCircularAlias creates an error for an alias edge that closes a cycle.
func ErrCircularAlias(canonical, alias string) *errs.Error {
	return errs.NewError(
		CodeCircularAlias,
		fmt.Sprintf("cannot register alias '%s' for name '%s': '%s' is a direct or indirect alias for '%s' already",
			alias, canonical, canonical, alias),
		nil,
	).WithContext("alias", alias).
		WithContext("canonical", canonical).(*errs.Error)
}

// ErrResolutionConflict creates an error for a transformed alias colliding
// with an existing alias that targets a different canonical name.
func ErrResolutionConflict(resolvedAlias, alias, resolvedName, registeredName string) *errs.Error {
	return errs.NewError(
		CodeResolutionConflict,
		fmt.Sprintf("cannot register resolved alias '%s' (original '%s') for name '%s': it is already registered for name '%s'",
			resolvedAlias, alias, resolvedName, registeredName),
		nil,
	).WithContext("alias", resolvedAlias).
		WithContext("canonical", resolvedName).(*errs.Error)
}

// ErrCurrentlyInCreation creates an error for the reentrancy guard.
func ErrCurrentlyInCreation(key string) *errs.Error {
	return errs.NewError(
		CodeCurrentlyInCreation,
		fmt.Sprintf("key '%s' is currently in creation: unresolvable circular reference", key),
		nil,
	).WithContext("key", key).(*errs.Error)
}

// ErrCreationNotAllowed creates an error for creation requested while the
// registry is in its teardown phase.
func ErrCreationNotAllowed(key string) *errs.Error {
	return errs.NewError(
		CodeCreationNotAllowed,
		fmt.Sprintf("creation of '%s' not allowed while the registry is in destruction (do not request instances from a disposal callback)", key),
		nil,
	).WithContext("key", key).(*errs.Error)
}

// ErrAliasNotFound creates an error for removal of an unregistered alias.
func ErrAliasNotFound(alias string) *errs.Error {
	return errs.NewError(
		CodeNotFound,
		fmt.Sprintf("no alias '%s' registered", alias),
		nil,
	).WithContext("alias", alias).(*errs.Error)
}

// ErrIllegalState creates an error for a violated internal invariant.
func ErrIllegalState(message string) *errs.Error {
	return errs.NewError(CodeIllegalState, message, nil)
}
