package services

import "errors"

// Engine error taxonomy. Decision outcomes (authorized, unauthorized,
// expired, consumed) are values on models.Decision and are never surfaced
// through these; the errors below are genuine faults or misuse.
var (
	// ErrInvalidPolicy means the policy failed validation (negative attempt
	// limit, malformed allow-list entry).
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrAlreadyAttached means the file already carries a policy.
	ErrAlreadyAttached = errors.New("policy already attached")

	// ErrPolicyFrozen means the policy can no longer be edited because a
	// credential was already minted against it.
	ErrPolicyFrozen = errors.New("policy is frozen")

	// ErrPolicyFrozenConflict means issuance was requested with rules that
	// differ from the frozen policy.
	ErrPolicyFrozenConflict = errors.New("policy conflicts with frozen policy")

	// ErrLogWrite means the security log could not be written. Fatal for
	// the triggering operation: the engine fails closed rather than acting
	// without an audit record.
	ErrLogWrite = errors.New("security log write failed")

	// ErrForbidden means the caller does not own the file.
	ErrForbidden = errors.New("unauthorized access")

	// ErrFileDestroyed means the operation targets a destroyed file.
	ErrFileDestroyed = errors.New("file has been destroyed")
)
