package domain

import "errors"

// Sentinel errors used across the verification workflow. Callers match them
// with errors.Is; wrapped messages carry the detail.
var (
	// ErrValidation marks malformed caller input. Validation failures never
	// reach the store or the provider.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown verification id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation that is not legal from the record's
	// current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrAttemptsExceeded marks a record whose OTP attempts are used up.
	// Terminal until resubmission.
	ErrAttemptsExceeded = errors.New("max attempts exceeded")

	// ErrProviderRejected marks an expected provider rejection (wrong OTP,
	// mismatched identity data). Recorded on the entity, not fatal.
	ErrProviderRejected = errors.New("provider rejected")

	// ErrProviderUnavailable marks a transport or timeout failure talking to
	// the provider. The caller may retry the whole operation.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrConflict marks a concurrent update that lost the race.
	ErrConflict = errors.New("conflict")
)
