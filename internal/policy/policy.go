// Package policy holds the pure attempt and expiry rules for OTP challenges.
// No I/O; every function is deterministic in its inputs so the workflow
// engine is the only place that supplies clocks and state.
package policy

import (
	"time"

	"github.com/kursadbilgin/ekyc-engine/internal/domain"
)

// Reason explains why an OTP attempt is not allowed.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonExpired           Reason = "otp expired"
	ReasonAttemptsExhausted Reason = "max attempts exceeded"
	ReasonNotAwaitingOtp    Reason = "not awaiting otp"
	ReasonNoChallenge       Reason = "no otp challenge issued"
)

// IsExpired reports whether a challenge with the given expiry has lapsed at
// now. The expiry instant itself is still inside the window.
func IsExpired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

// AttemptsRemaining returns the attempts left against the current challenge,
// floored at zero.
func AttemptsRemaining(attemptCount, maxAttempts int) int {
	remaining := maxAttempts - attemptCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanAttempt decides whether an OTP verify attempt is allowed for the record
// at now. Exhaustion is checked before expiry so a record that is both
// exhausted and expired reports the terminal condition.
func CanAttempt(record *domain.VerificationRecord, now time.Time) (bool, Reason) {
	if record == nil || !record.Status.AwaitingOtp() {
		return false, ReasonNotAwaitingOtp
	}
	if AttemptsRemaining(record.AttemptCount, record.MaxAttempts) == 0 {
		return false, ReasonAttemptsExhausted
	}
	if record.OtpIssuedAt == nil || record.OtpExpiresAt == nil {
		return false, ReasonNoChallenge
	}
	if IsExpired(*record.OtpExpiresAt, now) {
		return false, ReasonExpired
	}
	return true, ReasonNone
}
