package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Status represents the lifecycle state of a verification record.
type Status string

const (
	StatusInitiated             Status = "INITIATED"
	StatusOtpResent             Status = "OTP_RESENT"
	StatusOtpVerificationFailed Status = "OTP_VERIFICATION_FAILED"
	StatusVerified              Status = "VERIFIED"
	StatusFailed                Status = "FAILED"
	StatusMaxAttemptsExceeded   Status = "MAX_ATTEMPTS_EXCEEDED"
	StatusKycDataMismatch       Status = "KYC_DATA_MISMATCH"
	StatusCancelled             Status = "CANCELLED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusInitiated, StatusOtpResent, StatusOtpVerificationFailed,
		StatusVerified, StatusFailed, StatusMaxAttemptsExceeded,
		StatusKycDataMismatch, StatusCancelled:
		return true
	}
	return false
}

// AwaitingOtp reports whether the record is waiting for an OTP attempt.
func (s Status) AwaitingOtp() bool {
	switch s {
	case StatusInitiated, StatusOtpResent, StatusOtpVerificationFailed:
		return true
	}
	return false
}

// CanResend reports whether a new OTP challenge may be issued.
func (s Status) CanResend() bool {
	switch s {
	case StatusInitiated, StatusOtpVerificationFailed, StatusOtpResent:
		return true
	}
	return false
}

// CanResubmit reports whether the applicant may overwrite identity data and
// restart the flow. OTP_VERIFICATION_FAILED is excluded: attempts remain, so
// resend is the correct path.
func (s Status) CanResubmit() bool {
	switch s {
	case StatusKycDataMismatch, StatusFailed, StatusMaxAttemptsExceeded:
		return true
	}
	return false
}

// CanCancel reports whether the record may be cancelled.
func (s Status) CanCancel() bool {
	return s != StatusVerified && s != StatusCancelled
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Gender is the applicant's declared gender.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

func (g Gender) String() string { return string(g) }

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func ParseGenderFromString(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("%w: invalid gender %q", ErrValidation, s)
	}
	return g, nil
}

// Consent is the applicant's consent to share identity data with the
// verification authority.
type Consent string

const (
	ConsentYes Consent = "YES"
	ConsentNo  Consent = "NO"
)

func (c Consent) String() string { return string(c) }

func (c Consent) IsValid() bool {
	return c == ConsentYes || c == ConsentNo
}

func ParseConsentFromString(s string) (Consent, error) {
	c := Consent(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: invalid consent %q", ErrValidation, s)
	}
	return c, nil
}

var (
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	mobilePattern  = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const dateOfBirthLayout = "2006-01-02"

// ApplicantIdentity is the subject data submitted for verification. Immutable
// once the record is VERIFIED; replaceable only via resubmission.
type ApplicantIdentity struct {
	AadhaarNumber string
	Name          string
	DateOfBirth   string
	Gender        Gender
	MobileNumber  string
	Email         string
	Address       string
	Consent       Consent
}

// Validate fails closed on any malformed field. It is purely local and never
// touches the store or the provider.
func (a *ApplicantIdentity) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: identity is required", ErrValidation)
	}
	if !aadhaarPattern.MatchString(a.AadhaarNumber) {
		return fmt.Errorf("%w: invalid aadhaar number format", ErrValidation)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := a.validateDateOfBirth(); err != nil {
		return err
	}
	if !a.Gender.IsValid() {
		return fmt.Errorf("%w: invalid gender %q", ErrValidation, a.Gender)
	}
	if !mobilePattern.MatchString(a.MobileNumber) {
		return fmt.Errorf("%w: invalid mobile number format", ErrValidation)
	}
	if a.Email != "" && !emailPattern.MatchString(a.Email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if strings.TrimSpace(a.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if a.Consent != ConsentYes {
		return fmt.Errorf("%w: consent is required for verification", ErrValidation)
	}
	return nil
}

func (a *ApplicantIdentity) validateDateOfBirth() error {
	if strings.TrimSpace(a.DateOfBirth) == "" {
		return fmt.Errorf("%w: date of birth is required", ErrValidation)
	}
	dob, err := time.Parse(dateOfBirthLayout, a.DateOfBirth)
	if err != nil {
		return fmt.Errorf("%w: date of birth must be YYYY-MM-DD", ErrValidation)
	}
	if dob.After(time.Now()) {
		return fmt.Errorf("%w: date of birth is in the future", ErrValidation)
	}
	return nil
}

// VerificationRecord is the aggregate root of the eKYC workflow. Status
// transitions are owned exclusively by the workflow engine; the store only
// persists what the engine instructs.
type VerificationRecord struct {
	VerificationID string
	Identity       ApplicantIdentity
	Status         Status

	// ProviderTxnID correlates the current OTP challenge with the provider.
	// Exactly one transaction id is live at a time; it is replaced on every
	// initiate/resend and prior ids are never retried.
	ProviderTxnID string

	// AttemptCount counts OTP verify attempts against the current challenge.
	// Reset to zero whenever a new challenge is issued.
	AttemptCount int
	MaxAttempts  int

	OtpIssuedAt  *time.Time
	OtpExpiresAt *time.Time

	FailureReason *string
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IssueChallenge records a fresh OTP challenge: new transaction id, attempt
// counter reset, expiry derived from the issue time. Any failure reason from
// an earlier challenge no longer applies and is cleared.
func (r *VerificationRecord) IssueChallenge(txnID string, issuedAt time.Time, ttl time.Duration) {
	expiresAt := issuedAt.Add(ttl)
	r.ProviderTxnID = txnID
	r.AttemptCount = 0
	r.OtpIssuedAt = &issuedAt
	r.OtpExpiresAt = &expiresAt
	r.FailureReason = nil
}

// MarkFailed stamps a failure reason alongside the FAILED status.
func (r *VerificationRecord) MarkFailed(reason string) {
	r.Status = StatusFailed
	r.FailureReason = &reason
}

// MarkVerified stamps the terminal VERIFIED state.
func (r *VerificationRecord) MarkVerified(at time.Time) {
	r.Status = StatusVerified
	r.VerifiedAt = &at
	r.FailureReason = nil
}
