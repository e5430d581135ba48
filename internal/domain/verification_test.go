package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid uppercase", input: "VERIFIED", want: StatusVerified},
		{name: "valid lowercase with spaces", input: " initiated ", want: StatusInitiated},
		{name: "valid multiword", input: "max_attempts_exceeded", want: StatusMaxAttemptsExceeded},
		{name: "invalid", input: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusTransitionPredicates(t *testing.T) {
	t.Parallel()

	awaiting := []Status{StatusInitiated, StatusOtpResent, StatusOtpVerificationFailed}
	for _, s := range awaiting {
		if !s.AwaitingOtp() {
			t.Fatalf("%s.AwaitingOtp() = false, want true", s)
		}
		if !s.CanResend() {
			t.Fatalf("%s.CanResend() = false, want true", s)
		}
	}

	terminal := []Status{StatusVerified, StatusFailed, StatusMaxAttemptsExceeded, StatusKycDataMismatch, StatusCancelled}
	for _, s := range terminal {
		if s.AwaitingOtp() {
			t.Fatalf("%s.AwaitingOtp() = true, want false", s)
		}
		if s.CanResend() {
			t.Fatalf("%s.CanResend() = true, want false", s)
		}
	}

	resubmittable := []Status{StatusKycDataMismatch, StatusFailed, StatusMaxAttemptsExceeded}
	for _, s := range resubmittable {
		if !s.CanResubmit() {
			t.Fatalf("%s.CanResubmit() = false, want true", s)
		}
	}
	if StatusOtpVerificationFailed.CanResubmit() {
		t.Fatal("OTP_VERIFICATION_FAILED.CanResubmit() = true, want false; attempts remain")
	}

	if StatusVerified.CanCancel() {
		t.Fatal("VERIFIED.CanCancel() = true, want false")
	}
	if StatusCancelled.CanCancel() {
		t.Fatal("CANCELLED.CanCancel() = true, want false")
	}
	if !StatusInitiated.CanCancel() {
		t.Fatal("INITIATED.CanCancel() = false, want true")
	}
}

func TestParseGenderFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseGenderFromString(" f ")
	if err != nil {
		t.Fatalf("ParseGenderFromString() unexpected error = %v", err)
	}
	if got != GenderFemale {
		t.Fatalf("ParseGenderFromString() = %s, want %s", got, GenderFemale)
	}

	_, err = ParseGenderFromString("X")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseGenderFromString() error = %v, want ErrValidation", err)
	}
}

func TestParseConsentFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseConsentFromString(" yes ")
	if err != nil {
		t.Fatalf("ParseConsentFromString() unexpected error = %v", err)
	}
	if got != ConsentYes {
		t.Fatalf("ParseConsentFromString() = %s, want %s", got, ConsentYes)
	}

	_, err = ParseConsentFromString("maybe")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseConsentFromString() error = %v, want ErrValidation", err)
	}
}

func validIdentity() ApplicantIdentity {
	return ApplicantIdentity{
		AadhaarNumber: "123456789012",
		Name:          "Asha Rao",
		DateOfBirth:   "1992-04-17",
		Gender:        GenderFemale,
		MobileNumber:  "9876543210",
		Email:         "asha@example.com",
		Address:       "12 MG Road, Bengaluru",
		Consent:       ConsentYes,
	}
}

func TestApplicantIdentityValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(a *ApplicantIdentity)
		wantErr string
	}{
		{name: "valid", mutate: func(a *ApplicantIdentity) {}},
		{name: "valid without email", mutate: func(a *ApplicantIdentity) { a.Email = "" }},
		{
			name:    "aadhaar too short",
			mutate:  func(a *ApplicantIdentity) { a.AadhaarNumber = "1234" },
			wantErr: "aadhaar",
		},
		{
			name:    "aadhaar with letters",
			mutate:  func(a *ApplicantIdentity) { a.AadhaarNumber = "12345678901a" },
			wantErr: "aadhaar",
		},
		{
			name:    "missing name",
			mutate:  func(a *ApplicantIdentity) { a.Name = "   " },
			wantErr: "name",
		},
		{
			name:    "dob wrong layout",
			mutate:  func(a *ApplicantIdentity) { a.DateOfBirth = "17-04-1992" },
			wantErr: "date of birth",
		},
		{
			name:    "dob in the future",
			mutate:  func(a *ApplicantIdentity) { a.DateOfBirth = time.Now().AddDate(1, 0, 0).Format("2006-01-02") },
			wantErr: "date of birth",
		},
		{
			name:    "invalid gender",
			mutate:  func(a *ApplicantIdentity) { a.Gender = "X" },
			wantErr: "gender",
		},
		{
			name:    "mobile too long",
			mutate:  func(a *ApplicantIdentity) { a.MobileNumber = "98765432101" },
			wantErr: "mobile",
		},
		{
			name:    "malformed email",
			mutate:  func(a *ApplicantIdentity) { a.Email = "not-an-email" },
			wantErr: "email",
		},
		{
			name:    "missing address",
			mutate:  func(a *ApplicantIdentity) { a.Address = "" },
			wantErr: "address",
		},
		{
			name:    "consent withheld",
			mutate:  func(a *ApplicantIdentity) { a.Consent = ConsentNo },
			wantErr: "consent",
		},
		{
			name:    "consent missing",
			mutate:  func(a *ApplicantIdentity) { a.Consent = "" },
			wantErr: "consent",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			identity := validIdentity()
			tt.mutate(&identity)

			err := identity.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}

			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerificationRecordIssueChallenge(t *testing.T) {
	t.Parallel()

	staleReason := "otp verification failed"
	record := &VerificationRecord{
		VerificationID: "EKYC-TEST0001",
		Status:         StatusInitiated,
		AttemptCount:   2,
		MaxAttempts:    3,
		FailureReason:  &staleReason,
	}

	issuedAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	record.IssueChallenge("txn-2", issuedAt, 10*time.Minute)

	if record.ProviderTxnID != "txn-2" {
		t.Fatalf("ProviderTxnID = %s, want txn-2", record.ProviderTxnID)
	}
	if record.AttemptCount != 0 {
		t.Fatalf("AttemptCount = %d, want 0 after new challenge", record.AttemptCount)
	}
	if record.OtpIssuedAt == nil || !record.OtpIssuedAt.Equal(issuedAt) {
		t.Fatalf("OtpIssuedAt = %v, want %v", record.OtpIssuedAt, issuedAt)
	}
	wantExpiry := issuedAt.Add(10 * time.Minute)
	if record.OtpExpiresAt == nil || !record.OtpExpiresAt.Equal(wantExpiry) {
		t.Fatalf("OtpExpiresAt = %v, want %v", record.OtpExpiresAt, wantExpiry)
	}
	if record.FailureReason != nil {
		t.Fatalf("FailureReason = %q, want cleared by new challenge", *record.FailureReason)
	}
}

func TestVerificationRecordMarkVerifiedClearsFailure(t *testing.T) {
	t.Parallel()

	record := &VerificationRecord{Status: StatusOtpVerificationFailed}
	record.MarkFailed("gateway rejected request")
	if record.Status != StatusFailed || record.FailureReason == nil {
		t.Fatalf("MarkFailed() status = %s, reason = %v", record.Status, record.FailureReason)
	}

	at := time.Date(2026, 2, 1, 10, 5, 0, 0, time.UTC)
	record.MarkVerified(at)
	if record.Status != StatusVerified {
		t.Fatalf("status = %s, want VERIFIED", record.Status)
	}
	if record.VerifiedAt == nil || !record.VerifiedAt.Equal(at) {
		t.Fatalf("VerifiedAt = %v, want %v", record.VerifiedAt, at)
	}
	if record.FailureReason != nil {
		t.Fatalf("FailureReason = %v, want nil after verification", *record.FailureReason)
	}
}
