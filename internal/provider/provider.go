package provider

import (
	"context"
)

// Provider is the outbound port to the external identity authority. It never
// mutates local state; the workflow engine interprets its outcomes.
type Provider interface {
	// InitiateOtp asks the authority to send an OTP to the applicant's
	// registered mobile. On success the returned transaction id correlates
	// the challenge for the subsequent verify call.
	InitiateOtp(ctx context.Context, req InitiateRequest) (*InitiateResult, error)

	// VerifyOtp checks the supplied OTP against a previously initiated
	// challenge. A nil error with Matched=false means the OTP was accepted
	// but the applicant's KYC data did not match the authority's records.
	VerifyOtp(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

// InitiateRequest carries the minimum identity data the authority needs to
// issue an OTP challenge.
type InitiateRequest struct {
	AadhaarNumber string
	MobileNumber  string
}

// InitiateResult is the provider outcome of an OTP initiation.
type InitiateResult struct {
	TransactionID string
	ReferenceID   string
}

// VerifyRequest correlates an OTP with the live challenge.
type VerifyRequest struct {
	TransactionID string
	Otp           string
	AadhaarNumber string
}

// VerifyResult is the provider outcome of an OTP verification.
type VerifyResult struct {
	TransactionID string
	// Matched reports whether the authority's identity records matched the
	// submitted applicant data.
	Matched bool
}
