package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/ekyc-engine/internal/audit"
	"github.com/kursadbilgin/ekyc-engine/internal/domain"
	"github.com/kursadbilgin/ekyc-engine/internal/observability"
	"github.com/kursadbilgin/ekyc-engine/internal/policy"
	"github.com/kursadbilgin/ekyc-engine/internal/provider"
	"github.com/kursadbilgin/ekyc-engine/internal/ratelimit"
	"github.com/kursadbilgin/ekyc-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultOtpTTL      = 10 * time.Minute

	reasonKycMismatch          = "kyc data mismatch with authority records"
	reasonOtpInitiationFailed  = "otp initiation failed"
	reasonOtpResendFailed      = "otp resend failed"
	reasonOtpVerificationError = "otp verification failed"
)

// VerificationService is the eKYC workflow engine. It exclusively owns status
// transitions on verification records; operations against the same record are
// serialized through a per-record lock while different records run in
// parallel.
type VerificationService struct {
	verifications repository.VerificationRepository
	provider      provider.Provider
	resendLimiter ratelimit.RateLimiter
	trail         audit.Recorder
	logger        *zap.Logger
	metrics       *observability.Metrics
	maxAttempts   int
	otpTTL        time.Duration
	locks         *recordLocks
	now           func() time.Time
}

func NewVerificationService(
	verifications repository.VerificationRepository,
	otpProvider provider.Provider,
	resendLimiter ratelimit.RateLimiter,
	trail audit.Recorder,
	maxAttempts int,
	otpTTL time.Duration,
	logger *zap.Logger,
) (*VerificationService, error) {
	if verifications == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if otpProvider == nil {
		return nil, fmt.Errorf("otp provider is required")
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if otpTTL <= 0 {
		otpTTL = defaultOtpTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &VerificationService{
		verifications: verifications,
		provider:      otpProvider,
		resendLimiter: resendLimiter,
		trail:         trail,
		logger:        logger,
		maxAttempts:   maxAttempts,
		otpTTL:        otpTTL,
		locks:         newRecordLocks(),
		now:           time.Now,
	}, nil
}

func (s *VerificationService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Submit validates the applicant identity, creates a new record and initiates
// the first OTP challenge. Two submissions always produce two distinct
// records; there is no dedup by identity.
func (s *VerificationService) Submit(ctx context.Context, identity domain.ApplicantIdentity) (*domain.VerificationRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := identity.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &domain.VerificationRecord{
		VerificationID: newVerificationID(),
		Identity:       identity,
		Status:         domain.StatusInitiated,
		MaxAttempts:    s.maxAttempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.verifications.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create verification record: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncVerificationSubmitted()
	}

	if err := s.initiateChallenge(ctx, record, reasonOtpInitiationFailed); err != nil {
		s.audit(ctx, record, "verification.submit", "provider_failure")
		return nil, err
	}

	s.audit(ctx, record, "verification.submit", "success")
	return record, nil
}

// VerifyOtp runs one OTP attempt against the record's live challenge. The
// attempt is consumed even when the provider call fails in transport, so the
// total number of external calls per record stays bounded.
func (s *VerificationService) VerifyOtp(ctx context.Context, verificationID, otp string) (*domain.VerificationRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(otp) == "" {
		return nil, fmt.Errorf("%w: otp is required", domain.ErrValidation)
	}
	verificationID = strings.TrimSpace(verificationID)
	if verificationID == "" {
		return nil, fmt.Errorf("%w: verification id is required", domain.ErrValidation)
	}

	unlock := s.locks.lock(verificationID)
	defer unlock()

	record, err := s.verifications.GetByVerificationID(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	if record.Status == domain.StatusMaxAttemptsExceeded {
		return nil, fmt.Errorf("%w: no otp attempts remaining", domain.ErrAttemptsExceeded)
	}
	if !record.Status.AwaitingOtp() {
		return nil, fmt.Errorf("%w: cannot verify otp from status %s", domain.ErrInvalidState, record.Status)
	}

	now := s.now().UTC()
	if allowed, reason := policy.CanAttempt(record, now); !allowed {
		switch reason {
		case policy.ReasonAttemptsExhausted:
			// Exhaustion is checked before the increment so the terminal
			// transition happens exactly once.
			record.Status = domain.StatusMaxAttemptsExceeded
			record.UpdatedAt = now
			if err := s.verifications.Update(ctx, record); err != nil {
				return nil, fmt.Errorf("failed to persist attempts exceeded state: %w", err)
			}
			s.audit(ctx, record, "otp.verify", "attempts_exceeded")
			return nil, fmt.Errorf("%w: no otp attempts remaining", domain.ErrAttemptsExceeded)
		case policy.ReasonExpired, policy.ReasonNoChallenge:
			return nil, fmt.Errorf("%w: otp challenge expired, request a new otp", domain.ErrInvalidState)
		default:
			return nil, fmt.Errorf("%w: cannot verify otp from status %s", domain.ErrInvalidState, record.Status)
		}
	}

	record.AttemptCount++
	record.UpdatedAt = now

	verifyStart := s.now()
	result, verifyErr := s.provider.VerifyOtp(ctx, provider.VerifyRequest{
		TransactionID: record.ProviderTxnID,
		Otp:           otp,
		AadhaarNumber: record.Identity.AadhaarNumber,
	})
	if s.metrics != nil {
		s.metrics.ObserveProviderCallDuration("verify_otp", s.now().Sub(verifyStart))
	}

	if verifyErr != nil {
		return s.handleVerifyFailure(ctx, record, otp, verifyErr)
	}

	if !result.Matched {
		record.Status = domain.StatusKycDataMismatch
		reason := reasonKycMismatch
		record.FailureReason = &reason
		if err := s.verifications.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist kyc mismatch state: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncOtpVerified("kyc_mismatch")
		}
		s.audit(ctx, record, "otp.verify", "kyc_mismatch", "otp", audit.MaskOTP(otp))
		return record, nil
	}

	record.MarkVerified(now)
	if err := s.verifications.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist verified state: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncOtpVerified("verified")
	}
	s.audit(ctx, record, "otp.verify", "verified", "otp", audit.MaskOTP(otp))
	return record, nil
}

// handleVerifyFailure persists the consumed attempt and translates the
// provider failure. The persisted state always reflects the last known truth
// even though the call to the caller ultimately errors. Only an explicit
// rejection by the authority counts against the record's status; anything
// else is treated as an outage and leaves the status untouched.
func (s *VerificationService) handleVerifyFailure(ctx context.Context, record *domain.VerificationRecord, otp string, verifyErr error) (*domain.VerificationRecord, error) {
	if !provider.IsRejected(verifyErr) {
		if err := s.verifications.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist attempt after provider outage: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncOtpVerified("provider_unavailable")
		}
		s.logger.Warn("provider unavailable during otp verification",
			zap.String("verificationId", record.VerificationID),
			zap.Error(verifyErr),
		)
		s.audit(ctx, record, "otp.verify", "provider_unavailable", "otp", audit.MaskOTP(otp))
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, reasonOtpVerificationError)
	}

	remaining := policy.AttemptsRemaining(record.AttemptCount, record.MaxAttempts)
	if remaining == 0 {
		record.Status = domain.StatusMaxAttemptsExceeded
	} else {
		record.Status = domain.StatusOtpVerificationFailed
	}
	reason := reasonOtpVerificationError
	record.FailureReason = &reason

	if err := s.verifications.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist otp failure state: %w", err)
	}

	if remaining == 0 {
		if s.metrics != nil {
			s.metrics.IncOtpVerified("attempts_exceeded")
		}
		s.audit(ctx, record, "otp.verify", "attempts_exceeded", "otp", audit.MaskOTP(otp))
		return nil, fmt.Errorf("%w: invalid otp, no attempts remaining", domain.ErrAttemptsExceeded)
	}

	if s.metrics != nil {
		s.metrics.IncOtpVerified("rejected")
	}
	s.audit(ctx, record, "otp.verify", "rejected", "otp", audit.MaskOTP(otp))
	return nil, fmt.Errorf("%w: invalid otp, %d attempt(s) remaining", domain.ErrProviderRejected, remaining)
}

// ResendOtp issues a fresh challenge: new provider transaction, attempt
// counter back to zero. The previous transaction id is never retried.
func (s *VerificationService) ResendOtp(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	verificationID = strings.TrimSpace(verificationID)
	if verificationID == "" {
		return nil, fmt.Errorf("%w: verification id is required", domain.ErrValidation)
	}

	unlock := s.locks.lock(verificationID)
	defer unlock()

	record, err := s.verifications.GetByVerificationID(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanResend() {
		return nil, fmt.Errorf("%w: cannot resend otp from status %s", domain.ErrInvalidState, record.Status)
	}

	if s.resendLimiter != nil {
		allowed, limitErr := s.resendLimiter.Allow(ctx, record.Identity.MobileNumber)
		if limitErr != nil {
			return nil, fmt.Errorf("resend limiter check failed: %w", limitErr)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: otp resend limit reached, retry later", domain.ErrConflict)
		}
	}

	record.UpdatedAt = s.now().UTC()
	if err := s.initiateChallenge(ctx, record, reasonOtpResendFailed); err != nil {
		s.audit(ctx, record, "otp.resend", "provider_failure")
		return nil, err
	}
	record.Status = domain.StatusOtpResent
	if err := s.verifications.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist resent state: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncOtpResent()
	}
	s.audit(ctx, record, "otp.resend", "success")
	return record, nil
}

// Cancel moves the record to CANCELLED. Cancelling an already verified or
// cancelled record is an invalid-state error, not a no-op, so callers can
// detect the distinction.
func (s *VerificationService) Cancel(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	verificationID = strings.TrimSpace(verificationID)
	if verificationID == "" {
		return nil, fmt.Errorf("%w: verification id is required", domain.ErrValidation)
	}

	unlock := s.locks.lock(verificationID)
	defer unlock()

	record, err := s.verifications.GetByVerificationID(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanCancel() {
		return nil, fmt.Errorf("%w: cannot cancel verification from status %s", domain.ErrInvalidState, record.Status)
	}

	record.Status = domain.StatusCancelled
	record.UpdatedAt = s.now().UTC()
	if err := s.verifications.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist cancelled state: %w", err)
	}

	s.audit(ctx, record, "verification.cancel", "success")
	return record, nil
}

// Resubmit replaces the applicant identity and restarts the flow from
// INITIATED. Only mismatch, provider failure and exhausted records qualify; a
// record with attempts remaining should resend instead.
func (s *VerificationService) Resubmit(ctx context.Context, verificationID string, identity domain.ApplicantIdentity) (*domain.VerificationRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	verificationID = strings.TrimSpace(verificationID)
	if verificationID == "" {
		return nil, fmt.Errorf("%w: verification id is required", domain.ErrValidation)
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(verificationID)
	defer unlock()

	record, err := s.verifications.GetByVerificationID(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanResubmit() {
		return nil, fmt.Errorf("%w: cannot resubmit verification from status %s", domain.ErrInvalidState, record.Status)
	}

	record.Identity = identity
	record.Status = domain.StatusInitiated
	record.FailureReason = nil
	record.AttemptCount = 0
	record.VerifiedAt = nil
	record.UpdatedAt = s.now().UTC()

	if err := s.verifications.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist resubmitted identity: %w", err)
	}

	if err := s.initiateChallenge(ctx, record, reasonOtpInitiationFailed); err != nil {
		s.audit(ctx, record, "verification.resubmit", "provider_failure")
		return nil, err
	}

	s.audit(ctx, record, "verification.resubmit", "success")
	return record, nil
}

func (s *VerificationService) GetByVerificationID(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	if strings.TrimSpace(verificationID) == "" {
		return nil, fmt.Errorf("%w: verification id is required", domain.ErrValidation)
	}
	return s.verifications.GetByVerificationID(ctx, strings.TrimSpace(verificationID))
}

func (s *VerificationService) List(ctx context.Context, params repository.ListParams) ([]domain.VerificationRecord, int64, error) {
	return s.verifications.List(ctx, params)
}

// initiateChallenge calls the provider and stamps the new challenge on the
// record. On provider failure the record is marked FAILED and persisted
// before the error is surfaced, so no record is left stuck in an initiating
// limbo.
func (s *VerificationService) initiateChallenge(ctx context.Context, record *domain.VerificationRecord, failureReason string) error {
	initiateStart := s.now()
	result, initErr := s.provider.InitiateOtp(ctx, provider.InitiateRequest{
		AadhaarNumber: record.Identity.AadhaarNumber,
		MobileNumber:  record.Identity.MobileNumber,
	})
	if s.metrics != nil {
		s.metrics.ObserveProviderCallDuration("initiate_otp", s.now().Sub(initiateStart))
	}

	if initErr != nil {
		record.MarkFailed(failureReason)
		record.UpdatedAt = s.now().UTC()
		if err := s.verifications.Update(ctx, record); err != nil {
			s.logger.Error("failed to mark verification as failed after provider error",
				zap.String("verificationId", record.VerificationID),
				zap.Error(err),
			)
			return fmt.Errorf("%s: %w (failed to persist: %v)", failureReason, translateInitiateError(initErr), err)
		}

		s.logger.Error("otp initiation failed",
			zap.String("verificationId", record.VerificationID),
			zap.String("mobile", audit.MaskMobile(record.Identity.MobileNumber)),
			zap.Error(initErr),
		)
		return fmt.Errorf("%s: %w", failureReason, translateInitiateError(initErr))
	}

	record.IssueChallenge(result.TransactionID, s.now().UTC(), s.otpTTL)
	if err := s.verifications.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to persist otp challenge: %w", err)
	}

	return nil
}

func translateInitiateError(err error) error {
	if provider.IsTransient(err) {
		return domain.ErrProviderUnavailable
	}
	return domain.ErrProviderRejected
}

// audit records a workflow event. extra holds additional key/value pairs;
// values must already be masked.
func (s *VerificationService) audit(ctx context.Context, record *domain.VerificationRecord, action, outcome string, extra ...string) {
	if s.trail == nil {
		return
	}

	fields := map[string]string{
		"status":  record.Status.String(),
		"aadhaar": audit.MaskAadhaar(record.Identity.AadhaarNumber),
		"mobile":  audit.MaskMobile(record.Identity.MobileNumber),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		fields[extra[i]] = extra[i+1]
	}

	s.trail.Record(ctx, audit.Event{
		VerificationID: record.VerificationID,
		Action:         action,
		Outcome:        outcome,
		Fields:         fields,
	})
}

// newVerificationID builds the caller-visible reference, e.g. EKYC-9F2C41AB.
func newVerificationID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "EKYC-" + strings.ToUpper(raw[:8])
}
