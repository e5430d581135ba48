package repository

import (
	"time"

	"github.com/kursadbilgin/ekyc-engine/internal/domain"
)

// VerificationModel is the persistence model for the verifications table.
// Version backs the optimistic update guard; it never leaves this package.
type VerificationModel struct {
	ID             uint          `gorm:"primaryKey;autoIncrement"`
	VerificationID string        `gorm:"type:varchar(64);not null;uniqueIndex"`
	AadhaarNumber  string        `gorm:"type:varchar(12);not null"`
	Name           string        `gorm:"type:varchar(255);not null"`
	DateOfBirth    string        `gorm:"type:varchar(10);not null"`
	Gender         domain.Gender `gorm:"type:varchar(1);not null"`
	MobileNumber   string        `gorm:"type:varchar(10);not null"`
	Email          string        `gorm:"type:varchar(255)"`
	Address        string        `gorm:"type:text;not null"`
	Consent        domain.Consent `gorm:"type:varchar(3);not null"`
	Status         domain.Status `gorm:"type:varchar(30);not null"`
	ProviderTxnID  string        `gorm:"type:varchar(255)"`
	AttemptCount   int           `gorm:"not null;default:0"`
	MaxAttempts    int           `gorm:"not null;default:3"`
	OtpIssuedAt    *time.Time    `gorm:"type:timestamptz"`
	OtpExpiresAt   *time.Time    `gorm:"type:timestamptz"`
	FailureReason  *string       `gorm:"type:text"`
	VerifiedAt     *time.Time    `gorm:"type:timestamptz"`
	Version        int64         `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (VerificationModel) TableName() string {
	return "verifications"
}

func verificationModelFromDomain(r *domain.VerificationRecord) *VerificationModel {
	if r == nil {
		return nil
	}

	return &VerificationModel{
		VerificationID: r.VerificationID,
		AadhaarNumber:  r.Identity.AadhaarNumber,
		Name:           r.Identity.Name,
		DateOfBirth:    r.Identity.DateOfBirth,
		Gender:         r.Identity.Gender,
		MobileNumber:   r.Identity.MobileNumber,
		Email:          r.Identity.Email,
		Address:        r.Identity.Address,
		Consent:        r.Identity.Consent,
		Status:         r.Status,
		ProviderTxnID:  r.ProviderTxnID,
		AttemptCount:   r.AttemptCount,
		MaxAttempts:    r.MaxAttempts,
		OtpIssuedAt:    r.OtpIssuedAt,
		OtpExpiresAt:   r.OtpExpiresAt,
		FailureReason:  r.FailureReason,
		VerifiedAt:     r.VerifiedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func verificationModelToDomain(m *VerificationModel) *domain.VerificationRecord {
	if m == nil {
		return nil
	}

	return &domain.VerificationRecord{
		VerificationID: m.VerificationID,
		Identity: domain.ApplicantIdentity{
			AadhaarNumber: m.AadhaarNumber,
			Name:          m.Name,
			DateOfBirth:   m.DateOfBirth,
			Gender:        m.Gender,
			MobileNumber:  m.MobileNumber,
			Email:         m.Email,
			Address:       m.Address,
			Consent:       m.Consent,
		},
		Status:        m.Status,
		ProviderTxnID: m.ProviderTxnID,
		AttemptCount:  m.AttemptCount,
		MaxAttempts:   m.MaxAttempts,
		OtpIssuedAt:   m.OtpIssuedAt,
		OtpExpiresAt:  m.OtpExpiresAt,
		FailureReason: m.FailureReason,
		VerifiedAt:    m.VerifiedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
