package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/ekyc-engine/internal/domain"
	"gorm.io/gorm"
)

type ListParams struct {
	Status   *domain.Status
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// VerificationRepository persists verification records. Update carries an
// optimistic guard: a write that races a concurrent update fails with
// domain.ErrConflict instead of silently clobbering the winner.
type VerificationRepository interface {
	Create(ctx context.Context, record *domain.VerificationRecord) error
	GetByVerificationID(ctx context.Context, verificationID string) (*domain.VerificationRecord, error)
	Update(ctx context.Context, record *domain.VerificationRecord) error
	List(ctx context.Context, params ListParams) ([]domain.VerificationRecord, int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormVerificationRepo struct {
	db *gorm.DB
}

func NewGormVerificationRepo(db *gorm.DB) *GormVerificationRepo {
	return &GormVerificationRepo{db: db}
}

func (r *GormVerificationRepo) Create(ctx context.Context, record *domain.VerificationRecord) error {
	model := verificationModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if record != nil {
		record.CreatedAt = model.CreatedAt
		record.UpdatedAt = model.UpdatedAt
	}
	return nil
}

func (r *GormVerificationRepo) GetByVerificationID(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	var model VerificationModel
	err := r.db.WithContext(ctx).First(&model, "verification_id = ?", verificationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return verificationModelToDomain(&model), nil
}

func (r *GormVerificationRepo) Update(ctx context.Context, record *domain.VerificationRecord) error {
	if record == nil {
		return domain.ErrNotFound
	}

	var current VerificationModel
	err := r.db.WithContext(ctx).
		Select("id", "version").
		First(&current, "verification_id = ?", record.VerificationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	model := verificationModelFromDomain(record)
	model.ID = current.ID
	model.Version = current.Version + 1

	result := r.db.WithContext(ctx).
		Model(&VerificationModel{}).
		Where("verification_id = ? AND version = ?", record.VerificationID, current.Version).
		Updates(map[string]any{
			"aadhaar_number":  model.AadhaarNumber,
			"name":            model.Name,
			"date_of_birth":   model.DateOfBirth,
			"gender":          model.Gender,
			"mobile_number":   model.MobileNumber,
			"email":           model.Email,
			"address":         model.Address,
			"consent":         model.Consent,
			"status":          model.Status,
			"provider_txn_id": model.ProviderTxnID,
			"attempt_count":   model.AttemptCount,
			"max_attempts":    model.MaxAttempts,
			"otp_issued_at":   model.OtpIssuedAt,
			"otp_expires_at":  model.OtpExpiresAt,
			"failure_reason":  model.FailureReason,
			"verified_at":     model.VerifiedAt,
			"version":         model.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormVerificationRepo) List(ctx context.Context, params ListParams) ([]domain.VerificationRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&VerificationModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []VerificationModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]domain.VerificationRecord, 0, len(models))
	for i := range models {
		records = append(records, *verificationModelToDomain(&models[i]))
	}

	return records, total, nil
}

func (r *GormVerificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&VerificationModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
