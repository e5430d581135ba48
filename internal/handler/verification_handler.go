package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kursadbilgin/ekyc-engine/internal/audit"
	"github.com/kursadbilgin/ekyc-engine/internal/domain"
	"github.com/kursadbilgin/ekyc-engine/internal/policy"
	"github.com/kursadbilgin/ekyc-engine/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type VerificationService interface {
	Submit(ctx context.Context, identity domain.ApplicantIdentity) (*domain.VerificationRecord, error)
	VerifyOtp(ctx context.Context, verificationID, otp string) (*domain.VerificationRecord, error)
	ResendOtp(ctx context.Context, verificationID string) (*domain.VerificationRecord, error)
	Cancel(ctx context.Context, verificationID string) (*domain.VerificationRecord, error)
	Resubmit(ctx context.Context, verificationID string, identity domain.ApplicantIdentity) (*domain.VerificationRecord, error)
	GetByVerificationID(ctx context.Context, verificationID string) (*domain.VerificationRecord, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.VerificationRecord, int64, error)
}

type VerificationHandler struct {
	service VerificationService
}

func NewVerificationHandler(service VerificationService) (*VerificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("verification service is required")
	}
	return &VerificationHandler{service: service}, nil
}

func RegisterVerificationRoutes(router fiber.Router, service VerificationService) error {
	h, err := NewVerificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/verifications", h.SubmitVerification)
	v1.Get("/verifications", h.ListVerifications)
	v1.Get("/verifications/:id", h.GetVerification)
	v1.Post("/verifications/:id/verify-otp", h.VerifyOtp)
	v1.Post("/verifications/:id/resend-otp", h.ResendOtp)
	v1.Post("/verifications/:id/cancel", h.CancelVerification)
	v1.Post("/verifications/:id/resubmit", h.ResubmitVerification)

	return nil
}

type submitVerificationRequest struct {
	AadhaarNumber string `json:"aadhaarNumber"`
	Name          string `json:"name"`
	DateOfBirth   string `json:"dateOfBirth"`
	Gender        string `json:"gender"`
	MobileNumber  string `json:"mobileNumber"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Consent       string `json:"consent"`
}

type verifyOtpRequest struct {
	Otp string `json:"otp"`
}

type verificationResponse struct {
	VerificationID    string     `json:"verificationId"`
	AadhaarNumber     string     `json:"aadhaarNumber"`
	Name              string     `json:"name"`
	MobileNumber      string     `json:"mobileNumber"`
	Email             string     `json:"email,omitempty"`
	Status            string     `json:"status"`
	AttemptsRemaining int        `json:"attemptsRemaining"`
	OtpExpiresAt      *time.Time `json:"otpExpiresAt,omitempty"`
	FailureReason     *string    `json:"failureReason,omitempty"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type listVerificationsResponse struct {
	Data []verificationResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *VerificationHandler) SubmitVerification(c *fiber.Ctx) error {
	var req submitVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.Submit(c.UserContext(), requestToIdentity(req))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toVerificationResponse(record))
}

func (h *VerificationHandler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.VerifyOtp(c.UserContext(), strings.TrimSpace(c.Params("id")), strings.TrimSpace(req.Otp))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toVerificationResponse(record))
}

func (h *VerificationHandler) ResendOtp(c *fiber.Ctx) error {
	record, err := h.service.ResendOtp(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toVerificationResponse(record))
}

func (h *VerificationHandler) CancelVerification(c *fiber.Ctx) error {
	record, err := h.service.Cancel(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toVerificationResponse(record))
}

func (h *VerificationHandler) ResubmitVerification(c *fiber.Ctx) error {
	var req submitVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.Resubmit(c.UserContext(), strings.TrimSpace(c.Params("id")), requestToIdentity(req))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toVerificationResponse(record))
}

func (h *VerificationHandler) GetVerification(c *fiber.Ctx) error {
	record, err := h.service.GetByVerificationID(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toVerificationResponse(record))
}

func (h *VerificationHandler) ListVerifications(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}

	records, total, err := h.service.List(c.UserContext(), params)
	if err != nil {
		return err
	}

	responses := make([]verificationResponse, 0, len(records))
	for _, record := range records {
		r := record
		responses = append(responses, toVerificationResponse(&r))
	}

	return c.Status(fiber.StatusOK).JSON(listVerificationsResponse{
		Data: responses,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseStatusFromString(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.ListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.ListParams{}, err
	}
	params.From = from
	params.To = to

	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return repository.ListParams{}, fmt.Errorf("%w: from must not be after to", domain.ErrValidation)
	}

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func requestToIdentity(req submitVerificationRequest) domain.ApplicantIdentity {
	return domain.ApplicantIdentity{
		AadhaarNumber: strings.TrimSpace(req.AadhaarNumber),
		Name:          strings.TrimSpace(req.Name),
		DateOfBirth:   strings.TrimSpace(req.DateOfBirth),
		Gender:        domain.Gender(strings.ToUpper(strings.TrimSpace(req.Gender))),
		MobileNumber:  strings.TrimSpace(req.MobileNumber),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
		Consent:       domain.Consent(strings.ToUpper(strings.TrimSpace(req.Consent))),
	}
}

// Responses never carry raw identifiers. Aadhaar and mobile leave the service
// masked, exactly as they appear in the audit trail.
func toVerificationResponse(r *domain.VerificationRecord) verificationResponse {
	if r == nil {
		return verificationResponse{}
	}

	resp := verificationResponse{
		VerificationID:    r.VerificationID,
		AadhaarNumber:     audit.MaskAadhaar(r.Identity.AadhaarNumber),
		Name:              r.Identity.Name,
		MobileNumber:      audit.MaskMobile(r.Identity.MobileNumber),
		Status:            r.Status.String(),
		AttemptsRemaining: policy.AttemptsRemaining(r.AttemptCount, r.MaxAttempts),
		OtpExpiresAt:      r.OtpExpiresAt,
		FailureReason:     r.FailureReason,
		VerifiedAt:        r.VerifiedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.Identity.Email != "" {
		resp.Email = audit.MaskEmail(r.Identity.Email)
	}
	return resp
}
