package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultProviderTimeout = 30 * time.Second

	otpInitiatePath = "/api/v1/uidai/otp/initiate"
	otpVerifyPath   = "/api/v1/uidai/otp/verify"
)

type otpInitiateRequest struct {
	AadhaarNumber string `json:"aadhaarNumber"`
	MobileNumber  string `json:"mobileNumber"`
}

type otpInitiateResponse struct {
	TxnID       string `json:"txnId"`
	Status      string `json:"status"`
	ReferenceID string `json:"referenceId,omitempty"`
	ErrorCode   string `json:"errorCode,omitempty"`
	Message     string `json:"message,omitempty"`
}

type otpVerifyRequest struct {
	TxnID         string `json:"txnId"`
	Otp           string `json:"otp"`
	AadhaarNumber string `json:"aadhaarNumber"`
}

type otpVerifyResponse struct {
	TxnID      string `json:"txnId"`
	Status     string `json:"status"`
	KycMatched bool   `json:"kycMatched"`
	ErrorCode  string `json:"errorCode,omitempty"`
	Message    string `json:"message,omitempty"`
}

// UidaiProvider talks to a UIDAI-style identity gateway over HTTP. Every call
// runs under a bounded timeout and the client never retries on its own;
// retries are a workflow decision so the authority is not double-charged for
// OTP sends.
type UidaiProvider struct {
	client  *resty.Client
	baseURL string
}

func NewUidaiProvider(baseURL string, timeout time.Duration) (*UidaiProvider, error) {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewUidaiProviderWithClient(baseURL, client)
}

func NewUidaiProviderWithClient(baseURL string, client *resty.Client) (*UidaiProvider, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("uidai base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid uidai base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultProviderTimeout)
	}
	client.SetRetryCount(0)

	return &UidaiProvider{
		client:  client,
		baseURL: trimmedURL,
	}, nil
}

func (p *UidaiProvider) InitiateOtp(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(req.AadhaarNumber) == "" {
		return nil, fmt.Errorf("aadhaar number is required for otp initiation")
	}
	if strings.TrimSpace(req.MobileNumber) == "" {
		return nil, fmt.Errorf("mobile number is required for otp initiation")
	}

	var result otpInitiateResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(otpInitiateRequest{
			AadhaarNumber: req.AadhaarNumber,
			MobileNumber:  req.MobileNumber,
		}).
		SetResult(&result).
		Post(p.baseURL + otpInitiatePath)
	if err != nil {
		return nil, transportError("otp initiation request failed", err)
	}
	if callErr := classifyResponse(response, result.ErrorCode, result.Message); callErr != nil {
		return nil, callErr
	}

	if strings.TrimSpace(result.TxnID) == "" {
		return nil, &ProviderError{
			StatusCode: response.StatusCode(),
			Message:    "provider response missing transaction id",
			Transient:  true,
		}
	}

	return &InitiateResult{
		TransactionID: result.TxnID,
		ReferenceID:   result.ReferenceID,
	}, nil
}

func (p *UidaiProvider) VerifyOtp(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return nil, fmt.Errorf("transaction id is required for otp verification")
	}
	if strings.TrimSpace(req.Otp) == "" {
		return nil, fmt.Errorf("otp is required for verification")
	}

	var result otpVerifyResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(otpVerifyRequest{
			TxnID:         req.TransactionID,
			Otp:           req.Otp,
			AadhaarNumber: req.AadhaarNumber,
		}).
		SetResult(&result).
		Post(p.baseURL + otpVerifyPath)
	if err != nil {
		return nil, transportError("otp verification request failed", err)
	}
	if callErr := classifyResponse(response, result.ErrorCode, result.Message); callErr != nil {
		return nil, callErr
	}

	return &VerifyResult{
		TransactionID: result.TxnID,
		Matched:       result.KycMatched,
	}, nil
}

func transportError(message string, err error) *ProviderError {
	return &ProviderError{
		Message:   message,
		Transient: !errors.Is(err, context.Canceled),
		Cause:     err,
	}
}

// classifyResponse maps non-2xx gateway responses onto the tri-state outcome
// contract: 4xx is a rejection, 429 and 5xx are transient.
func classifyResponse(response *resty.Response, errorCode, message string) error {
	if response == nil {
		return &ProviderError{
			Message:   "provider returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	if message == "" {
		message = fmt.Sprintf("provider returned status %d", statusCode)
	}

	return &ProviderError{
		StatusCode: statusCode,
		Code:       errorCode,
		Message:    message,
		Transient:  isTransientHTTPStatus(statusCode),
		Rejected:   statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError && !isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		(statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
