package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*UidaiProvider, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := resty.New()
	client.SetTimeout(2 * time.Second)

	p, err := NewUidaiProviderWithClient(server.URL, client)
	if err != nil {
		t.Fatalf("NewUidaiProviderWithClient() error = %v", err)
	}
	return p, server
}

func TestNewUidaiProviderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewUidaiProvider("", time.Second); err == nil {
		t.Fatal("NewUidaiProvider(\"\") error = nil, want error")
	}
	if _, err := NewUidaiProvider("not a url", time.Second); err == nil {
		t.Fatal("NewUidaiProvider(invalid) error = nil, want error")
	}
	if _, err := NewUidaiProviderWithClient("http://gateway.local", nil); err == nil {
		t.Fatal("NewUidaiProviderWithClient(nil client) error = nil, want error")
	}

	p, err := NewUidaiProvider("http://gateway.local/", time.Second)
	if err != nil {
		t.Fatalf("NewUidaiProvider() error = %v", err)
	}
	if p.baseURL != "http://gateway.local" {
		t.Fatalf("baseURL = %s, want trailing slash trimmed", p.baseURL)
	}
}

func TestInitiateOtpSuccess(t *testing.T) {
	t.Parallel()

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/uidai/otp/initiate" {
			t.Errorf("path = %s, want /api/v1/uidai/otp/initiate", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["aadhaarNumber"] != "123456789012" {
			t.Errorf("aadhaarNumber = %s, want 123456789012", req["aadhaarNumber"])
		}
		if req["mobileNumber"] != "9876543210" {
			t.Errorf("mobileNumber = %s, want 9876543210", req["mobileNumber"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"txnId":       "txn-abc",
			"status":      "OTP_SENT",
			"referenceId": "ref-1",
		})
	})

	result, err := p.InitiateOtp(context.Background(), InitiateRequest{
		AadhaarNumber: "123456789012",
		MobileNumber:  "9876543210",
	})
	if err != nil {
		t.Fatalf("InitiateOtp() error = %v", err)
	}
	if result.TransactionID != "txn-abc" {
		t.Fatalf("TransactionID = %s, want txn-abc", result.TransactionID)
	}
	if result.ReferenceID != "ref-1" {
		t.Fatalf("ReferenceID = %s, want ref-1", result.ReferenceID)
	}
}

func TestInitiateOtpMissingTxnIDIsTransient(t *testing.T) {
	t.Parallel()

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OTP_SENT"})
	})

	_, err := p.InitiateOtp(context.Background(), InitiateRequest{
		AadhaarNumber: "123456789012",
		MobileNumber:  "9876543210",
	})
	if err == nil {
		t.Fatal("InitiateOtp() error = nil, want error for missing txnId")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient(%v) = false, want true", err)
	}
}

func TestInitiateOtpRequiresIdentityFields(t *testing.T) {
	t.Parallel()

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	})

	if _, err := p.InitiateOtp(context.Background(), InitiateRequest{MobileNumber: "9876543210"}); err == nil {
		t.Fatal("InitiateOtp() error = nil, want error for missing aadhaar")
	}
	if _, err := p.InitiateOtp(context.Background(), InitiateRequest{AadhaarNumber: "123456789012"}); err == nil {
		t.Fatal("InitiateOtp() error = nil, want error for missing mobile")
	}
}

func TestVerifyOtpOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		body          map[string]any
		wantMatched   bool
		wantTransient bool
		wantRejected  bool
		wantErr       bool
	}{
		{
			name:        "kyc matched",
			status:      http.StatusOK,
			body:        map[string]any{"txnId": "txn-1", "status": "VERIFIED", "kycMatched": true},
			wantMatched: true,
		},
		{
			name:   "kyc mismatch is a successful call",
			status: http.StatusOK,
			body:   map[string]any{"txnId": "txn-1", "status": "VERIFIED", "kycMatched": false},
		},
		{
			name:         "wrong otp rejected",
			status:       http.StatusBadRequest,
			body:         map[string]any{"errorCode": "OTP_MISMATCH", "message": "otp mismatch"},
			wantErr:      true,
			wantRejected: true,
		},
		{
			name:          "gateway overloaded",
			status:        http.StatusServiceUnavailable,
			body:          map[string]any{"message": "try later"},
			wantErr:       true,
			wantTransient: true,
		},
		{
			name:          "rate limited is transient",
			status:        http.StatusTooManyRequests,
			body:          map[string]any{"message": "slow down"},
			wantErr:       true,
			wantTransient: true,
		},
		{
			name:          "request timeout is transient",
			status:        http.StatusRequestTimeout,
			body:          map[string]any{"message": "timed out"},
			wantErr:       true,
			wantTransient: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/uidai/otp/verify" {
					t.Errorf("path = %s, want /api/v1/uidai/otp/verify", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			})

			result, err := p.VerifyOtp(context.Background(), VerifyRequest{
				TransactionID: "txn-1",
				Otp:           "123456",
				AadhaarNumber: "123456789012",
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("VerifyOtp() error = nil, want error")
				}
				if IsTransient(err) != tt.wantTransient {
					t.Fatalf("IsTransient(%v) = %v, want %v", err, IsTransient(err), tt.wantTransient)
				}
				if IsRejected(err) != tt.wantRejected {
					t.Fatalf("IsRejected(%v) = %v, want %v", err, IsRejected(err), tt.wantRejected)
				}
				return
			}

			if err != nil {
				t.Fatalf("VerifyOtp() unexpected error = %v", err)
			}
			if result.Matched != tt.wantMatched {
				t.Fatalf("Matched = %v, want %v", result.Matched, tt.wantMatched)
			}
		})
	}
}

func TestVerifyOtpRequiresChallengeFields(t *testing.T) {
	t.Parallel()

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	})

	if _, err := p.VerifyOtp(context.Background(), VerifyRequest{Otp: "123456"}); err == nil {
		t.Fatal("VerifyOtp() error = nil, want error for missing txn id")
	}
	if _, err := p.VerifyOtp(context.Background(), VerifyRequest{TransactionID: "txn-1"}); err == nil {
		t.Fatal("VerifyOtp() error = nil, want error for missing otp")
	}
}

func TestTransportErrorClassification(t *testing.T) {
	t.Parallel()

	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := p.InitiateOtp(context.Background(), InitiateRequest{
		AadhaarNumber: "123456789012",
		MobileNumber:  "9876543210",
	})
	if err == nil {
		t.Fatal("InitiateOtp() error = nil, want transport error")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient(%v) = false, want true for refused connection", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.VerifyOtp(ctx, VerifyRequest{TransactionID: "txn-1", Otp: "123456"})
	if err == nil {
		t.Fatal("VerifyOtp() error = nil, want error for cancelled context")
	}
	if IsTransient(err) {
		t.Fatalf("IsTransient(%v) = true, want false for cancelled context", err)
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &ProviderError{Message: "request failed", Transient: true, Cause: cause}

	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(err, cause) = false, want true")
	}
	if err.Error() == "" {
		t.Fatal("Error() returned empty string")
	}
}
