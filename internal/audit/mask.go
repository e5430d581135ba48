package audit

import "strings"

// Masking helpers for PII fields. Every value that leaves the workflow engine
// for a log line or an audit event goes through one of these first.

// MaskAadhaar keeps the last four digits of an aadhaar number.
func MaskAadhaar(aadhaar string) string {
	trimmed := strings.TrimSpace(aadhaar)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return "****" + trimmed[len(trimmed)-4:]
}

// MaskMobile keeps the last four digits of a mobile number.
func MaskMobile(mobile string) string {
	trimmed := strings.TrimSpace(mobile)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return "****" + trimmed[len(trimmed)-4:]
}

// MaskEmail keeps the first character of the local part and the full domain.
func MaskEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return ""
	}

	atIndex := strings.Index(trimmed, "@")
	if atIndex <= 1 {
		if atIndex < 0 {
			return "***"
		}
		return "***@" + trimmed[atIndex+1:]
	}
	return trimmed[:1] + "***" + trimmed[atIndex:]
}

// MaskOTP never reveals any digit of an OTP.
func MaskOTP(otp string) string {
	if strings.TrimSpace(otp) == "" {
		return ""
	}
	return "******"
}
