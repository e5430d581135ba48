package audit

import "testing"

func TestMaskAadhaar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "full aadhaar", input: "123456789012", want: "****9012"},
		{name: "with surrounding spaces", input: " 123456789012 ", want: "****9012"},
		{name: "short value never leaks", input: "1234", want: "****"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskAadhaar(tt.input); got != tt.want {
				t.Fatalf("MaskAadhaar(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMaskMobile(t *testing.T) {
	t.Parallel()

	if got := MaskMobile("9876543210"); got != "****3210" {
		t.Fatalf("MaskMobile() = %q, want ****3210", got)
	}
	if got := MaskMobile("321"); got != "****" {
		t.Fatalf("MaskMobile(short) = %q, want ****", got)
	}
	if got := MaskMobile(""); got != "" {
		t.Fatalf("MaskMobile(empty) = %q, want empty", got)
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "normal address", input: "asha@example.com", want: "a***@example.com"},
		{name: "single char local part", input: "a@example.com", want: "***@example.com"},
		{name: "no at sign", input: "not-an-email", want: "***"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskEmail(tt.input); got != tt.want {
				t.Fatalf("MaskEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMaskOTP(t *testing.T) {
	t.Parallel()

	if got := MaskOTP("123456"); got != "******" {
		t.Fatalf("MaskOTP() = %q, want ******", got)
	}
	if got := MaskOTP("1"); got != "******" {
		t.Fatalf("MaskOTP(single digit) = %q, want ******", got)
	}
	if got := MaskOTP("  "); got != "" {
		t.Fatalf("MaskOTP(blank) = %q, want empty", got)
	}
}
