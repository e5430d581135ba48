package queue

import (
	"testing"
	"time"
)

func TestAuditMessageValidate(t *testing.T) {
	msg := AuditMessage{
		EventID:        "evt-1",
		VerificationID: "EKYC-1A2B3C4D",
		Action:         "verification.submit",
		Outcome:        "success",
		Timestamp:      time.Now().UTC(),
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	msg.EventID = ""
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for empty event id")
	}

	msg.EventID = "evt-1"
	msg.Action = " "
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for blank action")
	}
}
