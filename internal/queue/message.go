package queue

import (
	"fmt"
	"strings"
	"time"
)

// AuditMessage is the broker payload for a verification audit event. Field
// values are masked before they reach this type; the queue never carries raw
// PII.
type AuditMessage struct {
	EventID        string            `json:"eventId"`
	VerificationID string            `json:"verificationId"`
	Action         string            `json:"action"`
	Outcome        string            `json:"outcome"`
	Fields         map[string]string `json:"fields,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

func (m AuditMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if strings.TrimSpace(m.Action) == "" {
		return fmt.Errorf("action is required")
	}
	return nil
}
