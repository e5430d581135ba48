// Package audit is the masking boundary between the verification workflow and
// the outside world. The workflow hands it structured, already-masked fields;
// the package writes them to the service log and, when a publisher is
// configured, to a durable audit queue for compliance consumers.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/ekyc-engine/internal/queue"
	"go.uber.org/zap"
)

// Event is one auditable workflow action.
type Event struct {
	VerificationID string
	Action         string
	Outcome        string
	Fields         map[string]string
}

// Recorder captures audit events. Implementations must never block the
// workflow on downstream failures.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Trail records events to zap and fans them out to the audit queue.
// Publishing is best effort: a broker failure is logged, never surfaced.
type Trail struct {
	logger    *zap.Logger
	publisher queue.Publisher
	now       func() time.Time
}

func NewTrail(logger *zap.Logger, publisher queue.Publisher) *Trail {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Trail{
		logger:    logger,
		publisher: publisher,
		now:       time.Now,
	}
}

func (t *Trail) Record(ctx context.Context, event Event) {
	if t == nil {
		return
	}

	fields := make([]zap.Field, 0, len(event.Fields)+3)
	fields = append(fields,
		zap.String("action", event.Action),
		zap.String("verificationId", event.VerificationID),
		zap.String("outcome", event.Outcome),
	)
	for key, value := range event.Fields {
		fields = append(fields, zap.String(key, value))
	}
	t.logger.Info("audit", fields...)

	if t.publisher == nil {
		return
	}

	msg := queue.AuditMessage{
		EventID:        uuid.NewString(),
		VerificationID: event.VerificationID,
		Action:         event.Action,
		Outcome:        event.Outcome,
		Fields:         event.Fields,
		Timestamp:      t.now().UTC(),
	}
	if err := t.publisher.Publish(ctx, queue.AuditQueueName, msg); err != nil {
		t.logger.Warn("failed to publish audit event",
			zap.String("action", event.Action),
			zap.String("verificationId", event.VerificationID),
			zap.Error(err),
		)
	}
}
