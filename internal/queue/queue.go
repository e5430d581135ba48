package queue

import "context"

// Publisher publishes audit events to a queue for downstream compliance
// consumers. The service never reads the queue back.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg AuditMessage) error
	Close() error
}

const (
	// AuditQueueName is the durable queue carrying masked verification audit
	// events.
	AuditQueueName = "audit.ekyc"
)
