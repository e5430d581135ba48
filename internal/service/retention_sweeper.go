package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/ekyc-engine/internal/observability"
	"github.com/kursadbilgin/ekyc-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval   = time.Hour
	defaultRetentionWindow = 30 * 24 * time.Hour
)

// RetentionSweeper periodically deletes verification records older than the
// retention window. It only ever deletes; it never changes a record's status.
type RetentionSweeper struct {
	verifications repository.VerificationRepository
	logger        *zap.Logger
	metrics       *observability.Metrics
	interval      time.Duration
	retention     time.Duration
	now           func() time.Time
}

func NewRetentionSweeper(
	verifications repository.VerificationRepository,
	interval time.Duration,
	retention time.Duration,
	logger *zap.Logger,
) (*RetentionSweeper, error) {
	if verifications == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = defaultRetentionWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetentionSweeper{
		verifications: verifications,
		logger:        logger,
		interval:      interval,
		retention:     retention,
		now:           time.Now,
	}, nil
}

func (s *RetentionSweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *RetentionSweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so aged-out records do not wait for the first
	// ticker edge.
	if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("retention sweeper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.retention)

	deleted, err := s.verifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete aged-out verifications: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("retention sweep completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	if s.metrics != nil {
		s.metrics.AddRetentionDeleted(deleted)
	}

	return nil
}
