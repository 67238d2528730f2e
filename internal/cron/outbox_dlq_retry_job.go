package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

const dlqRetryBatchSize = 100

type OutboxDLQRetryJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	DLQ       dlqRetryRepo
	Outbox    outboxInsertRepo
	BatchSize int
}

type dlqRetryRepo interface {
	ListByReason(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
}

type outboxInsertRepo interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

// NewOutboxDLQRetryJob re-enqueues events that were dead-lettered after
// exhausting their publish attempts. Non-retryable entries stay in the DLQ
// for manual remediation.
func NewOutboxDLQRetryJob(params OutboxDLQRetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.DLQ == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = dlqRetryBatchSize
	}
	return &outboxDLQRetryJob{
		logg:      params.Logger,
		db:        params.DB,
		dlq:       params.DLQ,
		outbox:    params.Outbox,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type outboxDLQRetryJob struct {
	logg      *logger.Logger
	db        txRunner
	dlq       dlqRetryRepo
	outbox    outboxInsertRepo
	batchSize int
	now       func() time.Time
}

func (j *outboxDLQRetryJob) Name() string { return "outbox-dlq-retry" }

func (j *outboxDLQRetryJob) Run(ctx context.Context) error {
	entries, err := j.dlq.ListByReason(ctx, enums.OutboxDLQReasonMaxAttempts, j.batchSize)
	if err != nil {
		return fmt.Errorf("list dlq entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	requeued := 0
	failed := 0
	for _, entry := range entries {
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			event := models.OutboxEvent{
				EventType:     entry.EventType,
				AggregateType: entry.AggregateType,
				AggregateID:   entry.AggregateID,
				Payload:       entry.Payload,
			}
			if err := j.outbox.Insert(tx, event); err != nil {
				return err
			}
			return j.dlq.DeleteTx(tx, entry.ID)
		})
		if err != nil {
			failed++
			errCtx := j.logg.WithFields(ctx, map[string]any{
				"dlq_id":   entry.ID,
				"event_id": entry.EventID,
			})
			j.logg.Error(errCtx, "failed to requeue dlq entry", err)
			continue
		}
		requeued++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"requeued": requeued,
		"failed":   failed,
	})
	j.logg.Info(logCtx, "outbox dlq retry complete")
	if failed > 0 {
		return fmt.Errorf("outbox dlq retry: %d of %d entries failed", failed, len(entries))
	}
	return nil
}
