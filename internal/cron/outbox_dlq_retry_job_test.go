package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

func TestOutboxDLQRetryJobRequeuesMaxAttemptEntries(t *testing.T) {
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateDiningSession,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
	}
	dlq := &fakeDLQRetryRepo{entries: []models.OutboxDLQ{entry}}
	outboxRepo := &fakeOutboxInsertRepo{}
	job := newOutboxDLQRetryJob(t, dlq, outboxRepo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if dlq.lastReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("expected max-attempts filter, got %s", dlq.lastReason)
	}
	if got := len(outboxRepo.inserted); got != 1 {
		t.Fatalf("expected one requeued event, got %d", got)
	}
	requeued := outboxRepo.inserted[0]
	if requeued.EventType != entry.EventType {
		t.Fatalf("event type mismatch: %s", requeued.EventType)
	}
	if requeued.AggregateID != entry.AggregateID {
		t.Fatalf("aggregate id mismatch: %s", requeued.AggregateID)
	}
	if requeued.AttemptCount != 0 {
		t.Fatalf("expected attempt count reset, got %d", requeued.AttemptCount)
	}
	if got := len(dlq.deleted); got != 1 || dlq.deleted[0] != entry.ID {
		t.Fatalf("expected dlq row %s deleted, got %v", entry.ID, dlq.deleted)
	}
}

func TestOutboxDLQRetryJobNoEntriesIsNoop(t *testing.T) {
	dlq := &fakeDLQRetryRepo{}
	outboxRepo := &fakeOutboxInsertRepo{}
	job := newOutboxDLQRetryJob(t, dlq, outboxRepo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outboxRepo.inserted) != 0 {
		t.Fatal("expected no inserts")
	}
}

func TestOutboxDLQRetryJobContinuesAfterFailure(t *testing.T) {
	first := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     enums.EventPaymentRecorded,
		AggregateType: enums.AggregatePayment,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
	}
	second := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateDiningSession,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
	}
	dlq := &fakeDLQRetryRepo{entries: []models.OutboxDLQ{first, second}}
	outboxRepo := &fakeOutboxInsertRepo{failOn: map[uuid.UUID]error{
		first.AggregateID: errors.New("insert failed"),
	}}
	job := newOutboxDLQRetryJob(t, dlq, outboxRepo)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when an entry fails")
	}
	if got := len(outboxRepo.inserted); got != 1 {
		t.Fatalf("expected the second entry requeued, got %d inserts", got)
	}
	if got := len(dlq.deleted); got != 1 || dlq.deleted[0] != second.ID {
		t.Fatalf("expected only the second dlq row deleted, got %v", dlq.deleted)
	}
}

func newOutboxDLQRetryJob(t *testing.T, dlq *fakeDLQRetryRepo, outboxRepo *fakeOutboxInsertRepo) *outboxDLQRetryJob {
	t.Helper()
	jobIface, err := NewOutboxDLQRetryJob(OutboxDLQRetryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     cronFakeTxRunner{},
		DLQ:    dlq,
		Outbox: outboxRepo,
	})
	if err != nil {
		t.Fatalf("NewOutboxDLQRetryJob: %v", err)
	}
	job, ok := jobIface.(*outboxDLQRetryJob)
	if !ok {
		t.Fatalf("expected outboxDLQRetryJob, got %T", jobIface)
	}
	return job
}

type fakeDLQRetryRepo struct {
	entries    []models.OutboxDLQ
	deleted    []uuid.UUID
	lastReason enums.OutboxDLQErrorReason
}

func (f *fakeDLQRetryRepo) ListByReason(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error) {
	f.lastReason = reason
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeDLQRetryRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeOutboxInsertRepo struct {
	inserted []models.OutboxEvent
	failOn   map[uuid.UUID]error
}

func (f *fakeOutboxInsertRepo) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if err, ok := f.failOn[event.AggregateID]; ok {
		return err
	}
	f.inserted = append(f.inserted, event)
	return nil
}
