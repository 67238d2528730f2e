package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
	"github.com/pulanodus/tableserve-backend/pkg/outbox"
)

type stubSessionsRepo struct {
	sessions map[uuid.UUID]*models.DiningSession
	diners   map[uuid.UUID][]models.SessionDiner
	touched  int
}

func newStubSessionsRepo() *stubSessionsRepo {
	return &stubSessionsRepo{
		sessions: map[uuid.UUID]*models.DiningSession{},
		diners:   map[uuid.UUID][]models.SessionDiner{},
	}
}

func (s *stubSessionsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubSessionsRepo) Create(ctx context.Context, session *models.DiningSession) (*models.DiningSession, error) {
	for _, existing := range s.sessions {
		if existing.TableID == session.TableID && existing.Status == enums.SessionStatusOpen {
			return nil, errUniqueOpenTable
		}
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *stubSessionsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *session
	clone.Diners = s.diners[id]
	return &clone, nil
}

func (s *stubSessionsRepo) FindOpenByTable(ctx context.Context, tableID uuid.UUID) (*models.DiningSession, error) {
	for _, session := range s.sessions {
		if session.TableID == tableID && session.Status == enums.SessionStatusOpen {
			clone := *session
			clone.Diners = s.diners[session.ID]
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSessionsRepo) AddDiner(ctx context.Context, diner *models.SessionDiner) error {
	for _, existing := range s.diners[diner.SessionID] {
		if existing.Name == diner.Name {
			return errUniqueDinerName
		}
	}
	diner.JoinedAt = time.Now()
	s.diners[diner.SessionID] = append(s.diners[diner.SessionID], *diner)
	return nil
}

func (s *stubSessionsRepo) ListDiners(ctx context.Context, sessionID uuid.UUID) ([]models.SessionDiner, error) {
	return s.diners[sessionID], nil
}

func (s *stubSessionsRepo) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	if session, ok := s.sessions[sessionID]; ok && session.Status == enums.SessionStatusOpen {
		session.LastActivityAt = at
		s.touched++
	}
	return nil
}

func (s *stubSessionsRepo) TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error {
	return s.Touch(ctx, sessionID, at)
}

func (s *stubSessionsRepo) Close(ctx context.Context, sessionID uuid.UUID, closedAt time.Time) (bool, error) {
	session, ok := s.sessions[sessionID]
	if !ok || session.Status != enums.SessionStatusOpen {
		return false, nil
	}
	session.Status = enums.SessionStatusClosed
	session.ClosedAt = &closedAt
	return true, nil
}

func (s *stubSessionsRepo) ListIdleOpen(ctx context.Context, cutoff time.Time) ([]models.DiningSession, error) {
	var out []models.DiningSession
	for _, session := range s.sessions {
		if session.Status == enums.SessionStatusOpen && session.LastActivityAt.Before(cutoff) {
			out = append(out, *session)
		}
	}
	return out, nil
}

var (
	errUniqueOpenTable = uniqueErr(`duplicate key value violates unique constraint "uq_dining_sessions_open_table"`)
	errUniqueDinerName = uniqueErr(`duplicate key value violates unique constraint "uq_session_diners_name"`)
)

type uniqueErr string

func (e uniqueErr) Error() string { return string(e) }

type stubQRResolver struct {
	table *models.RestaurantTable
	err   error
}

func (s *stubQRResolver) ResolveQRToken(ctx context.Context, token string) (*models.RestaurantTable, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

type stubTableReader struct {
	table *models.RestaurantTable
}

func (s *stubTableReader) FindByID(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error) {
	if s.table == nil || s.table.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.table, nil
}

type stubBillTotals struct {
	cents int64
	err   error
}

func (s *stubBillTotals) SessionTotalCents(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return s.cents, s.err
}

type stubPaymentsLedger struct {
	cents int64
}

func (s *stubPaymentsLedger) CompletedTotalCents(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return s.cents, nil
}

type stubCartClearer struct {
	cleared []uuid.UUID
}

func (s *stubCartClearer) ClearCartTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	s.cleared = append(s.cleared, sessionID)
	return 0, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type sessionsFixture struct {
	repo     *stubSessionsRepo
	qr       *stubQRResolver
	tables   *stubTableReader
	bills    *stubBillTotals
	payments *stubPaymentsLedger
	carts    *stubCartClearer
	outbox   *stubOutboxPublisher
	svc      Service
}

func newSessionsFixture(t *testing.T) *sessionsFixture {
	t.Helper()

	table := &models.RestaurantTable{
		ID:     uuid.New(),
		Number: 7,
		Label:  "Table 7",
		Seats:  4,
		Active: true,
	}
	f := &sessionsFixture{
		repo:     newStubSessionsRepo(),
		qr:       &stubQRResolver{table: table},
		tables:   &stubTableReader{table: table},
		bills:    &stubBillTotals{},
		payments: &stubPaymentsLedger{},
		carts:    &stubCartClearer{},
		outbox:   &stubOutboxPublisher{},
	}
	svc, err := NewService(
		f.repo, f.qr, f.tables, f.bills, f.payments, f.carts,
		stubTxRunner{}, f.outbox, logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	f.svc = svc
	return f
}

func TestStartSessionCreatesSessionAndFirstDiner(t *testing.T) {
	f := newSessionsFixture(t)

	dto, err := f.svc.StartSession(context.Background(), "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}
	if dto.Status != enums.SessionStatusOpen {
		t.Fatalf("expected open session, got %s", dto.Status)
	}
	if len(dto.Diners) != 1 || dto.Diners[0].Name != "Naledi" {
		t.Fatalf("expected Naledi as first diner, got %+v", dto.Diners)
	}
	if dto.TableNumber != 7 {
		t.Fatalf("expected table number 7, got %d", dto.TableNumber)
	}
}

func TestStartSessionJoinsExistingOpenSession(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}

	second, err := f.svc.StartSession(ctx, "qr-token", "Thabo")
	if err != nil {
		t.Fatalf("second StartSession returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected second scan to land in the same session")
	}
	if len(second.Diners) != 2 {
		t.Fatalf("expected two diners, got %d", len(second.Diners))
	}
}

func TestStartSessionPropagatesQRFailure(t *testing.T) {
	f := newSessionsFixture(t)
	f.qr.err = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid table code")

	_, err := f.svc.StartSession(context.Background(), "bad-token", "Naledi")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestJoinSessionIdempotentForExistingName(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}

	joined, err := f.svc.JoinSession(ctx, started.ID, "Naledi")
	if err != nil {
		t.Fatalf("JoinSession returned error: %v", err)
	}
	if len(joined.Diners) != 1 {
		t.Fatalf("expected rejoin to keep one diner, got %d", len(joined.Diners))
	}
}

func TestJoinSessionClosedSession(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}
	if _, err := f.svc.CloseSession(ctx, started.ID, CloseReasonManual); err != nil {
		t.Fatalf("CloseSession returned error: %v", err)
	}

	_, err = f.svc.JoinSession(ctx, started.ID, "Thabo")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCloseSessionRejectsUnpaidBalance(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}

	f.bills.cents = 22800
	f.payments.cents = 10000

	_, err = f.svc.CloseSession(ctx, started.ID, CloseReasonManual)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for unpaid balance, got %v", err)
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("expected no close event for an unpaid session")
	}
}

func TestCloseSessionClearsCartAndEmitsEvent(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}

	f.bills.cents = 22800
	f.payments.cents = 22800

	closed, err := f.svc.CloseSession(ctx, started.ID, CloseReasonManual)
	if err != nil {
		t.Fatalf("CloseSession returned error: %v", err)
	}
	if closed.Status != enums.SessionStatusClosed {
		t.Fatalf("expected closed status, got %s", closed.Status)
	}
	if len(f.carts.cleared) != 1 || f.carts.cleared[0] != started.ID {
		t.Fatalf("expected cart clear for session, got %v", f.carts.cleared)
	}
	if len(f.outbox.events) != 1 {
		t.Fatalf("expected one close event, got %d", len(f.outbox.events))
	}
	if f.outbox.events[0].EventType != enums.EventSessionClosed {
		t.Fatalf("expected session_closed event, got %s", f.outbox.events[0].EventType)
	}
}

func TestCloseSessionIdempotent(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}
	if _, err := f.svc.CloseSession(ctx, started.ID, CloseReasonManual); err != nil {
		t.Fatalf("first close returned error: %v", err)
	}

	again, err := f.svc.CloseSession(ctx, started.ID, CloseReasonManual)
	if err != nil {
		t.Fatalf("second close returned error: %v", err)
	}
	if again.Status != enums.SessionStatusClosed {
		t.Fatalf("expected closed status, got %s", again.Status)
	}
	if len(f.outbox.events) != 1 {
		t.Fatalf("expected no second close event, got %d", len(f.outbox.events))
	}
}

func TestCloseIdleSkipsUnpaidSessions(t *testing.T) {
	f := newSessionsFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, "qr-token", "Naledi")
	if err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}
	f.repo.sessions[started.ID].LastActivityAt = time.Now().Add(-6 * time.Hour)

	f.bills.cents = 5000
	f.payments.cents = 0

	closed, err := f.svc.CloseIdle(ctx, time.Now().Add(-4*time.Hour))
	if err != nil {
		t.Fatalf("CloseIdle returned error: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected no sessions closed, got %d", closed)
	}

	f.payments.cents = 5000
	closed, err = f.svc.CloseIdle(ctx, time.Now().Add(-4*time.Hour))
	if err != nil {
		t.Fatalf("CloseIdle returned error: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected one session closed, got %d", closed)
	}
}
