package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
	"github.com/pulanodus/tableserve-backend/pkg/outbox"
	"github.com/pulanodus/tableserve-backend/pkg/outbox/payloads"
)

// Close reasons recorded on the session_closed event.
const (
	CloseReasonManual = "manual"
	CloseReasonIdle   = "idle"
)

const maxDinerNameLen = 40

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type qrResolver interface {
	ResolveQRToken(ctx context.Context, token string) (*models.RestaurantTable, error)
}

type tableReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error)
}

type billTotals interface {
	SessionTotalCents(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type paymentsLedger interface {
	CompletedTotalCents(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type cartClearer interface {
	ClearCartTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
}

// Service defines session lifecycle operations.
type Service interface {
	StartSession(ctx context.Context, qrToken, dinerName string) (*SessionDTO, error)
	JoinSession(ctx context.Context, sessionID uuid.UUID, dinerName string) (*SessionDTO, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error)
	ListDiners(ctx context.Context, sessionID uuid.UUID) ([]DinerDTO, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID, reason string) (*SessionDTO, error)
	CloseIdle(ctx context.Context, cutoff time.Time) (int, error)
}

type service struct {
	repo     Repository
	qr       qrResolver
	tables   tableReader
	bills    billTotals
	payments paymentsLedger
	carts    cartClearer
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a sessions service with the required dependencies.
func NewService(
	repo Repository,
	qr qrResolver,
	tables tableReader,
	bills billTotals,
	payments paymentsLedger,
	carts cartClearer,
	tx txRunner,
	outboxSvc outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if qr == nil {
		return nil, fmt.Errorf("qr resolver required")
	}
	if tables == nil {
		return nil, fmt.Errorf("table reader required")
	}
	if bills == nil {
		return nil, fmt.Errorf("bill totals reader required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payments ledger required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		qr:       qr,
		tables:   tables,
		bills:    bills,
		payments: payments,
		carts:    carts,
		tx:       tx,
		outbox:   outboxSvc,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// StartSession resolves a scanned QR code and lands the diner in the table's
// open session, creating one when the table is free. A concurrent
// double-start loses the insert race on the open-table index and joins the
// winner instead.
func (s *service) StartSession(ctx context.Context, qrToken, dinerName string) (*SessionDTO, error) {
	name, err := normalizeDinerName(dinerName)
	if err != nil {
		return nil, err
	}

	table, err := s.qr.ResolveQRToken(ctx, qrToken)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindOpenByTable(ctx, table.ID)
	if err == nil {
		return s.joinExisting(ctx, existing, name)
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open session")
	}

	session := &models.DiningSession{
		ID:             uuid.New(),
		TableID:        table.ID,
		Status:         enums.SessionStatusOpen,
		LastActivityAt: s.now(),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, session); err != nil {
			return err
		}
		return repo.AddDiner(ctx, &models.SessionDiner{
			ID:        uuid.New(),
			SessionID: session.ID,
			Name:      name,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_dining_sessions_open_table") {
			winner, findErr := s.repo.FindOpenByTable(ctx, table.ID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load open session")
			}
			return s.joinExisting(ctx, winner, name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return s.sessionDTO(ctx, session.ID)
}

// JoinSession registers a diner name on an open session. Re-joining with a
// name that is already registered succeeds without side effects.
func (s *service) JoinSession(ctx context.Context, sessionID uuid.UUID, dinerName string) (*SessionDTO, error) {
	name, err := normalizeDinerName(dinerName)
	if err != nil {
		return nil, err
	}
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.SessionStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}
	return s.joinExisting(ctx, session, name)
}

func (s *service) joinExisting(ctx context.Context, session *models.DiningSession, name string) (*SessionDTO, error) {
	registered := false
	for _, diner := range session.Diners {
		if diner.Name == name {
			registered = true
			break
		}
	}

	if !registered {
		err := s.repo.AddDiner(ctx, &models.SessionDiner{
			ID:        uuid.New(),
			SessionID: session.ID,
			Name:      name,
		})
		if err != nil && !db.IsUniqueViolation(err, "uq_session_diners_name") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register diner")
		}
	}

	if err := s.repo.Touch(ctx, session.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch session")
	}
	return s.sessionDTO(ctx, session.ID)
}

func (s *service) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error) {
	return s.sessionDTO(ctx, sessionID)
}

func (s *service) ListDiners(ctx context.Context, sessionID uuid.UUID) ([]DinerDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if _, err := s.findSession(ctx, sessionID); err != nil {
		return nil, err
	}
	diners, err := s.repo.ListDiners(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list diners")
	}
	out := make([]DinerDTO, 0, len(diners))
	for _, diner := range diners {
		out = append(out, DinerDTO{Name: diner.Name, JoinedAt: diner.JoinedAt})
	}
	return out, nil
}

// CloseSession ends a session once its confirmed lines are settled. Pending
// cart lines are discarded; closing an already closed session is a no-op
// read.
func (s *service) CloseSession(ctx context.Context, sessionID uuid.UUID, reason string) (*SessionDTO, error) {
	if reason == "" {
		reason = CloseReasonManual
	}
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == enums.SessionStatusClosed {
		return s.sessionDTO(ctx, sessionID)
	}

	billCents, err := s.bills.SessionTotalCents(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	paidCents, err := s.payments.CompletedTotalCents(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
	}
	if paidCents < billCents {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has an unpaid balance").
			WithDetails(map[string]any{
				"bill_cents": billCents,
				"paid_cents": paidCents,
			})
	}

	table, err := s.tables.FindByID(ctx, session.TableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}

	closedAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.carts.ClearCartTx(ctx, tx, sessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		closed, err := s.repo.WithTx(tx).Close(ctx, sessionID, closedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close session")
		}
		if !closed {
			return nil
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionClosed,
			AggregateType: enums.AggregateDiningSession,
			AggregateID:   sessionID,
			Version:       1,
			OccurredAt:    closedAt,
			Data: payloads.SessionClosedEvent{
				SessionID:   sessionID,
				TableID:     session.TableID,
				TableNumber: table.Number,
				Reason:      reason,
				OpenedAt:    session.CreatedAt,
				ClosedAt:    closedAt,
				DinerCount:  len(session.Diners),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.sessionDTO(ctx, sessionID)
}

// CloseIdle sweeps open sessions whose last activity predates the cutoff.
// Sessions with an unpaid balance stay open and are only logged; other
// failures are collected so one bad session does not stop the sweep.
func (s *service) CloseIdle(ctx context.Context, cutoff time.Time) (int, error) {
	idle, err := s.repo.ListIdleOpen(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list idle sessions")
	}

	closed := 0
	var errs error
	for _, session := range idle {
		if _, err := s.CloseSession(ctx, session.ID, CloseReasonIdle); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				logCtx := s.logg.WithSessionID(ctx, session.ID.String())
				s.logg.Warn(logCtx, "idle session left open: unpaid balance")
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("session %s: %w", session.ID, err))
			continue
		}
		closed++
	}
	return closed, errs
}

func (s *service) findSession(ctx context.Context, sessionID uuid.UUID) (*models.DiningSession, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return session, nil
}

func (s *service) sessionDTO(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(session)
	if table, err := s.tables.FindByID(ctx, session.TableID); err == nil {
		dto.TableNumber = table.Number
	}
	return dto, nil
}

func normalizeDinerName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "diner name required")
	}
	if len(name) > maxDinerNameLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "diner name too long").
			WithDetails(map[string]any{"max_length": maxDinerNameLen})
	}
	return name, nil
}
