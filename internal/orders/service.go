package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
)

// staleWriteAttempts bounds how many times a serve retries after losing a
// version race before giving up.
const staleWriteAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error)
	TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
}

// Service exposes the staff order views and the served transition.
type Service interface {
	ListConfirmedBySession(ctx context.Context, sessionID uuid.UUID) ([]OrderLineDTO, error)
	ListOpenOrders(ctx context.Context) ([]OpenOrderLineDTO, error)
	MarkLineServed(ctx context.Context, lineID uuid.UUID) (*OrderLineDTO, error)
}

type service struct {
	repo     Repository
	sessions sessionStore
	tx       txRunner
	now      func() time.Time
}

// NewService wires the orders service.
func NewService(repo Repository, sessions sessionStore, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders service requires a repository")
	}
	if sessions == nil {
		return nil, fmt.Errorf("orders service requires a session store")
	}
	if tx == nil {
		return nil, fmt.Errorf("orders service requires a transaction runner")
	}
	return &service{repo: repo, sessions: sessions, tx: tx, now: time.Now}, nil
}

func (s *service) ListConfirmedBySession(ctx context.Context, sessionID uuid.UUID) ([]OrderLineDTO, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session")
	}
	lines, err := s.repo.ListConfirmedBySession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing confirmed lines")
	}
	return FromModels(lines), nil
}

func (s *service) ListOpenOrders(ctx context.Context) ([]OpenOrderLineDTO, error) {
	records, err := s.repo.ListOpenLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing open orders")
	}
	return FromOpenLineRecords(records), nil
}

func (s *service) MarkLineServed(ctx context.Context, lineID uuid.UUID) (*OrderLineDTO, error) {
	var dto *OrderLineDTO
	err := s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			line, err := repo.FindLineByID(ctx, lineID)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order line")
			}
			if line.Status != enums.LineStatusConfirmed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "line is not confirmed")
			}
			if line.ServedAt != nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "line is already served")
			}

			servedAt := s.now().UTC()
			ok, err := repo.MarkServedCAS(ctx, line.ID, line.Version, servedAt)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking line served")
			}
			if !ok {
				return staleLineError()
			}
			if err := s.sessions.TouchTx(ctx, tx, line.SessionID, servedAt); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touching session")
			}

			line.ServedAt = &servedAt
			line.Version++
			dto = FromModel(line)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) retryStale(fn func() error) error {
	var err error
	for attempt := 0; attempt < staleWriteAttempts; attempt++ {
		err = fn()
		if err == nil || !pkgerrors.IsCode(err, pkgerrors.CodeStaleWrite) {
			return err
		}
	}
	return err
}

func staleLineError() error {
	return pkgerrors.New(pkgerrors.CodeStaleWrite, "line was modified concurrently")
}
