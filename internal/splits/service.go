package splits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
	"github.com/pulanodus/tableserve-backend/pkg/types"
)

const staleWriteAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionStore interface {
	ListDiners(ctx context.Context, sessionID uuid.UUID) ([]models.SessionDiner, error)
	TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
}

// Service maintains the derived pricing record for shared lines. Split
// prices are always recomputed wholesale from the owning line; no code path
// patches a stored value incrementally.
type Service interface {
	CreateSplit(ctx context.Context, lineID uuid.UUID, participants []string) (*SplitDTO, error)
	UpdateParticipants(ctx context.Context, lineID uuid.UUID, participants []string) (*SplitDTO, error)
	RecomputeSplit(ctx context.Context, lineID uuid.UUID) (*SplitDTO, error)
	RecomputeSplitTx(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error
	GetShareFor(ctx context.Context, lineID uuid.UUID, dinerName string) (*ShareDTO, error)
}

type service struct {
	repo     Repository
	sessions sessionStore
	tx       txRunner
	now      func() time.Time
}

// NewService builds a splits service with the required dependencies.
func NewService(repo Repository, sessions sessionStore, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("splits repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, sessions: sessions, tx: tx, now: time.Now}, nil
}

// CreateSplit marks a cart line shared and records its first ledger entry.
// Participants must be registered diners of the line's session.
func (s *service) CreateSplit(ctx context.Context, lineID uuid.UUID, participants []string) (*SplitDTO, error) {
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	clean, err := normalizeParticipants(participants)
	if err != nil {
		return nil, err
	}

	var entry *models.SplitEntry
	err = s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			line, err := s.findCartLine(ctx, repo, lineID)
			if err != nil {
				return err
			}
			if line.Split != nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "line is already split")
			}
			if err := s.requireSessionDiners(ctx, line.SessionID, clean); err != nil {
				return err
			}

			original := pricing.LineTotal(line.UnitPrice, line.Quantity)
			share, err := pricing.SplitShare(original, len(clean))
			if err != nil {
				return err
			}

			ok, err := repo.UpdateLineCAS(ctx, line.ID, line.Version, map[string]any{"is_shared": true})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark line shared")
			}
			if !ok {
				return staleLineError()
			}

			entry = &models.SplitEntry{
				ID:            uuid.New(),
				LineID:        line.ID,
				Participants:  clean,
				SplitCount:    len(clean),
				OriginalPrice: original,
				SplitPrice:    share,
			}
			if _, err := repo.CreateEntry(ctx, entry); err != nil {
				if db.IsUniqueViolation(err, "uq_split_entries_line") {
					return pkgerrors.New(pkgerrors.CodeConflict, "line is already split")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create split entry")
			}
			return s.sessions.TouchTx(ctx, tx, line.SessionID, s.now())
		})
	})
	if err != nil {
		return nil, err
	}
	return FromEntry(entry), nil
}

// UpdateParticipants replaces the participant list and recomputes pricing
// from the line's current quantity and unit price.
func (s *service) UpdateParticipants(ctx context.Context, lineID uuid.UUID, participants []string) (*SplitDTO, error) {
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	clean, err := normalizeParticipants(participants)
	if err != nil {
		return nil, err
	}

	var entry *models.SplitEntry
	err = s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			line, err := s.findCartLine(ctx, repo, lineID)
			if err != nil {
				return err
			}
			if line.Split == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "line is not split")
			}
			if err := s.requireSessionDiners(ctx, line.SessionID, clean); err != nil {
				return err
			}

			original := pricing.LineTotal(line.UnitPrice, line.Quantity)
			share, err := pricing.SplitShare(original, len(clean))
			if err != nil {
				return err
			}

			ok, err := repo.UpdateLineCAS(ctx, line.ID, line.Version, map[string]any{"is_shared": true})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "serialize line write")
			}
			if !ok {
				return staleLineError()
			}

			updated := *line.Split
			updated.Participants = clean
			updated.SplitCount = len(clean)
			updated.OriginalPrice = original
			updated.SplitPrice = share
			entry = &updated

			err = repo.UpdateEntry(ctx, line.Split.ID, map[string]any{
				"participants":   clean,
				"split_count":    len(clean),
				"original_price": original,
				"split_price":    share,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update split entry")
			}
			return s.sessions.TouchTx(ctx, tx, line.SessionID, s.now())
		})
	})
	if err != nil {
		return nil, err
	}
	return FromEntry(entry), nil
}

// RecomputeSplit rebuilds a split entry from its line's current state inside
// a fresh transaction, serialized against concurrent line writes.
func (s *service) RecomputeSplit(ctx context.Context, lineID uuid.UUID) (*SplitDTO, error) {
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}

	var entry *models.SplitEntry
	err := s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			line, err := s.findCartLine(ctx, repo, lineID)
			if err != nil {
				return err
			}
			if line.Split == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "line is not split")
			}

			ok, err := repo.UpdateLineCAS(ctx, line.ID, line.Version, nil)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "serialize line write")
			}
			if !ok {
				return staleLineError()
			}

			fresh, err := s.recomputeEntry(ctx, repo, line)
			if err != nil {
				return err
			}
			entry = fresh
			return s.sessions.TouchTx(ctx, tx, line.SessionID, s.now())
		})
	})
	if err != nil {
		return nil, err
	}
	return FromEntry(entry), nil
}

// RecomputeSplitTx rebuilds a split entry inside the caller's transaction.
// The caller must already have performed a compare-and-swap write on the
// line in the same transaction, which serializes this recompute against
// concurrent writers. Lines without an entry are left alone.
func (s *service) RecomputeSplitTx(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	repo := s.repo.WithTx(tx)

	line, err := repo.FindLineByID(ctx, lineID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.Split == nil {
		return nil
	}
	_, err = s.recomputeEntry(ctx, repo, line)
	return err
}

// GetShareFor returns one diner's share of a shared line. The stored share
// is verified against the line before it is served; drift surfaces as an
// error instead of an outdated amount.
func (s *service) GetShareFor(ctx context.Context, lineID uuid.UUID, dinerName string) (*ShareDTO, error) {
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	name := strings.TrimSpace(dinerName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "diner name required")
	}

	line, err := s.repo.FindLineByID(ctx, lineID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.Split == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line is not split")
	}
	if !line.Split.Participants.Contains(name) {
		return nil, pkgerrors.New(pkgerrors.CodeNotAParticipant, "diner is not a participant of this split").
			WithDetails(map[string]any{"diner_name": name})
	}

	original := pricing.LineTotal(line.UnitPrice, line.Quantity)
	if !pricing.Conserved(line.Split.SplitPrice, line.Split.SplitCount, original) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "split ledger is out of step with its line").
			WithDetails(map[string]any{"line_id": line.ID})
	}

	return &ShareDTO{
		LineID:    line.ID,
		DinerName: name,
		Share:     pricing.FormatAmount(line.Split.SplitPrice),
	}, nil
}

// recomputeEntry derives originalPrice and splitPrice from the line's
// current quantity and unit price and overwrites the stored entry.
func (s *service) recomputeEntry(ctx context.Context, repo Repository, line *models.CartLine) (*models.SplitEntry, error) {
	original := pricing.LineTotal(line.UnitPrice, line.Quantity)
	share, err := pricing.SplitShare(original, line.Split.SplitCount)
	if err != nil {
		return nil, err
	}

	err = repo.UpdateEntry(ctx, line.Split.ID, map[string]any{
		"original_price": original,
		"split_price":    share,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update split entry")
	}

	updated := *line.Split
	updated.OriginalPrice = original
	updated.SplitPrice = share
	return &updated, nil
}

func (s *service) findCartLine(ctx context.Context, repo Repository, lineID uuid.UUID) (*models.CartLine, error) {
	line, err := repo.FindLineByID(ctx, lineID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.Status != enums.LineStatusCart {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line is no longer in the cart")
	}
	return line, nil
}

func (s *service) requireSessionDiners(ctx context.Context, sessionID uuid.UUID, participants types.StringList) error {
	diners, err := s.sessions.ListDiners(ctx, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session diners")
	}
	registered := make(map[string]struct{}, len(diners))
	for _, diner := range diners {
		registered[diner.Name] = struct{}{}
	}
	for _, participant := range participants {
		if _, ok := registered[participant]; !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidSplit, "participant is not a diner of this session").
				WithDetails(map[string]any{"participant": participant})
		}
	}
	return nil
}

func (s *service) retryStale(fn func() error) error {
	var err error
	for attempt := 0; attempt < staleWriteAttempts; attempt++ {
		err = fn()
		if !pkgerrors.IsCode(err, pkgerrors.CodeStaleWrite) {
			return err
		}
	}
	return err
}

func staleLineError() error {
	return pkgerrors.New(pkgerrors.CodeStaleWrite, "line was modified concurrently")
}

func normalizeParticipants(raw []string) (types.StringList, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSplit, "participants required")
	}
	clean := make(types.StringList, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, value := range raw {
		name := strings.TrimSpace(value)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidSplit, "participant names cannot be blank")
		}
		if _, dup := seen[name]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidSplit, "duplicate participant").
				WithDetails(map[string]any{"participant": name})
		}
		seen[name] = struct{}{}
		clean = append(clean, name)
	}
	return clean, nil
}
