package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/outbox"
	"github.com/pulanodus/tableserve-backend/pkg/outbox/payloads"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
)

const staleWriteAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type menuCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type sessionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error)
	TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
}

type tableReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error)
}

type splitRecomputer interface {
	RecomputeSplitTx(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error
}

// AddItemInput captures one add-to-cart request.
type AddItemInput struct {
	SessionID      uuid.UUID
	DinerName      string
	MenuItemID     uuid.UUID
	Notes          string
	IsShared       bool
	IsTakeaway     bool
	Customizations []string
}

// Service exposes cart mutations and reads. Quantity changes on shared lines
// recompute the split ledger in the same transaction; a mutation response
// always carries the fresh line state so clients replace instead of patch.
type Service interface {
	AddItem(ctx context.Context, in AddItemInput) (*CartLineDTO, error)
	// SetQuantity with a non-positive quantity removes the line and returns
	// a nil DTO.
	SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*CartLineDTO, error)
	RemoveItem(ctx context.Context, lineID uuid.UUID) error
	ClearCart(ctx context.Context, sessionID uuid.UUID) (int64, error)
	ConfirmCart(ctx context.Context, sessionID uuid.UUID, confirmedBy string) (*ConfirmResultDTO, error)
	GetCart(ctx context.Context, sessionID uuid.UUID) ([]CartLineDTO, error)
}

type service struct {
	repo     Repository
	menu     menuCatalog
	sessions sessionStore
	tables   tableReader
	splitter splitRecomputer
	tx       txRunner
	outbox   outboxPublisher
	vatRate  decimal.Decimal
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(
	repo Repository,
	menu menuCatalog,
	sessions sessionStore,
	tables tableReader,
	splitter splitRecomputer,
	tx txRunner,
	events outboxPublisher,
	vatRate decimal.Decimal,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if menu == nil {
		return nil, fmt.Errorf("menu catalog required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if tables == nil {
		return nil, fmt.Errorf("table reader required")
	}
	if splitter == nil {
		return nil, fmt.Errorf("split recomputer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if vatRate.IsNegative() {
		return nil, fmt.Errorf("vat rate cannot be negative")
	}
	return &service{
		repo:     repo,
		menu:     menu,
		sessions: sessions,
		tables:   tables,
		splitter: splitter,
		tx:       tx,
		outbox:   events,
		vatRate:  vatRate,
		now:      time.Now,
	}, nil
}

// AddItem merges into an existing line when the identity key matches exactly,
// incrementing quantity by one at the line's original unit price; otherwise
// it creates a new line at the current menu price.
func (s *service) AddItem(ctx context.Context, in AddItemInput) (*CartLineDTO, error) {
	if in.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	dinerName := strings.TrimSpace(in.DinerName)
	if dinerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "diner name required")
	}
	if in.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
	}

	session, err := s.openSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if !sessionHasDiner(session, dinerName) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "diner is not registered in this session")
	}

	item, err := s.menu.FindByID(ctx, in.MenuItemID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "menu item is unavailable")
	}

	notes := strings.TrimSpace(in.Notes)
	customizations := normalizeCustomizations(in.Customizations)
	hash := OptionsHash(notes, in.IsShared, in.IsTakeaway, customizations)

	var result *models.CartLine
	err = s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			candidates, err := repo.FindCartLinesByIdentity(ctx, in.SessionID, dinerName, in.MenuItemID, hash)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find matching lines")
			}

			var match *models.CartLine
			for i := range candidates {
				if optionsMatch(&candidates[i], notes, in.IsShared, in.IsTakeaway, customizations) {
					match = &candidates[i]
					break
				}
			}

			var lineID uuid.UUID
			if match != nil {
				ok, err := repo.UpdateLineCAS(ctx, match.ID, match.Version, map[string]any{"quantity": match.Quantity + 1})
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment quantity")
				}
				if !ok {
					return staleLineError()
				}
				if match.IsShared {
					if err := s.splitter.RecomputeSplitTx(ctx, tx, match.ID); err != nil {
						return err
					}
				}
				lineID = match.ID
			} else {
				line := &models.CartLine{
					ID:             uuid.New(),
					SessionID:      in.SessionID,
					DinerName:      dinerName,
					MenuItemID:     in.MenuItemID,
					OptionsHash:    hash,
					Quantity:       1,
					UnitPrice:      item.Price,
					Notes:          notes,
					IsShared:       in.IsShared,
					IsTakeaway:     in.IsTakeaway,
					Customizations: customizations,
					Status:         enums.LineStatusCart,
				}
				if _, err := repo.CreateLine(ctx, line); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
				}
				lineID = line.ID
			}

			if err := s.sessions.TouchTx(ctx, tx, in.SessionID, s.now()); err != nil {
				return err
			}

			fresh, err := repo.FindLineByID(ctx, lineID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart line")
			}
			result = fresh
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*CartLineDTO, error) {
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, lineID)
	}

	var result *models.CartLine
	err := s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			line, err := s.findCartLine(ctx, repo, lineID)
			if err != nil {
				return err
			}

			ok, err := repo.UpdateLineCAS(ctx, line.ID, line.Version, map[string]any{"quantity": quantity})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quantity")
			}
			if !ok {
				return staleLineError()
			}

			if line.IsShared {
				if err := s.splitter.RecomputeSplitTx(ctx, tx, line.ID); err != nil {
					return err
				}
			}
			if err := s.sessions.TouchTx(ctx, tx, line.SessionID, s.now()); err != nil {
				return err
			}

			fresh, err := repo.FindLineByID(ctx, line.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart line")
			}
			result = fresh
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) RemoveItem(ctx context.Context, lineID uuid.UUID) error {
	if lineID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}

	return s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			line, err := s.findCartLine(ctx, repo, lineID)
			if err != nil {
				return err
			}

			if err := repo.DeleteSplitByLine(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete split entry")
			}
			ok, err := repo.DeleteLineCAS(ctx, line.ID, line.Version)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
			}
			if !ok {
				return staleLineError()
			}
			return s.sessions.TouchTx(ctx, tx, line.SessionID, s.now())
		})
	})
}

func (s *service) ClearCart(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if _, err := s.openSession(ctx, sessionID); err != nil {
		return 0, err
	}

	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		count, err := s.repo.ClearCartTx(ctx, tx, sessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		removed = count
		return s.sessions.TouchTx(ctx, tx, sessionID, s.now())
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ConfirmCart promotes every cart-status line of the session to confirmed in
// one transaction and queues the order event. The whole batch succeeds or
// none of it does; a cart edited mid-confirmation retries from a fresh
// snapshot.
func (s *service) ConfirmCart(ctx context.Context, sessionID uuid.UUID, confirmedBy string) (*ConfirmResultDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	confirmer := strings.TrimSpace(confirmedBy)
	if confirmer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "confirming diner required")
	}

	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Diners) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfirmation, "session has no diners")
	}
	if !sessionHasDiner(session, confirmer) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "diner is not registered in this session")
	}

	table, err := s.tables.FindByID(ctx, session.TableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}

	var result *ConfirmResultDTO
	err = s.retryStale(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			lines, err := repo.ListBySession(ctx, sessionID, enums.LineStatusCart)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
			}
			if len(lines) == 0 {
				return pkgerrors.New(pkgerrors.CodeConfirmation, "cart is empty")
			}

			lineIDs := make([]uuid.UUID, 0, len(lines))
			for i := range lines {
				lineIDs = append(lineIDs, lines[i].ID)
			}

			confirmedAt := s.now()
			affected, err := repo.ConfirmLinesByID(ctx, sessionID, lineIDs, confirmedAt)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm cart lines")
			}
			if affected != int64(len(lineIDs)) {
				return pkgerrors.New(pkgerrors.CodeStaleWrite, "cart changed during confirmation")
			}

			event := buildOrderConfirmedEvent(session, table, confirmer, lines, confirmedAt, s.vatRate)
			err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderConfirmed,
				AggregateType: enums.AggregateDiningSession,
				AggregateID:   sessionID,
				Actor:         &outbox.ActorRef{Diner: confirmer, Role: "diner"},
				Data:          event,
				Version:       1,
				OccurredAt:    confirmedAt,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue confirmation event")
			}

			if err := s.sessions.TouchTx(ctx, tx, sessionID, confirmedAt); err != nil {
				return err
			}

			for i := range lines {
				at := confirmedAt
				lines[i].Status = enums.LineStatusConfirmed
				lines[i].ConfirmedAt = &at
				lines[i].Version++
			}
			result = &ConfirmResultDTO{
				SessionID:     sessionID,
				ConfirmedBy:   confirmer,
				ConfirmedAt:   confirmedAt,
				Lines:         FromModels(lines),
				SubtotalCents: event.SubtotalCents,
				VATCents:      event.VATCents,
				TotalCents:    event.TotalCents,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetCart(ctx context.Context, sessionID uuid.UUID) ([]CartLineDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	lines, err := s.repo.ListBySession(ctx, sessionID, enums.LineStatusCart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	return FromModels(lines), nil
}

func buildOrderConfirmedEvent(
	session *models.DiningSession,
	table *models.RestaurantTable,
	confirmedBy string,
	lines []models.CartLine,
	confirmedAt time.Time,
	vatRate decimal.Decimal,
) payloads.OrderConfirmedEvent {
	confirmed := make([]payloads.ConfirmedLine, 0, len(lines))
	subtotal := decimal.Zero
	for i := range lines {
		line := &lines[i]
		total := pricing.LineTotal(line.UnitPrice, line.Quantity)
		subtotal = subtotal.Add(total)

		itemName := ""
		if line.MenuItem != nil {
			itemName = line.MenuItem.Name
		}
		confirmed = append(confirmed, payloads.ConfirmedLine{
			LineID:         line.ID,
			DinerName:      line.DinerName,
			MenuItemID:     line.MenuItemID,
			ItemName:       itemName,
			Quantity:       line.Quantity,
			UnitPriceCents: pricing.Cents(line.UnitPrice),
			LineTotalCents: pricing.Cents(total),
			IsShared:       line.IsShared,
			IsTakeaway:     line.IsTakeaway,
			Notes:          line.Notes,
			Customizations: line.Customizations,
		})
	}

	return payloads.OrderConfirmedEvent{
		SessionID:     session.ID,
		TableID:       session.TableID,
		TableNumber:   table.Number,
		ConfirmedBy:   confirmedBy,
		Lines:         confirmed,
		SubtotalCents: pricing.Cents(subtotal),
		VATCents:      pricing.Cents(pricing.VATPortion(subtotal, vatRate)),
		TotalCents:    pricing.Cents(pricing.WithVAT(subtotal, vatRate)),
		ConfirmedAt:   confirmedAt,
	}
}

func (s *service) openSession(ctx context.Context, sessionID uuid.UUID) (*models.DiningSession, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.SessionStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}
	return session, nil
}

func (s *service) loadSession(ctx context.Context, sessionID uuid.UUID) (*models.DiningSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return session, nil
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

func sessionHasDiner(session *models.DiningSession, name string) bool {
	for _, diner := range session.Diners {
		if diner.Name == name {
			return true
		}
	}
	return false
}
