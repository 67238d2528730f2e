package tables

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/auth"
	"github.com/pulanodus/tableserve-backend/pkg/config"
	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
)

const defaultSeats = 4

// Service defines table management and QR resolution operations.
type Service interface {
	CreateTable(ctx context.Context, input CreateTableInput) (*TableDTO, error)
	GetTable(ctx context.Context, id uuid.UUID) (*TableDTO, error)
	ListTables(ctx context.Context) ([]TableDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*TableDTO, error)
	QRToken(ctx context.Context, id uuid.UUID) (*TableDTO, error)
	ResolveQRToken(ctx context.Context, token string) (*models.RestaurantTable, error)
}

type service struct {
	repo   Repository
	tokens config.TableTokenConfig
	now    func() time.Time
}

// NewService builds a tables service with the required dependencies.
func NewService(repo Repository, tokens config.TableTokenConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	if tokens.Secret == "" {
		return nil, fmt.Errorf("table token secret required")
	}
	return &service{repo: repo, tokens: tokens, now: time.Now}, nil
}

func (s *service) CreateTable(ctx context.Context, input CreateTableInput) (*TableDTO, error) {
	if input.Number <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table number must be positive")
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = fmt.Sprintf("Table %d", input.Number)
	}
	seats := input.Seats
	if seats <= 0 {
		seats = defaultSeats
	}

	table := &models.RestaurantTable{
		Number: input.Number,
		Label:  label,
		Seats:  seats,
		Active: true,
	}
	created, err := s.repo.Create(ctx, table)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "table number already registered").
				WithDetails(map[string]any{"number": input.Number})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create table")
	}
	return s.withToken(created)
}

func (s *service) GetTable(ctx context.Context, id uuid.UUID) (*TableDTO, error) {
	table, err := s.findTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(table), nil
}

func (s *service) ListTables(ctx context.Context) ([]TableDTO, error) {
	tables, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	return FromModels(tables), nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*TableDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if err := s.repo.Update(ctx, id, map[string]any{"active": active}); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update table")
	}
	return s.GetTable(ctx, id)
}

// QRToken returns the table with a freshly minted QR payload. Tokens carry
// no expiry; reprinting yields a new token id but old prints keep working
// until the table is deactivated.
func (s *service) QRToken(ctx context.Context, id uuid.UUID) (*TableDTO, error) {
	table, err := s.findTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withToken(table)
}

// ResolveQRToken verifies a scanned QR payload and returns the live table
// row. Tampered or unknown tokens read as an invalid code; a known table
// that has been deactivated is reported as such.
func (s *service) ResolveQRToken(ctx context.Context, token string) (*models.RestaurantTable, error) {
	claims, err := auth.ParseTableToken(s.tokens, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid table code")
	}

	table, err := s.repo.FindByID(ctx, claims.TableID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid table code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	if !table.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "table is not accepting sessions")
	}
	return table, nil
}

func (s *service) findTable(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	table, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	return table, nil
}

func (s *service) withToken(table *models.RestaurantTable) (*TableDTO, error) {
	token, err := auth.MintTableToken(s.tokens, s.now(), auth.TableTokenPayload{
		TableID:     table.ID,
		TableNumber: table.Number,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint table token")
	}
	dto := FromModel(table)
	dto.QRToken = token
	return dto, nil
}
