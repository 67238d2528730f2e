package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
)

type stubMenuRepo struct {
	items   map[uuid.UUID]*models.MenuItem
	created *models.MenuItem
}

func newStubMenuRepo() *stubMenuRepo {
	return &stubMenuRepo{items: map[uuid.UUID]*models.MenuItem{}}
}

func (s *stubMenuRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubMenuRepo) Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items[item.ID] = item
	s.created = item
	return item, nil
}

func (s *stubMenuRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubMenuRepo) List(ctx context.Context, filters ListFilters) ([]models.MenuItem, error) {
	out := make([]models.MenuItem, 0, len(s.items))
	for _, item := range s.items {
		if filters.AvailableOnly && !item.Available {
			continue
		}
		if filters.Category != nil && item.Category != *filters.Category {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubMenuRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	item, ok := s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if price, ok := updates["price"].(decimal.Decimal); ok {
		item.Price = price
	}
	if available, ok := updates["available"].(bool); ok {
		item.Available = available
	}
	if name, ok := updates["name"].(string); ok {
		item.Name = name
	}
	return nil
}

func TestMenuServiceCreateValidation(t *testing.T) {
	svc, err := NewService(newStubMenuRepo())
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	ctx := context.Background()

	_, err = svc.Create(ctx, CreateMenuItemInput{Name: "  ", Category: "mains"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	_, err = svc.Create(ctx, CreateMenuItemInput{Name: "Seswaa", Category: ""})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank category, got %v", err)
	}

	_, err = svc.Create(ctx, CreateMenuItemInput{
		Name:     "Seswaa",
		Category: "mains",
		Price:    decimal.RequireFromString("-1"),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestMenuServiceCreateDefaultsAvailable(t *testing.T) {
	repo := newStubMenuRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateMenuItemInput{
		Name:     "Seswaa Platter",
		Category: "mains",
		Price:    decimal.RequireFromString("85.00"),
		Options:  []string{"pap", "samp"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !dto.Available {
		t.Fatalf("expected new item to default available")
	}
	if dto.Price != "85.00" {
		t.Fatalf("expected price 85.00, got %s", dto.Price)
	}
	if repo.created == nil || repo.created.Name != "Seswaa Platter" {
		t.Fatalf("expected repo to receive the created item")
	}
}

func TestMenuServiceGetByIDNotFound(t *testing.T) {
	svc, _ := NewService(newStubMenuRepo())

	_, err := svc.GetByID(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMenuServiceUpdateTogglesAvailability(t *testing.T) {
	repo := newStubMenuRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateMenuItemInput{
		Name:     "Ginger Beer",
		Category: "drinks",
		Price:    decimal.RequireFromString("18.00"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	off := false
	updated, err := svc.Update(ctx, created.ID, UpdateMenuItemInput{Available: &off})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Available {
		t.Fatalf("expected item to be unavailable after update")
	}
}
