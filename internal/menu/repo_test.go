package menu

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/types"
)

func setupMenuTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	createMenuItems := `
CREATE TABLE IF NOT EXISTS menu_items (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	price NUMERIC NOT NULL,
	available INTEGER NOT NULL DEFAULT 1,
	options TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME,
	updated_at DATETIME
)`
	require.NoError(t, conn.Exec(createMenuItems).Error)
	return conn
}

func newMenuItem(t *testing.T, conn *gorm.DB, name, category string, price string, available bool) *models.MenuItem {
	t.Helper()

	item := &models.MenuItem{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Price:     decimal.RequireFromString(price),
		Available: available,
		Options:   types.StringList{"extra sauce"},
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func TestMenuRepositoryListFilters(t *testing.T) {
	conn := setupMenuTestDB(t, "menu_repo_list")
	repo := NewRepository(conn)
	ctx := context.Background()

	newMenuItem(t, conn, "Seswaa Platter", "mains", "85.00", true)
	newMenuItem(t, conn, "Oxtail Stew", "mains", "98.50", false)
	newMenuItem(t, conn, "Ginger Beer", "drinks", "18.00", true)

	all, err := repo.List(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	available, err := repo.List(ctx, ListFilters{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 2)
	for _, item := range available {
		assert.True(t, item.Available)
	}

	category := "mains"
	mains, err := repo.List(ctx, ListFilters{Category: &category})
	require.NoError(t, err)
	require.Len(t, mains, 2)
	assert.Equal(t, "Oxtail Stew", mains[0].Name)
	assert.Equal(t, "Seswaa Platter", mains[1].Name)
}

func TestMenuRepositoryFindByID(t *testing.T) {
	conn := setupMenuTestDB(t, "menu_repo_find")
	repo := NewRepository(conn)
	ctx := context.Background()

	created := newMenuItem(t, conn, "Morogo", "sides", "22.00", true)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("22.00")))
	assert.Equal(t, types.StringList{"extra sauce"}, found.Options)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMenuRepositoryUpdate(t *testing.T) {
	conn := setupMenuTestDB(t, "menu_repo_update")
	repo := NewRepository(conn)
	ctx := context.Background()

	created := newMenuItem(t, conn, "Bogobe", "mains", "40.00", true)

	err := repo.Update(ctx, created.ID, map[string]any{
		"price":     decimal.RequireFromString("44.50"),
		"available": false,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("44.50")))
	assert.False(t, found.Available)

	err = repo.Update(ctx, uuid.New(), map[string]any{"available": true})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
