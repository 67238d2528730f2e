package tables

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

func setupTablesTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	createTables := `
CREATE TABLE IF NOT EXISTS restaurant_tables (
	id TEXT PRIMARY KEY,
	number INTEGER NOT NULL,
	label TEXT NOT NULL,
	seats INTEGER NOT NULL DEFAULT 4,
	active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME,
	updated_at DATETIME
)`
	require.NoError(t, conn.Exec(createTables).Error)
	require.NoError(t, conn.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_restaurant_tables_number ON restaurant_tables (number)`,
	).Error)
	return conn
}

func newRestaurantTable(t *testing.T, conn *gorm.DB, number int, active bool) *models.RestaurantTable {
	t.Helper()

	table := &models.RestaurantTable{
		ID:     uuid.New(),
		Number: number,
		Label:  fmt.Sprintf("Table %d", number),
		Seats:  4,
		Active: active,
	}
	require.NoError(t, conn.Create(table).Error)
	return table
}

func TestTablesRepositoryCreateDuplicateNumber(t *testing.T) {
	conn := setupTablesTestDB(t, "tables_repo_dup")
	repo := NewRepository(conn)
	ctx := context.Background()

	newRestaurantTable(t, conn, 7, true)

	_, err := repo.Create(ctx, &models.RestaurantTable{
		ID:     uuid.New(),
		Number: 7,
		Label:  "Table 7 again",
		Seats:  2,
		Active: true,
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestTablesRepositoryListOrdersByNumber(t *testing.T) {
	conn := setupTablesTestDB(t, "tables_repo_list")
	repo := NewRepository(conn)
	ctx := context.Background()

	newRestaurantTable(t, conn, 12, true)
	newRestaurantTable(t, conn, 3, false)
	newRestaurantTable(t, conn, 8, true)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, 3, listed[0].Number)
	assert.Equal(t, 8, listed[1].Number)
	assert.Equal(t, 12, listed[2].Number)
}

func TestTablesRepositoryUpdateActive(t *testing.T) {
	conn := setupTablesTestDB(t, "tables_repo_update")
	repo := NewRepository(conn)
	ctx := context.Background()

	table := newRestaurantTable(t, conn, 5, true)

	require.NoError(t, repo.Update(ctx, table.ID, map[string]any{"active": false}))

	found, err := repo.FindByID(ctx, table.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	err = repo.Update(ctx, uuid.New(), map[string]any{"active": true})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
