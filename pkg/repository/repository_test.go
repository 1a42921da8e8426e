package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smallbiznis/ftzflow/pkg/db/option"
)

type lotRow struct {
	ID       int64 `gorm:"primaryKey"`
	Code     string
	Quantity int64
}

func setupStore(t *testing.T) (*gorm.DB, Repository[lotRow]) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&lotRow{}))
	return conn, ProvideStore[lotRow](conn)
}

func TestStoreFindByIDs(t *testing.T) {
	ctx := context.Background()
	_, store := setupStore(t)
	for _, row := range []lotRow{{ID: 1, Code: "A", Quantity: 5}, {ID: 2, Code: "B", Quantity: 7}} {
		row := row
		require.NoError(t, store.Create(ctx, &row))
	}

	rows, err := store.FindByIDs(ctx, []int64{2, 1, 99}, option.WithOrder("id asc"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Code)
	assert.Equal(t, "B", rows[1].Code)

	rows, err = store.FindByIDs(ctx, []int64{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStoreFindByIDMissIsNil(t *testing.T) {
	_, store := setupStore(t)
	row, err := store.FindByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestStoreLockAndUpdateInTransaction(t *testing.T) {
	ctx := context.Background()
	conn, store := setupStore(t)
	require.NoError(t, store.Create(ctx, &lotRow{ID: 3, Code: "C", Quantity: 10}))

	err := conn.Transaction(func(tx *gorm.DB) error {
		row, err := store.WithTrx(tx).LockByID(ctx, 3)
		if err != nil {
			return err
		}
		_, err = store.WithTrx(tx).Update(ctx, row.ID, map[string]any{"quantity": row.Quantity - 4})
		return err
	})
	require.NoError(t, err)

	row, err := store.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(6), row.Quantity)
}
