package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-labs/magicshop/internal/config"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(context.Background(), db, "sqlite"))
	return db
}

func sampleProduct() *Product {
	return &Product{
		Name:        "Dragon Fire Sword",
		Description: "A blade forged in dragon fire.",
		ImagePath:   "",
		Price:       "10000 Gold Coins",
		Category:    "Weapons",
		Tags:        []string{"dragon", "fire", "sword", "legendary"},
		Rarity:      "Legendary",
	}
}

func TestInsertAssignsIDAndCreatedAt(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)

	product := sampleProduct()
	require.NoError(t, repo.Insert(context.Background(), product))

	assert.Greater(t, product.ID, int64(0))
	assert.False(t, product.CreatedAt.IsZero())
}

func TestGetByIDRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	inserted := sampleProduct()
	require.NoError(t, repo.Insert(ctx, inserted))

	got, err := repo.GetByID(ctx, inserted.ID)
	require.NoError(t, err)

	assert.Equal(t, "Dragon Fire Sword", got.Name)
	assert.Equal(t, "Weapons", got.Category)
	assert.Equal(t, []string{"dragon", "fire", "sword", "legendary"}, got.Tags)
	assert.Equal(t, "Legendary", got.Rarity)
	assert.Equal(t, "10000 Gold Coins", got.Price)
	assert.Equal(t, inserted.Description, got.Description)
}

func TestGetByIDMissing(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)

	_, err := repo.GetByID(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAllEmpty(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)

	products, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
}

func TestListAllNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	names := []string{"Elder Wand", "Frost Amulet", "Phoenix Quill"}
	for _, name := range names {
		product := sampleProduct()
		product.Name = name
		require.NoError(t, repo.Insert(ctx, product))
		time.Sleep(5 * time.Millisecond) // distinct created_at
	}

	products, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "Phoenix Quill", products[0].Name)
	assert.Equal(t, "Frost Amulet", products[1].Name)
	assert.Equal(t, "Elder Wand", products[2].Name)

	for i := 1; i < len(products); i++ {
		assert.False(t, products[i-1].CreatedAt.Before(products[i].CreatedAt))
	}
}

func TestSetImagePath(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := sampleProduct()
	require.NoError(t, repo.Insert(ctx, product))

	require.NoError(t, repo.SetImagePath(ctx, product.ID, "/images/1_20260101_120000.jpg"))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "/images/1_20260101_120000.jpg", got.ImagePath)
}

func TestSetImagePathMissing(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)

	err := repo.SetImagePath(context.Background(), 999, "/images/x.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertInsideTransactionInvisibleUntilCommit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	txRepo := NewProductRepository(tx)
	product := sampleProduct()
	require.NoError(t, txRepo.Insert(ctx, product))
	assert.Greater(t, product.ID, int64(0))

	require.NoError(t, tx.Rollback())

	products, err := NewProductRepository(db).ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}
