package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digistore/internal/domain"
)

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SeedProducts([]domain.Product{
		{ID: "flipkart", Name: "Flipkart ₹100 Voucher", Price: 10000, MinQty: 1, Stock: []string{"c1", "c2"}},
	}))

	require.NoError(t, f.UpsertUser(ctx, domain.User{ID: 9, Username: "buyer", FirstSeen: time.Now().UTC()}))
	require.NoError(t, f.CreateOrder(ctx, domain.Order{
		ID:          "o1",
		UserID:      9,
		ProductID:   "flipkart",
		ProductName: "Flipkart ₹100 Voucher",
		Quantity:    1,
		TotalPrice:  10000,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}))
	_, err = f.TakeStock(ctx, "flipkart", 1)
	require.NoError(t, err)

	reopened, err := OpenFile(path)
	require.NoError(t, err)

	p, err := reopened.GetProduct(ctx, "flipkart")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, p.Stock)

	o, err := reopened.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, int64(10000), o.TotalPrice)

	users, err := reopened.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "buyer", users[0].Username)
}

func TestFileStoreSeedDoesNotResetStock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	seed := []domain.Product{{ID: "gplay", Name: "Google Play ₹100 Card", Price: 10000, MinQty: 1}}

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SeedProducts(seed))
	_, err = f.AddStock(context.Background(), "gplay", []string{"code"})
	require.NoError(t, err)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, reopened.SeedProducts(seed))

	p, err := reopened.GetProduct(context.Background(), "gplay")
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, p.Stock)
}

func TestFileStoreWithTxRollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SeedProducts([]domain.Product{
		{ID: "gplay", Name: "Google Play ₹100 Card", Price: 10000, MinQty: 1, Stock: []string{"keep"}},
	}))

	boom := errors.New("boom")
	err = f.WithTx(ctx, func(ctx context.Context, s Store) error {
		if _, err := s.TakeStock(ctx, "gplay", 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	p, err := reopened.GetProduct(ctx, "gplay")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, p.Stock)
}

func TestSnapshotShapeOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SeedProducts([]domain.Product{
		{ID: "gplay", Name: "Google Play ₹100 Card", Price: 10000, MinQty: 1, Stock: []string{"c"}},
	}))
	require.NoError(t, f.UpsertUser(context.Background(), domain.User{ID: 42, Username: "buyer"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc["users"], "42")
	assert.Contains(t, doc["products"], "gplay")
	assert.NotNil(t, doc["orders"])
}

func TestOpenFileRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenFile(path)
	assert.Error(t, err)
}
