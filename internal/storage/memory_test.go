package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digistore/internal/domain"
)

func seededMemory(stock ...string) *Memory {
	m := NewMemory()
	m.SeedProducts([]domain.Product{
		{ID: "gplay", Name: "Google Play ₹100 Card", Price: 10000, MinQty: 1, Stock: stock},
	})
	return m
}

func TestTakeStockIsFIFO(t *testing.T) {
	m := seededMemory("first", "second", "third")
	ctx := context.Background()

	codes, err := m.TakeStock(ctx, "gplay", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, codes)

	codes, err = m.TakeStock(ctx, "gplay", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"third"}, codes)
}

func TestTakeStockNeverPartial(t *testing.T) {
	m := seededMemory("only")
	ctx := context.Background()

	_, err := m.TakeStock(ctx, "gplay", 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	p, err := m.GetProduct(ctx, "gplay")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, p.Stock)
}

func TestAddStockAppendsToTail(t *testing.T) {
	m := seededMemory("old")
	ctx := context.Background()

	_, err := m.AddStock(ctx, "gplay", []string{"new-1", "new-2"})
	require.NoError(t, err)

	codes, err := m.TakeStock(ctx, "gplay", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "new-1", "new-2"}, codes)
}

func TestStockOpsOnUnknownProduct(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.TakeStock(ctx, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)

	_, err = m.AddStock(ctx, "ghost", []string{"x"})
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)

	_, err = m.GetProduct(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestUpsertUserKeepsFirstSeen(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.UpsertUser(ctx, domain.User{ID: 7, Username: "old", FirstSeen: seen}))
	require.NoError(t, m.UpsertUser(ctx, domain.User{ID: 7, Username: "renamed", FirstSeen: seen.Add(time.Hour)}))

	users, err := m.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "renamed", users[0].Username)
	assert.Equal(t, seen, users[0].FirstSeen)
}

func TestSetOrderStatusOnlyLeavesPending(t *testing.T) {
	m := seededMemory("a")
	ctx := context.Background()

	require.NoError(t, m.CreateOrder(ctx, domain.Order{ID: "o1", ProductID: "gplay", Status: domain.StatusPending}))
	require.NoError(t, m.SetOrderStatus(ctx, "o1", domain.StatusApproved))

	err := m.SetOrderStatus(ctx, "o1", domain.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	o, err := m.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, o.Status)

	err = m.SetOrderStatus(ctx, "missing", domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	m := seededMemory("a", "b")
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(ctx context.Context, s Store) error {
		if _, err := s.TakeStock(ctx, "gplay", 2); err != nil {
			return err
		}
		if err := s.CreateOrder(ctx, domain.Order{ID: "o1", ProductID: "gplay", Status: domain.StatusPending}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := m.GetProduct(ctx, "gplay")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Stock)

	_, err = m.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	m := seededMemory("a")
	ctx := context.Background()

	err := m.WithTx(ctx, func(ctx context.Context, s Store) error {
		if _, err := s.TakeStock(ctx, "gplay", 1); err != nil {
			return err
		}
		return s.CreateOrder(ctx, domain.Order{ID: "o1", ProductID: "gplay", Status: domain.StatusApproved})
	})
	require.NoError(t, err)

	p, err := m.GetProduct(ctx, "gplay")
	require.NoError(t, err)
	assert.Empty(t, p.Stock)

	o, err := m.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, o.Status)
}

func TestWithTxNests(t *testing.T) {
	m := seededMemory("a")
	ctx := context.Background()

	err := m.WithTx(ctx, func(ctx context.Context, s Store) error {
		return s.WithTx(ctx, func(ctx context.Context, s Store) error {
			_, err := s.TakeStock(ctx, "gplay", 1)
			return err
		})
	})
	require.NoError(t, err)

	p, err := m.GetProduct(ctx, "gplay")
	require.NoError(t, err)
	assert.Empty(t, p.Stock)
}
