package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digistore/core/telegram/state"
	"digistore/internal/domain"
)

var shein = domain.Product{ID: "shein4k", Name: "Shein ₹4000 Account", Price: 5000, MinQty: 2}

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(NewStateStore(state.NewMemoryManager()), ttl)
}

func TestStartFreezesPrice(t *testing.T) {
	m := newTestManager(0)
	ctx := context.Background()

	sess, err := m.Start(ctx, 42, shein, 3)
	require.NoError(t, err)
	assert.Equal(t, "shein4k", sess.ProductID)
	assert.Equal(t, 3, sess.Quantity)
	assert.Equal(t, int64(15000), sess.TotalPrice)

	active, err := m.Active(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, sess, active)
	assert.True(t, m.InProgress(ctx, 42))
}

func TestStartBumpsQuantityToMinimum(t *testing.T) {
	m := newTestManager(0)

	sess, err := m.Start(context.Background(), 42, shein, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Quantity)
	assert.Equal(t, int64(10000), sess.TotalPrice)
}

func TestRestartReplacesSession(t *testing.T) {
	m := newTestManager(0)
	ctx := context.Background()

	_, err := m.Start(ctx, 42, shein, 2)
	require.NoError(t, err)

	gplay := domain.Product{ID: "gplay", Name: "Google Play ₹100 Card", Price: 10000, MinQty: 1}
	_, err = m.Start(ctx, 42, gplay, 1)
	require.NoError(t, err)

	active, err := m.Active(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "gplay", active.ProductID)
}

func TestCancelClosesSession(t *testing.T) {
	m := newTestManager(0)
	ctx := context.Background()

	_, err := m.Start(ctx, 42, shein, 2)
	require.NoError(t, err)

	sess, err := m.Active(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "shein4k", sess.ProductID)

	require.NoError(t, m.Cancel(ctx, 42))

	_, err = m.Active(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNoActiveCheckout)
	assert.False(t, m.InProgress(ctx, 42))
}

func TestCancelWithoutSessionIsNoop(t *testing.T) {
	m := newTestManager(0)
	assert.NoError(t, m.Cancel(context.Background(), 42))
}

func TestStaleSessionExpires(t *testing.T) {
	m := newTestManager(10 * time.Minute)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Start(ctx, 42, shein, 2)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.True(t, m.InProgress(ctx, 42))

	now = now.Add(6 * time.Minute)
	_, err = m.Active(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNoActiveCheckout)
}
