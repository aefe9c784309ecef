package checkout

import (
	"context"
	"log/slog"
	"time"

	"digistore/core/logger"
	"digistore/internal/domain"
)

// Manager runs the checkout flow. Starting a new checkout replaces any
// earlier unfinished one; a session older than the configured TTL counts as
// abandoned.
type Manager struct {
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewManager wires a session store. ttl of zero disables expiry.
func NewManager(sessions SessionStore, ttl time.Duration) *Manager {
	return &Manager{sessions: sessions, ttl: ttl, now: time.Now}
}

// Start opens a checkout session with the price frozen at selection time.
func (m *Manager) Start(ctx context.Context, userID int64, p domain.Product, qty int) (domain.Session, error) {
	if qty < p.MinQty {
		qty = p.MinQty
	}
	sess := domain.Session{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		TotalPrice:  p.Price * int64(qty),
		StartedAt:   m.now(),
	}
	if err := m.sessions.Put(ctx, userID, sess); err != nil {
		return domain.Session{}, err
	}
	logger.LogEvent(ctx, logger.SVCCheckout, slog.LevelInfo, "checkout.started",
		slog.Int64("user_id", userID),
		slog.String("product_id", p.ID),
		slog.Int("quantity", qty),
	)
	return sess, nil
}

// Active returns the user's live session, expiring stale ones on the way.
func (m *Manager) Active(ctx context.Context, userID int64) (domain.Session, error) {
	sess, err := m.sessions.Get(ctx, userID)
	if err != nil {
		return domain.Session{}, err
	}
	if m.ttl > 0 && m.now().Sub(sess.StartedAt) > m.ttl {
		_ = m.sessions.Delete(ctx, userID)
		logger.LogEvent(ctx, logger.SVCCheckout, slog.LevelDebug, "checkout.expired",
			slog.Int64("user_id", userID),
			slog.String("product_id", sess.ProductID),
		)
		return domain.Session{}, domain.ErrNoActiveCheckout
	}
	return sess, nil
}

// InProgress reports whether the user has a live checkout session.
func (m *Manager) InProgress(ctx context.Context, userID int64) bool {
	_, err := m.Active(ctx, userID)
	return err == nil
}

// Cancel drops the session without creating an order. Cancelling when no
// checkout is active is not an error.
func (m *Manager) Cancel(ctx context.Context, userID int64) error {
	return m.sessions.Delete(ctx, userID)
}
