// Package orders owns the order lifecycle: creation from a checkout session,
// admin approval with stock delivery, and rejection.
package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"digistore/core/logger"
	"digistore/internal/domain"
	"digistore/internal/storage"
)

// Engine drives order state transitions against the store. Approve and
// Reject are the only paths out of PENDING and each order leaves it at most
// once.
type Engine struct {
	store storage.Store
	now   func() time.Time
	newID func() string
}

func NewEngine(store storage.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// CreateRequest carries everything needed to open a PENDING order. Name and
// total are frozen here: later catalog edits never reprice an open order.
type CreateRequest struct {
	UserID      int64
	Username    string
	ProductID   string
	ProductName string
	Quantity    int
	TotalPrice  int64
	ProofRef    string
}

// Create records a new PENDING order and returns it.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (domain.Order, error) {
	if req.ProductName == "" || req.TotalPrice == 0 {
		p, err := e.store.GetProduct(ctx, req.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if req.Quantity < p.MinQty {
			req.Quantity = p.MinQty
		}
		req.ProductName = p.Name
		req.TotalPrice = p.Price * int64(req.Quantity)
	}

	o := domain.Order{
		ID:          e.newID(),
		UserID:      req.UserID,
		Username:    req.Username,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		TotalPrice:  req.TotalPrice,
		Status:      domain.StatusPending,
		ProofRef:    req.ProofRef,
		CreatedAt:   e.now(),
	}
	if err := e.store.CreateOrder(ctx, o); err != nil {
		return domain.Order{}, err
	}

	logger.LogEvent(ctx, logger.SVCOrders, slog.LevelInfo, "order.created",
		slog.String("order_id", o.ID),
		slog.Int64("user_id", o.UserID),
		slog.String("product_id", o.ProductID),
		slog.Int("quantity", o.Quantity),
		slog.Int64("total_price", o.TotalPrice),
	)
	return o, nil
}

// Get looks up one order.
func (e *Engine) Get(ctx context.Context, id string) (domain.Order, error) {
	return e.store.GetOrder(ctx, id)
}

// Approve flips a PENDING order to APPROVED and debits its codes from stock.
// The status check, the debit and the flip run in one transaction, so either
// the order is APPROVED with exactly Quantity codes removed or nothing
// changed at all. On ErrInsufficientStock the order stays PENDING and the
// admin can retry after restocking.
func (e *Engine) Approve(ctx context.Context, orderID string) (domain.Delivery, error) {
	var d domain.Delivery
	err := e.store.WithTx(ctx, func(ctx context.Context, s storage.Store) error {
		o, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}

		codes, err := s.TakeStock(ctx, o.ProductID, o.Quantity)
		if err != nil {
			return err
		}
		if err := s.SetOrderStatus(ctx, orderID, domain.StatusApproved); err != nil {
			return err
		}

		o.Status = domain.StatusApproved
		d = domain.Delivery{Order: o, Codes: codes}
		return nil
	})
	if err != nil {
		logger.LogEvent(ctx, logger.SVCOrders, slog.LevelWarn, "order.approve_failed",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return domain.Delivery{}, err
	}

	logger.LogEvent(ctx, logger.SVCOrders, slog.LevelInfo, "order.approved",
		slog.String("order_id", orderID),
		slog.Int64("user_id", d.Order.UserID),
		slog.Int("codes", len(d.Codes)),
	)
	return d, nil
}

// Reject flips a PENDING order to REJECTED. Stock is untouched. Rejecting an
// order that already reached a terminal status returns ErrAlreadyProcessed.
func (e *Engine) Reject(ctx context.Context, orderID string) (domain.Order, error) {
	var rejected domain.Order
	err := e.store.WithTx(ctx, func(ctx context.Context, s storage.Store) error {
		o, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}
		if err := s.SetOrderStatus(ctx, orderID, domain.StatusRejected); err != nil {
			return err
		}
		o.Status = domain.StatusRejected
		rejected = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	logger.LogEvent(ctx, logger.SVCOrders, slog.LevelInfo, "order.rejected",
		slog.String("order_id", rejected.ID),
		slog.Int64("user_id", rejected.UserID),
	)
	return rejected, nil
}

// Stats aggregates the admin overview: user count, order counts per status,
// revenue from approved orders and remaining stock per product.
func (e *Engine) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats

	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	st.Users = len(users)

	orders, err := e.store.ListOrders(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	for _, o := range orders {
		switch o.Status {
		case domain.StatusPending:
			st.Pending++
		case domain.StatusApproved:
			st.Approved++
			st.Revenue += o.TotalPrice
		case domain.StatusRejected:
			st.Rejected++
		}
	}

	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	for _, p := range products {
		st.Products = append(st.Products, domain.ProductStat{
			ProductID: p.ID,
			Name:      p.Name,
			Remaining: len(p.Stock),
		})
	}
	return st, nil
}
