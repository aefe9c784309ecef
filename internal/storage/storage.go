// Package storage defines the persistence boundary for the storefront:
// users, the product catalog with its FIFO stock codes, and the order
// ledger. Implementations: Postgres (sqlx), an in-memory store, and a JSON
// snapshot file.
package storage

import (
	"context"

	"digistore/internal/domain"
)

// Store is the repository surface shared by all backends.
//
// TakeStock is the single point of stock debit: it atomically removes and
// returns the first n codes and fails without partial removal when fewer
// remain. Callers that must pair a stock debit with another mutation (order
// approval) do so inside WithTx.
type Store interface {
	UpsertUser(ctx context.Context, u domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)

	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	AddStock(ctx context.Context, id string, codes []string) (int, error)
	TakeStock(ctx context.Context, id string, n int) ([]string, error)

	CreateOrder(ctx context.Context, o domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	// SetOrderStatus moves a PENDING order to st. An order already in a
	// terminal status stays untouched and ErrAlreadyProcessed is returned,
	// so racing verdicts cannot both win.
	SetOrderStatus(ctx context.Context, id string, st domain.Status) error
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// WithTx runs fn against a transactional view of the store. If fn
	// returns an error, none of its mutations survive. Nested calls run
	// in the enclosing transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
