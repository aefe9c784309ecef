// Package catalog exposes the product list and the stock ledger.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"digistore/core/logger"
	"digistore/internal/domain"
	"digistore/internal/storage"
)

// Service answers catalog queries and moves codes in and out of stock.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Get returns one product with its current stock.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// List returns every product in stable id order.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// ComputeTotal prices an order of qty units, enforcing the product minimum.
func (s *Service) ComputeTotal(ctx context.Context, id string, qty int) (domain.Product, int64, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, 0, err
	}
	if qty < p.MinQty {
		qty = p.MinQty
	}
	return p, p.Price * int64(qty), nil
}

// AddStock appends codes to the product's stock tail and reports the new
// remaining count.
func (s *Service) AddStock(ctx context.Context, id string, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, fmt.Errorf("add stock %s: no codes given", id)
	}
	if _, err := s.store.AddStock(ctx, id, codes); err != nil {
		return 0, err
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "catalog.stock_added",
		slog.String("product_id", id),
		slog.Int("added", len(codes)),
		slog.Int("remaining", len(p.Stock)),
	)
	return len(p.Stock), nil
}

// TakeStock debits n codes from the stock head. On insufficient stock the
// ledger is untouched; no partial debit ever happens.
func (s *Service) TakeStock(ctx context.Context, id string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("take stock %s: quantity must be positive", id)
	}
	codes, err := s.store.TakeStock(ctx, id, n)
	if err != nil {
		return nil, err
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "catalog.stock_taken",
		slog.String("product_id", id),
		slog.Int("taken", n),
	)
	return codes, nil
}

// Seed holds the initial storefront. IDs double as callback payloads.
func Seed() []domain.Product {
	return []domain.Product{
		{ID: "flipkart", Name: "Flipkart ₹100 Voucher", Price: 10000, MinQty: 1},
		{ID: "shein4k", Name: "Shein ₹4000 Account", Price: 5000, MinQty: 2},
		{ID: "shein2k", Name: "Shein ₹2000 Account", Price: 3000, MinQty: 3},
		{ID: "gplay", Name: "Google Play ₹100 Card", Price: 10000, MinQty: 1},
	}
}
