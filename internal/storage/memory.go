package storage

import (
	"context"
	"sort"
	"sync"

	"digistore/internal/domain"
)

// memoryData holds the raw maps without any synchronization.
type memoryData struct {
	users    map[int64]domain.User
	orders   map[string]domain.Order
	products map[string]domain.Product
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:    make(map[int64]domain.User),
		orders:   make(map[string]domain.Order),
		products: make(map[string]domain.Product),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.products {
		v.Stock = append([]string(nil), v.Stock...)
		c.products[k] = v
	}
	return c
}

func (d *memoryData) upsertUser(u domain.User) {
	if existing, ok := d.users[u.ID]; ok {
		existing.Username = u.Username
		d.users[u.ID] = existing
		return
	}
	d.users[u.ID] = u
}

func (d *memoryData) listUsers() []domain.User {
	out := make([]domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *memoryData) getProduct(id string) (domain.Product, error) {
	p, ok := d.products[id]
	if !ok {
		return domain.Product{}, domain.ErrUnknownProduct
	}
	p.Stock = append([]string(nil), p.Stock...)
	return p, nil
}

func (d *memoryData) listProducts() []domain.Product {
	out := make([]domain.Product, 0, len(d.products))
	for _, p := range d.products {
		p.Stock = append([]string(nil), p.Stock...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *memoryData) addStock(id string, codes []string) (int, error) {
	p, ok := d.products[id]
	if !ok {
		return 0, domain.ErrUnknownProduct
	}
	p.Stock = append(p.Stock, codes...)
	d.products[id] = p
	return len(codes), nil
}

func (d *memoryData) takeStock(id string, n int) ([]string, error) {
	p, ok := d.products[id]
	if !ok {
		return nil, domain.ErrUnknownProduct
	}
	if len(p.Stock) < n {
		return nil, domain.ErrInsufficientStock
	}
	taken := append([]string(nil), p.Stock[:n]...)
	p.Stock = append([]string(nil), p.Stock[n:]...)
	d.products[id] = p
	return taken, nil
}

func (d *memoryData) createOrder(o domain.Order) {
	d.orders[o.ID] = o
}

func (d *memoryData) getOrder(id string) (domain.Order, error) {
	o, ok := d.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (d *memoryData) setOrderStatus(id string, st domain.Status) error {
	o, ok := d.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return domain.ErrAlreadyProcessed
	}
	o.Status = st
	d.orders[id] = o
	return nil
}

func (d *memoryData) listOrders() []domain.Order {
	out := make([]domain.Order, 0, len(d.orders))
	for _, o := range d.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Memory is an in-process Store. A single mutex serializes every operation;
// WithTx snapshots the maps and restores them when fn fails, which gives the
// same all-or-nothing behaviour as the SQL backend.
type Memory struct {
	mu   sync.Mutex
	data *memoryData
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: newMemoryData()}
}

// SeedProducts inserts products that are not present yet. Existing products
// keep their stock.
func (m *Memory) SeedProducts(products []domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		if _, ok := m.data.products[p.ID]; ok {
			continue
		}
		p.Stock = append([]string(nil), p.Stock...)
		m.data.products[p.ID] = p
	}
}

func (m *Memory) UpsertUser(ctx context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.upsertUser(u)
	return nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.listUsers(), nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.getProduct(id)
}

func (m *Memory) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.listProducts(), nil
}

func (m *Memory) AddStock(ctx context.Context, id string, codes []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.addStock(id, codes)
}

func (m *Memory) TakeStock(ctx context.Context, id string, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.takeStock(id, n)
}

func (m *Memory) CreateOrder(ctx context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.createOrder(o)
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.getOrder(id)
}

func (m *Memory) SetOrderStatus(ctx context.Context, id string, st domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.setOrderStatus(id, st)
}

func (m *Memory) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.listOrders(), nil
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(ctx, &memoryTx{data: m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// memoryTx is the unsynchronized view handed to WithTx callbacks; the outer
// mutex is already held.
type memoryTx struct {
	data *memoryData
}

func (t *memoryTx) UpsertUser(ctx context.Context, u domain.User) error {
	t.data.upsertUser(u)
	return nil
}

func (t *memoryTx) ListUsers(ctx context.Context) ([]domain.User, error) {
	return t.data.listUsers(), nil
}

func (t *memoryTx) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return t.data.getProduct(id)
}

func (t *memoryTx) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return t.data.listProducts(), nil
}

func (t *memoryTx) AddStock(ctx context.Context, id string, codes []string) (int, error) {
	return t.data.addStock(id, codes)
}

func (t *memoryTx) TakeStock(ctx context.Context, id string, n int) ([]string, error) {
	return t.data.takeStock(id, n)
}

func (t *memoryTx) CreateOrder(ctx context.Context, o domain.Order) error {
	t.data.createOrder(o)
	return nil
}

func (t *memoryTx) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return t.data.getOrder(id)
}

func (t *memoryTx) SetOrderStatus(ctx context.Context, id string, st domain.Status) error {
	return t.data.setOrderStatus(id, st)
}

func (t *memoryTx) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return t.data.listOrders(), nil
}

func (t *memoryTx) WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	return fn(ctx, t)
}
