package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"digistore/internal/domain"
)

// fileSnapshot is the on-disk shape of the JSON store: top-level sections
// keyed by entity identifier.
type fileSnapshot struct {
	Users    map[string]domain.User    `json:"users"`
	Orders   map[string]domain.Order   `json:"orders"`
	Products map[string]domain.Product `json:"products"`
}

// File is a Store persisted as a single JSON document. Every mutation
// rewrites the file via a temp-file rename, so a crash never leaves a
// half-written snapshot behind.
type File struct {
	path string
	mem  *Memory
}

// OpenFile loads the snapshot at path, creating an empty store when the file
// does not exist yet.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, mem: NewMemory()}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap fileSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", f.path, err)
	}

	data := newMemoryData()
	for key, u := range snap.Users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("decode snapshot %s: bad user key %q", f.path, key)
		}
		u.ID = id
		data.users[id] = u
	}
	for id, o := range snap.Orders {
		o.ID = id
		data.orders[id] = o
	}
	for id, p := range snap.Products {
		p.ID = id
		data.products[id] = p
	}
	f.mem.data = data
	return nil
}

// save must be called with f.mem.mu held.
func (f *File) save() error {
	snap := fileSnapshot{
		Users:    make(map[string]domain.User, len(f.mem.data.users)),
		Orders:   make(map[string]domain.Order, len(f.mem.data.orders)),
		Products: make(map[string]domain.Product, len(f.mem.data.products)),
	}
	for id, u := range f.mem.data.users {
		snap.Users[strconv.FormatInt(id, 10)] = u
	}
	for id, o := range f.mem.data.orders {
		snap.Orders[id] = o
	}
	for id, p := range f.mem.data.products {
		snap.Products[id] = p
	}

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".digistore-*.json")
	if err != nil {
		return fmt.Errorf("temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// SeedProducts inserts products missing from the snapshot and persists the
// result.
func (f *File) SeedProducts(products []domain.Product) error {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	for _, p := range products {
		if _, ok := f.mem.data.products[p.ID]; ok {
			continue
		}
		p.Stock = append([]string(nil), p.Stock...)
		f.mem.data.products[p.ID] = p
	}
	return f.save()
}

func (f *File) UpsertUser(ctx context.Context, u domain.User) error {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	f.mem.data.upsertUser(u)
	return f.save()
}

func (f *File) ListUsers(ctx context.Context) ([]domain.User, error) {
	return f.mem.ListUsers(ctx)
}

func (f *File) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return f.mem.GetProduct(ctx, id)
}

func (f *File) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return f.mem.ListProducts(ctx)
}

func (f *File) AddStock(ctx context.Context, id string, codes []string) (int, error) {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	n, err := f.mem.data.addStock(id, codes)
	if err != nil {
		return 0, err
	}
	return n, f.save()
}

func (f *File) TakeStock(ctx context.Context, id string, n int) ([]string, error) {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	codes, err := f.mem.data.takeStock(id, n)
	if err != nil {
		return nil, err
	}
	return codes, f.save()
}

func (f *File) CreateOrder(ctx context.Context, o domain.Order) error {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	f.mem.data.createOrder(o)
	return f.save()
}

func (f *File) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return f.mem.GetOrder(ctx, id)
}

func (f *File) SetOrderStatus(ctx context.Context, id string, st domain.Status) error {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	if err := f.mem.data.setOrderStatus(id, st); err != nil {
		return err
	}
	return f.save()
}

func (f *File) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return f.mem.ListOrders(ctx)
}

func (f *File) WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()

	snapshot := f.mem.data.clone()
	if err := fn(ctx, &memoryTx{data: f.mem.data}); err != nil {
		f.mem.data = snapshot
		return err
	}
	return f.save()
}
