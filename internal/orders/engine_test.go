package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digistore/internal/domain"
	"digistore/internal/storage"
)

func newTestEngine(t *testing.T, products ...domain.Product) (*Engine, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	store.SeedProducts(products)
	e := NewEngine(store)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e, store
}

func voucher(stock ...string) domain.Product {
	return domain.Product{ID: "flipkart", Name: "Flipkart ₹100 Voucher", Price: 10000, MinQty: 1, Stock: stock}
}

func createPending(t *testing.T, e *Engine, qty int) domain.Order {
	t.Helper()
	o, err := e.Create(context.Background(), CreateRequest{
		UserID:    42,
		Username:  "buyer",
		ProductID: "flipkart",
		Quantity:  qty,
	})
	require.NoError(t, err)
	return o
}

func TestCreateSnapshotsPriceAndName(t *testing.T) {
	e, _ := newTestEngine(t, voucher("AAA"))

	o := createPending(t, e, 2)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, "Flipkart ₹100 Voucher", o.ProductName)
	assert.Equal(t, int64(20000), o.TotalPrice)
	assert.NotEmpty(t, o.ID)
}

func TestCreateEnforcesMinimumQuantity(t *testing.T) {
	e, _ := newTestEngine(t, domain.Product{ID: "shein2k", Name: "Shein ₹2000 Account", Price: 3000, MinQty: 3})

	o, err := e.Create(context.Background(), CreateRequest{UserID: 42, ProductID: "shein2k", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, o.Quantity)
	assert.Equal(t, int64(9000), o.TotalPrice)
}

func TestCreateUnknownProduct(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Create(context.Background(), CreateRequest{UserID: 42, ProductID: "ghost", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestCreateKeepsFrozenSessionValues(t *testing.T) {
	e, _ := newTestEngine(t, voucher())

	// The catalog price does not matter once the session froze a total.
	o, err := e.Create(context.Background(), CreateRequest{
		UserID:      42,
		ProductID:   "flipkart",
		ProductName: "Flipkart ₹100 Voucher",
		Quantity:    1,
		TotalPrice:  7500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7500), o.TotalPrice)
}

func TestApproveDeliversOldestCodesFirst(t *testing.T) {
	e, store := newTestEngine(t, voucher("OLD-1", "OLD-2", "NEW-1"))
	o := createPending(t, e, 2)

	d, err := e.Approve(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"OLD-1", "OLD-2"}, d.Codes)
	assert.Equal(t, domain.StatusApproved, d.Order.Status)

	p, err := store.GetProduct(context.Background(), "flipkart")
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW-1"}, p.Stock)

	got, err := store.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
}

func TestApproveInsufficientStockLeavesOrderPending(t *testing.T) {
	e, store := newTestEngine(t, voucher("ONLY"))
	o := createPending(t, e, 2)

	_, err := e.Approve(context.Background(), o.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nothing moved: the code is still in stock and the order is retryable.
	p, err := store.GetProduct(context.Background(), "flipkart")
	require.NoError(t, err)
	assert.Equal(t, []string{"ONLY"}, p.Stock)

	got, err := store.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestApproveRetrySucceedsAfterRestock(t *testing.T) {
	e, store := newTestEngine(t, voucher("ONLY"))
	o := createPending(t, e, 2)

	_, err := e.Approve(context.Background(), o.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = store.AddStock(context.Background(), "flipkart", []string{"EXTRA"})
	require.NoError(t, err)

	d, err := e.Approve(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ONLY", "EXTRA"}, d.Codes)
}

func TestApproveTwiceDebitsStockOnce(t *testing.T) {
	e, store := newTestEngine(t, voucher("A", "B", "C"))
	o := createPending(t, e, 1)

	_, err := e.Approve(context.Background(), o.ID)
	require.NoError(t, err)

	_, err = e.Approve(context.Background(), o.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	p, err := store.GetProduct(context.Background(), "flipkart")
	require.NoError(t, err)
	assert.Len(t, p.Stock, 2)
}

func TestRejectKeepsStockIntact(t *testing.T) {
	e, store := newTestEngine(t, voucher("A", "B"))
	o := createPending(t, e, 2)

	got, err := e.Reject(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	p, err := store.GetProduct(context.Background(), "flipkart")
	require.NoError(t, err)
	assert.Len(t, p.Stock, 2)
}

func TestVerdictAfterVerdictFails(t *testing.T) {
	e, _ := newTestEngine(t, voucher("A"))

	approved := createPending(t, e, 1)
	_, err := e.Approve(context.Background(), approved.ID)
	require.NoError(t, err)

	_, err = e.Reject(context.Background(), approved.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	rejected := createPending(t, e, 1)
	_, err = e.Reject(context.Background(), rejected.ID)
	require.NoError(t, err)

	_, err = e.Approve(context.Background(), rejected.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	_, err = e.Reject(context.Background(), rejected.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestVerdictOnUnknownOrder(t *testing.T) {
	e, _ := newTestEngine(t, voucher("A"))

	_, err := e.Approve(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = e.Reject(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestConcurrentApprovalsNeverOversell(t *testing.T) {
	e, store := newTestEngine(t, voucher("A", "B", "C"))

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = createPending(t, e, 1).ID
	}

	var wg sync.WaitGroup
	results := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := e.Approve(context.Background(), id)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var approved, starved int
	for err := range results {
		switch {
		case err == nil:
			approved++
		default:
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			starved++
		}
	}
	assert.Equal(t, 3, approved)
	assert.Equal(t, 2, starved)

	p, err := store.GetProduct(context.Background(), "flipkart")
	require.NoError(t, err)
	assert.Empty(t, p.Stock)
}

func TestStockConservation(t *testing.T) {
	e, store := newTestEngine(t, voucher())
	ctx := context.Background()

	_, err := store.AddStock(ctx, "flipkart", []string{"C1", "C2", "C3"})
	require.NoError(t, err)

	o := createPending(t, e, 2)
	d, err := e.Approve(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, d.Codes)

	p, err := store.GetProduct(ctx, "flipkart")
	require.NoError(t, err)
	assert.Equal(t, []string{"C3"}, p.Stock)

	// delivered + remaining == added
	assert.Equal(t, 3, len(d.Codes)+len(p.Stock))
}

func TestStatsAggregation(t *testing.T) {
	e, store := newTestEngine(t, voucher("A", "B", "C"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.UpsertUser(ctx, domain.User{ID: int64(i + 1), Username: fmt.Sprintf("u%d", i+1)}))
	}

	approved := createPending(t, e, 2)
	_, err := e.Approve(ctx, approved.ID)
	require.NoError(t, err)

	rejected := createPending(t, e, 1)
	_, err = e.Reject(ctx, rejected.ID)
	require.NoError(t, err)

	createPending(t, e, 1)

	st, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Users)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.Approved)
	assert.Equal(t, 1, st.Rejected)
	assert.Equal(t, int64(20000), st.Revenue)
	require.Len(t, st.Products, 1)
	assert.Equal(t, 1, st.Products[0].Remaining)
}
