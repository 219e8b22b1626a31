package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/nikolayk812/shopcart/internal/cart"
	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
	"github.com/nikolayk812/shopcart/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/currency"
)

func TestStore_AddItem(t *testing.T) {
	a := product("A", "10.00")
	b := product("B", "5.00")

	tests := []struct {
		name      string
		adds      []add
		wantLines []line
	}{
		{
			name:      "single add on empty cart: ok",
			adds:      []add{{a, 1}},
			wantLines: []line{{"A", 1}},
		},
		{
			name:      "same product accumulates: ok",
			adds:      []add{{a, 2}, {a, 3}},
			wantLines: []line{{"A", 5}},
		},
		{
			name:      "insertion order kept: ok",
			adds:      []add{{b, 1}, {a, 1}, {b, 2}},
			wantLines: []line{{"B", 3}, {"A", 1}},
		},
		{
			name:      "zero quantity ignored: ok",
			adds:      []add{{a, 0}},
			wantLines: nil,
		},
		{
			name:      "negative quantity ignored: ok",
			adds:      []add{{a, 2}, {a, -1}},
			wantLines: []line{{"A", 2}},
		},
		{
			name:      "quantity above stock kept: ok",
			adds:      []add{{withStock(a, 1), 4}},
			wantLines: []line{{"A", 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cart.NewStore(repository.NewSlotMemory())

			for _, ad := range tt.adds {
				store.AddItem(t.Context(), ad.product, ad.quantity)
			}

			assert.Equal(t, tt.wantLines, lines(store.Items()))
		})
	}
}

func TestStore_AddItemKeepsFirstSnapshot(t *testing.T) {
	store := cart.NewStore(repository.NewSlotMemory())

	p := product("A", "10.00")
	p.Images = []string{"a.png"}
	p.Specifications = map[string]any{
		"dims":   map[string]any{"w": 1.0},
		"colors": []any{"red", map[string]any{"name": "blue"}},
	}
	store.AddItem(t.Context(), p, 1)

	// caller mutates its copy and re-adds at a new price
	p.Images[0] = "changed.png"
	p.Specifications["dims"].(map[string]any)["w"] = 999.0
	p.Specifications["colors"].([]any)[0] = "green"
	p.Specifications["colors"].([]any)[1].(map[string]any)["name"] = "black"
	p.Price = decimal.RequireFromString("99.00")
	store.AddItem(t.Context(), p, 1)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "a.png", items[0].Product.PrimaryImage())
	assert.Equal(t, map[string]any{
		"dims":   map[string]any{"w": 1.0},
		"colors": []any{"red", map[string]any{"name": "blue"}},
	}, items[0].Product.Specifications)
	assert.True(t, decimal.RequireFromString("20.00").Equal(store.TotalPrice()))

	// snapshots handed out are detached from the store's lines
	items[0].Product.Specifications["dims"].(map[string]any)["w"] = 7.0
	again := store.Items()
	assert.Equal(t, 1.0, again[0].Product.Specifications["dims"].(map[string]any)["w"])
}

func TestStore_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		wantLines []line
	}{
		{
			name:      "replace quantity: ok",
			productID: "A",
			quantity:  7,
			wantLines: []line{{"A", 7}, {"B", 1}},
		},
		{
			name:      "zero removes line: ok",
			productID: "A",
			quantity:  0,
			wantLines: []line{{"B", 1}},
		},
		{
			name:      "negative removes line: ok",
			productID: "A",
			quantity:  -1,
			wantLines: []line{{"B", 1}},
		},
		{
			name:      "absent product is no-op: ok",
			productID: "Z",
			quantity:  3,
			wantLines: []line{{"A", 2}, {"B", 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, repository.NewSlotMemory())

			store.UpdateQuantity(t.Context(), tt.productID, tt.quantity)

			assert.Equal(t, tt.wantLines, lines(store.Items()))
		})
	}
}

func TestStore_RemoveItemIsIdempotent(t *testing.T) {
	once := seededStore(t, repository.NewSlotMemory())
	once.RemoveItem(t.Context(), "A")

	twice := seededStore(t, repository.NewSlotMemory())
	twice.RemoveItem(t.Context(), "A")
	twice.RemoveItem(t.Context(), "A")

	viaUpdate := seededStore(t, repository.NewSlotMemory())
	viaUpdate.UpdateQuantity(t.Context(), "A", 0)

	assert.Empty(t, cmp.Diff(once.Snapshot(), twice.Snapshot(), cartCmpOpts()))
	assert.Empty(t, cmp.Diff(once.Snapshot(), viaUpdate.Snapshot(), cartCmpOpts()))
}

func TestStore_Clear(t *testing.T) {
	slots := repository.NewSlotMemory()
	store := seededStore(t, slots)

	store.Clear(t.Context())

	assert.Empty(t, store.Items())
	assert.Zero(t, store.TotalItems())
	assert.True(t, store.TotalPrice().IsZero())

	restored := cart.NewStore(slots)
	require.NoError(t, restored.Rehydrate(t.Context()))
	assert.Empty(t, restored.Items())
}

func TestStore_Aggregates(t *testing.T) {
	store := cart.NewStore(repository.NewSlotMemory())

	store.AddItem(t.Context(), product("A", "10"), 1)
	assert.Equal(t, 1, store.TotalItems())
	assert.True(t, decimal.RequireFromString("10.00").Equal(store.TotalPrice()))

	store.AddItem(t.Context(), product("A", "10"), 1)
	store.AddItem(t.Context(), product("B", "5.00"), 1)
	assert.Equal(t, 3, store.TotalItems())
	assert.True(t, decimal.RequireFromString("25.00").Equal(store.TotalPrice()))
}

func TestStore_AggregatesNeverDrift(t *testing.T) {
	store := cart.NewStore(repository.NewSlotMemory())
	ids := []string{"A", "B", "C", "D"}
	catalog := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		catalog[id] = randomProduct(id)
	}

	for range 200 {
		id := ids[gofakeit.IntRange(0, len(ids)-1)]
		switch gofakeit.IntRange(0, 3) {
		case 0:
			store.AddItem(t.Context(), catalog[id], gofakeit.IntRange(1, 5))
		case 1:
			store.UpdateQuantity(t.Context(), id, gofakeit.IntRange(-2, 6))
		case 2:
			store.RemoveItem(t.Context(), id)
		case 3:
			if gofakeit.IntRange(0, 9) == 0 {
				store.Clear(t.Context())
			}
		}

		items := store.Items()
		wantItems, wantPrice := 0, decimal.Zero
		seen := make(map[string]bool)
		for _, l := range items {
			require.GreaterOrEqual(t, l.Quantity, 1)
			require.False(t, seen[l.Product.ID], "duplicate line %s", l.Product.ID)
			seen[l.Product.ID] = true

			wantItems += l.Quantity
			wantPrice = wantPrice.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		require.Equal(t, wantItems, store.TotalItems())
		require.True(t, wantPrice.Equal(store.TotalPrice()))
	}
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	slots := repository.NewSlotMemory()
	store := cart.NewStore(slots)

	steps := []func(ctx context.Context){
		func(ctx context.Context) { store.AddItem(ctx, product("A", "10.00"), 2) },
		func(ctx context.Context) { store.AddItem(ctx, product("B", "5.00"), 1) },
		func(ctx context.Context) { store.UpdateQuantity(ctx, "A", 4) },
		func(ctx context.Context) { store.RemoveItem(ctx, "B") },
	}

	for _, step := range steps {
		step(t.Context())

		restored := cart.NewStore(slots)
		require.NoError(t, restored.Rehydrate(t.Context()))

		diff := cmp.Diff(store.Snapshot(), restored.Snapshot(), cartCmpOpts())
		require.Empty(t, diff)
	}
}

func TestStore_Rehydrate(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		readErr   error
		wantLines []line
	}{
		{
			name:      "absent slot starts empty: ok",
			wantLines: nil,
		},
		{
			name:      "persisted cart restored: ok",
			stored:    `{"currency":"USD","lines":[{"product":{"id":"A","name":"a","price":"10","stock":3},"quantity":2}]}`,
			wantLines: []line{{"A", 2}},
		},
		{
			name:      "corrupt slot starts empty: ok",
			stored:    `{"lines":[`,
			wantLines: nil,
		},
		{
			name:      "read failure starts empty: ok",
			readErr:   errors.New("disk unplugged"),
			wantLines: nil,
		},
		{
			name:      "invalid lines repaired: ok",
			stored:    `{"currency":"USD","lines":[{"product":{"id":"A","price":"1"},"quantity":1},{"product":{"id":"","price":"1"},"quantity":1},{"product":{"id":"B","price":"1"},"quantity":0},{"product":{"id":"A","price":"1"},"quantity":2}]}`,
			wantLines: []line{{"A", 3}},
		},
		{
			name:      "other currency discarded: ok",
			stored:    `{"currency":"EUR","lines":[{"product":{"id":"A","price":"1"},"quantity":1}]}`,
			wantLines: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := &flakySlots{SlotStore: repository.NewSlotMemory(), getErr: tt.readErr}
			if tt.stored != "" {
				require.NoError(t, slots.Set(t.Context(), port.SlotCart, []byte(tt.stored)))
			}

			store := cart.NewStore(slots, cart.WithCurrency(currency.USD))
			require.NoError(t, store.Rehydrate(t.Context()))

			assert.Equal(t, tt.wantLines, lines(store.Items()))
		})
	}
}

func TestStore_RehydrateCanceledContext(t *testing.T) {
	slots := &flakySlots{SlotStore: repository.NewSlotMemory(), getErr: context.Canceled}
	store := cart.NewStore(slots)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.ErrorIs(t, store.Rehydrate(ctx), context.Canceled)
}

func TestStore_PersistFailureIsLoggedAndStateKept(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	slots := &flakySlots{SlotStore: repository.NewSlotMemory(), setErr: errors.New("quota exceeded")}
	store := cart.NewStore(slots, cart.WithLogger(zap.New(core)))

	store.AddItem(t.Context(), product("A", "10.00"), 2)

	assert.Equal(t, 2, store.TotalItems())

	entries := logs.FilterMessage("cart persist failed, change is kept in memory only").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "add", entries[0].ContextMap()["op"])
	assert.Equal(t, "quota exceeded", entries[0].ContextMap()["error"])
}

func TestStore_Subscribe(t *testing.T) {
	store := cart.NewStore(repository.NewSlotMemory())

	var got []int
	unsubscribe := store.Subscribe(func(c domain.Cart) {
		total := 0
		for _, l := range c.Lines {
			total += l.Quantity
		}
		got = append(got, total)
	})

	store.AddItem(t.Context(), product("A", "1"), 1)
	store.AddItem(t.Context(), product("A", "1"), 2)
	store.RemoveItem(t.Context(), "missing")
	store.UpdateQuantity(t.Context(), "A", 3) // unchanged, no event

	unsubscribe()
	store.Clear(t.Context())

	assert.Equal(t, []int{1, 3}, got)
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	store := seededStore(t, repository.NewSlotMemory())

	snapshot := store.Snapshot()
	snapshot.Lines[0].Quantity = 100

	store.UpdateQuantity(t.Context(), "B", 9)

	assert.Equal(t, []line{{"A", 2}, {"B", 9}}, lines(store.Items()))
	assert.Equal(t, 100, snapshot.Lines[0].Quantity)
	assert.Equal(t, 1, snapshot.Lines[1].Quantity)
}

type add struct {
	product  domain.Product
	quantity int
}

type line struct {
	ID       string
	Quantity int
}

func lines(items []domain.CartLine) []line {
	var result []line
	for _, l := range items {
		result = append(result, line{ID: l.Product.ID, Quantity: l.Quantity})
	}
	return result
}

func seededStore(t *testing.T, slots port.SlotStore) *cart.Store {
	t.Helper()

	store := cart.NewStore(slots)
	store.AddItem(t.Context(), product("A", "10.00"), 2)
	store.AddItem(t.Context(), product("B", "5.00"), 1)
	return store
}

func product(id, price string) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.RequireFromString(price),
		Stock: 10,
	}
}

func withStock(p domain.Product, stock int) domain.Product {
	p.Stock = stock
	return p
}

func randomProduct(id string) domain.Product {
	return domain.Product{
		ID:     id,
		Name:   gofakeit.ProductName(),
		Price:  decimal.NewFromFloat(gofakeit.Price(1, 100)),
		Stock:  gofakeit.IntRange(0, 50),
		Images: []string{gofakeit.URL()},
	}
}

func cartCmpOpts() cmp.Options {
	return cmp.Options{
		cmp.Comparer(func(x, y decimal.Decimal) bool {
			return x.Equal(y)
		}),
		cmp.Comparer(func(x, y currency.Unit) bool {
			return x.String() == y.String()
		}),
	}
}

// flakySlots injects read or write failures into a working store.
type flakySlots struct {
	port.SlotStore
	getErr error
	setErr error
}

func (f *flakySlots) Get(ctx context.Context, slot port.Slot) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.SlotStore.Get(ctx, slot)
}

func (f *flakySlots) Set(ctx context.Context, slot port.Slot, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.SlotStore.Set(ctx, slot, value)
}
