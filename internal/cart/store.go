package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// Store owns the cart lines of the current session.
//
// Mutations never fail: unknown product ids are ignored, and a quantity that
// drops to zero removes the line. Every mutation that changes the cart writes
// the full snapshot to the cart slot before returning. A failed write is
// logged and the in-memory cart is kept as is.
type Store struct {
	slots    port.SlotStore
	log      *zap.Logger
	currency currency.Unit

	mu    sync.Mutex
	lines []domain.CartLine

	subMu  sync.Mutex
	subs   map[int]func(domain.Cart)
	nextID int
}

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func WithCurrency(unit currency.Unit) Option {
	return func(s *Store) {
		s.currency = unit
	}
}

func NewStore(slots port.SlotStore, opts ...Option) *Store {
	s := &Store{
		slots:    slots,
		log:      zap.NewNop(),
		currency: currency.USD,
		subs:     make(map[int]func(domain.Cart)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("cart")
	return s
}

// Rehydrate replaces the in-memory cart with the persisted one.
// It is meant to run once at session start. A missing, unreadable or corrupt
// slot leaves the cart empty. Only a done context is reported.
func (s *Store) Rehydrate(ctx context.Context) error {
	data, err := s.slots.Get(ctx, port.SlotCart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, domain.ErrSlotNotFound) {
			s.log.Warn("cart slot read failed, starting with empty cart", zap.Error(err))
		}
		s.replace(nil)
		return nil
	}

	restored, err := decode(data, s.currency)
	if err != nil {
		s.log.Warn("cart slot is corrupt, starting with empty cart", zap.Error(err))
		s.replace(nil)
		return nil
	}

	if restored.Currency != s.currency {
		s.log.Warn("persisted cart currency differs, discarding",
			zap.Stringer("persisted", restored.Currency),
			zap.Stringer("configured", s.currency))
		s.replace(nil)
		return nil
	}

	s.replace(restored.Lines)
	s.log.Debug("cart rehydrated", zap.Int("lines", len(restored.Lines)))
	return nil
}

// AddItem adds quantity units of product. An existing line for the same
// product id is incremented; its original snapshot is kept.
// Stock is not enforced here: callers clamp the quantity to the stock they show.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) {
	if quantity < 1 || product.ID == "" {
		s.log.Warn("add item ignored",
			zap.String("product_id", product.ID),
			zap.Int("quantity", quantity))
		return
	}

	s.mutate(ctx, "add", func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		if i := indexOf(lines, product.ID); i >= 0 {
			lines[i].Quantity += quantity
			return lines, true
		}
		return append(lines, domain.CartLine{Product: product.Clone(), Quantity: quantity}), true
	})
}

// UpdateQuantity replaces the quantity of a line. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}

	s.mutate(ctx, "update", func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		i := indexOf(lines, productID)
		if i < 0 || lines[i].Quantity == quantity {
			return lines, false
		}
		lines[i].Quantity = quantity
		return lines, true
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mutate(ctx, "remove", func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		i := indexOf(lines, productID)
		if i < 0 {
			return lines, false
		}
		return append(lines[:i], lines[i+1:]...), true
	})
}

// Clear empties the cart. The empty state is always persisted, even when the
// cart was already empty, so a stale slot cannot resurrect old lines.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, "clear", func([]domain.CartLine) ([]domain.CartLine, bool) {
		return nil, true
	})
}

// TotalItems is the sum of quantities, not the number of lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Total())
	}
	return total
}

func (s *Store) Items() []domain.CartLine {
	return s.Snapshot().Lines
}

// Snapshot returns a deep copy of the cart; later mutations do not affect it.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(domain.Cart)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]domain.CartLine) ([]domain.CartLine, bool)) {
	s.mu.Lock()
	lines, changed := fn(s.lines)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.lines = lines
	snapshot := s.snapshotLocked()
	// persisted under the lock so writes land in mutation order
	s.persist(ctx, op, snapshot)
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) replace(lines []domain.CartLine) {
	s.mu.Lock()
	s.lines = lines
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) persist(ctx context.Context, op string, c domain.Cart) {
	data, err := encode(c)
	if err != nil {
		s.log.Error("cart encode failed", zap.String("op", op), zap.Error(err))
		return
	}

	if err := s.slots.Set(ctx, port.SlotCart, data); err != nil {
		s.log.Error("cart persist failed, change is kept in memory only",
			zap.String("op", op),
			zap.Int("lines", len(c.Lines)),
			zap.Error(err))
	}
}

func (s *Store) notify(c domain.Cart) {
	s.subMu.Lock()
	subs := make([]func(domain.Cart), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(c.Clone())
	}
}

func (s *Store) snapshotLocked() domain.Cart {
	return domain.Cart{Currency: s.currency, Lines: s.lines}.Clone()
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
