// Package order coordinates checkout confirmation and remote order creation.
//
// The flow is a small state machine:
//
//	Idle -> AwaitingConfirmation -> Submitting -> Settled
//	Idle -> AwaitingConfirmation -> Submitting -> Failed -> Idle
//
// At most one submission is in flight: a second confirmation while Submitting
// is rejected by the state check, not by a separate lock.
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopcart/internal/checkout"
	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
	"go.uber.org/zap"
)

// DefaultFailureMessage is shown when the order service gives no reason.
const DefaultFailureMessage = "Failed to process payment. Please try again."

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid transition")
)

// CartSource is the part of the cart store the flow needs.
type CartSource interface {
	Snapshot() domain.Cart
	Clear(ctx context.Context)
}

// Confirmation is the frozen view shown to the shopper before submitting.
type Confirmation struct {
	Cart      domain.Cart
	Breakdown checkout.Breakdown
	Request   domain.OrderRequest
}

// Result is delivered once per confirmation.
type Result struct {
	Order domain.Order
	// Err is nil on success.
	Err error
	// Message is the single user-facing text for a failure.
	Message string
}

type Transition struct {
	From, To State
	Result   *Result
}

type Flow struct {
	cart        CartSource
	orders      port.OrderCreator
	invalidator port.SessionInvalidator
	log         *zap.Logger
	timeout     time.Duration
	observers   []func(Transition)

	mu      sync.Mutex
	state   State
	pending *Confirmation
	last    *Result
}

type Option func(*Flow)

func WithLogger(log *zap.Logger) Option {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

// WithSessionInvalidator sets who is told when the order service rejects
// the session token.
func WithSessionInvalidator(inv port.SessionInvalidator) Option {
	return func(f *Flow) {
		f.invalidator = inv
	}
}

// WithTimeout bounds the remote call; zero means the caller's context only.
func WithTimeout(d time.Duration) Option {
	return func(f *Flow) {
		f.timeout = d
	}
}

// WithObserver registers fn for every state change. Observers run
// synchronously and must not call back into the flow.
func WithObserver(fn func(Transition)) Option {
	return func(f *Flow) {
		f.observers = append(f.observers, fn)
	}
}

func NewFlow(cart CartSource, orders port.OrderCreator, opts ...Option) (*Flow, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart is nil")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders is nil")
	}

	f := &Flow{
		cart:   cart,
		orders: orders,
		log:    zap.NewNop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.Named("order")

	return f, nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Pending returns the confirmation held while awaiting confirmation or submitting.
func (f *Flow) Pending() (Confirmation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == nil {
		return Confirmation{}, false
	}
	return *f.pending, true
}

// LastResult returns the outcome of the most recent submission.
func (f *Flow) LastResult() (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last == nil {
		return Result{}, false
	}
	return *f.last, true
}

// Begin freezes the current cart for confirmation. The cart stays editable,
// but later edits do not reach this checkout.
func (f *Flow) Begin(details checkout.Details) (Confirmation, error) {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return Confirmation{}, err
	}

	f.mu.Lock()
	if f.state != StateIdle {
		from := f.state
		f.mu.Unlock()
		return Confirmation{}, fmt.Errorf("begin from %s: %w", from, ErrInvalidTransition)
	}

	snapshot := f.cart.Snapshot()
	if snapshot.IsEmpty() {
		f.mu.Unlock()
		return Confirmation{}, ErrEmptyCart
	}

	conf := Confirmation{
		Cart:      snapshot,
		Breakdown: checkout.ComputeBreakdown(snapshot),
		Request: domain.OrderRequest{
			Items:           checkout.OrderPayload(snapshot),
			ShippingAddress: details.ShippingAddress,
			PaymentMethod:   details.PaymentMethod,
		},
	}
	f.pending = &conf
	t := f.setLocked(StateAwaitingConfirmation, nil)
	f.mu.Unlock()

	f.emit(t)
	return conf, nil
}

// Cancel abandons the pending confirmation.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	if f.state != StateAwaitingConfirmation {
		from := f.state
		f.mu.Unlock()
		return fmt.Errorf("cancel from %s: %w", from, ErrInvalidTransition)
	}
	f.pending = nil
	t := f.setLocked(StateIdle, nil)
	f.mu.Unlock()

	f.emit(t)
	return nil
}

// Reset returns a settled flow to Idle so a new checkout can begin.
func (f *Flow) Reset() error {
	f.mu.Lock()
	if f.state != StateSettled {
		from := f.state
		f.mu.Unlock()
		return fmt.Errorf("reset from %s: %w", from, ErrInvalidTransition)
	}
	t := f.setLocked(StateIdle, nil)
	f.mu.Unlock()

	f.emit(t)
	return nil
}

// Confirm submits the pending order and waits for the outcome.
func (f *Flow) Confirm(ctx context.Context) (Result, error) {
	ch, err := f.ConfirmAsync(ctx)
	if err != nil {
		return Result{}, err
	}
	return <-ch, nil
}

// ConfirmAsync enters Submitting before returning and performs exactly one
// remote call in the background. The channel receives one Result and is
// then closed. There is no retry: after a failure the flow is Idle again and
// the shopper may begin a new checkout.
func (f *Flow) ConfirmAsync(ctx context.Context) (<-chan Result, error) {
	f.mu.Lock()
	if f.state != StateAwaitingConfirmation {
		from := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("confirm from %s: %w", from, ErrInvalidTransition)
	}
	req := f.pending.Request
	t := f.setLocked(StateSubmitting, nil)
	f.mu.Unlock()

	f.emit(t)

	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- f.submit(ctx, req)
	}()

	return ch, nil
}

func (f *Flow) submit(ctx context.Context, req domain.OrderRequest) Result {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	key := uuid.NewString()
	ctx = WithIdempotencyKey(ctx, key)

	f.log.Info("submitting order",
		zap.String("idempotency_key", key),
		zap.Int("items", len(req.Items)))

	created, err := f.orders.CreateOrder(ctx, req)
	if err != nil {
		return f.fail(ctx, key, err)
	}

	return f.settle(ctx, key, created)
}

func (f *Flow) settle(ctx context.Context, key string, created domain.Order) Result {
	// the cart is cleared before anyone hears about the success
	f.cart.Clear(context.WithoutCancel(ctx))

	res := Result{Order: created}

	f.mu.Lock()
	f.pending = nil
	f.last = &res
	t := f.setLocked(StateSettled, &res)
	f.mu.Unlock()

	f.log.Info("order placed",
		zap.String("idempotency_key", key),
		zap.String("order_id", created.ID),
		zap.String("status", created.Status))

	f.emit(t)
	return res
}

func (f *Flow) fail(ctx context.Context, key string, err error) Result {
	res := Result{Err: err, Message: FailureMessage(err)}

	f.log.Warn("order submission failed",
		zap.String("idempotency_key", key),
		zap.Error(err))

	if errors.Is(err, domain.ErrUnauthorized) && f.invalidator != nil {
		f.invalidator.Invalidate(context.WithoutCancel(ctx))
	}

	f.mu.Lock()
	f.pending = nil
	f.last = &res
	failed := f.setLocked(StateFailed, &res)
	idle := f.setLocked(StateIdle, &res)
	f.mu.Unlock()

	f.emit(failed)
	f.emit(idle)
	return res
}

func (f *Flow) setLocked(to State, res *Result) Transition {
	t := Transition{From: f.state, To: to, Result: res}
	f.state = to
	return t
}

func (f *Flow) emit(t Transition) {
	f.log.Debug("state changed", zap.Stringer("from", t.From), zap.Stringer("to", t.To))
	for _, fn := range f.observers {
		fn(t)
	}
}

// FailureMessage picks the text shown to the shopper for a failed submission.
func FailureMessage(err error) string {
	var msgErr interface{ UserMessage() string }
	if errors.As(err, &msgErr) {
		if msg := msgErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return DefaultFailureMessage
}
