// Package app wires the cart core to its configured collaborators.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopcart/internal/api"
	"github.com/nikolayk812/shopcart/internal/cart"
	"github.com/nikolayk812/shopcart/internal/config"
	"github.com/nikolayk812/shopcart/internal/order"
	"github.com/nikolayk812/shopcart/internal/port"
	"github.com/nikolayk812/shopcart/internal/repository"
	"github.com/nikolayk812/shopcart/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"
)

type App struct {
	Slots   port.SlotStore
	Session *session.Manager
	Cart    *cart.Store
	API     *api.Client
	Flow    *order.Flow

	log     *zap.Logger
	closers []func()
}

type Option func(*options)

type options struct {
	httpClient api.HTTPClient
	slots      port.SlotStore
	observers  []func(order.Transition)
}

// WithHTTPClient overrides the client used for the catalog and order API.
func WithHTTPClient(c api.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithSlotStore bypasses the configured storage backend.
func WithSlotStore(s port.SlotStore) Option {
	return func(o *options) {
		o.slots = s
	}
}

func WithFlowObserver(fn func(order.Transition)) Option {
	return func(o *options) {
		o.observers = append(o.observers, fn)
	}
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", cfg.Currency, err)
	}

	a := &App{log: log}

	a.Slots = o.slots
	if a.Slots == nil {
		a.Slots, err = a.openSlots(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Session = session.NewManager(a.Slots, session.WithLogger(log))
	a.Cart = cart.NewStore(a.Slots, cart.WithLogger(log), cart.WithCurrency(unit))

	a.API, err = api.NewClient(cfg.APIBaseURL, o.httpClient, a.Session)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("api.NewClient: %w", err)
	}

	flowOpts := []order.Option{
		order.WithLogger(log),
		order.WithSessionInvalidator(a.Session),
		order.WithTimeout(cfg.OrderTimeout),
	}
	for _, fn := range o.observers {
		flowOpts = append(flowOpts, order.WithObserver(fn))
	}

	a.Flow, err = order.NewFlow(a.Cart, a.API, flowOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("order.NewFlow: %w", err)
	}

	return a, nil
}

// Bootstrap restores session and cart from storage. Call it once before the
// first read of either.
func (a *App) Bootstrap(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Session.Rehydrate(gctx)
	})
	g.Go(func() error {
		return a.Cart.Rehydrate(gctx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	a.log.Debug("bootstrapped",
		zap.Bool("authenticated", a.Session.IsAuthenticated()),
		zap.Int("cart_items", a.Cart.TotalItems()))
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openSlots(ctx context.Context, cfg config.Config) (port.SlotStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return repository.NewSlotMemory(), nil

	case config.BackendFile:
		return repository.NewSlotFile(cfg.StorageDir, cfg.StorageScope)

	case config.BackendRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis.ParseURL: %w", err)
		}
		client := redis.NewClient(redisOpts)
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.log.Warn("redis close failed", zap.Error(err))
			}
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("client.Ping: %w", err)
		}
		return repository.NewSlotRedis(client, cfg.StorageScope)

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("pool.Ping: %w", err)
		}
		return repository.NewSlotPostgres(pool, cfg.StorageScope)
	}

	return nil, fmt.Errorf("storage backend[%s] is not supported", cfg.StorageBackend)
}
