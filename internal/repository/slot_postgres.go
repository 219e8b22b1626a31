package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopcart/internal/db"
	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
)

type slotPostgres struct {
	q     *db.Queries
	pool  *pgxpool.Pool
	scope string
}

func NewSlotPostgres(pool *pgxpool.Pool, scope string) (port.SlotStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	return &slotPostgres{
		q:     db.New(pool),
		pool:  pool,
		scope: scope,
	}, nil
}

func NewSlotPostgresWithTx(tx pgx.Tx, scope string) (port.SlotStore, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	return &slotPostgres{
		q:     db.New(tx),
		pool:  nil, // use provided transaction instead
		scope: scope,
	}, nil
}

func (r *slotPostgres) Get(ctx context.Context, slot port.Slot) ([]byte, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	value, err := r.q.GetSlot(ctx, db.GetSlotParams{
		Scope: r.scope,
		Slot:  string(slot),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("q.GetSlot: %w", err)
	}

	return value, nil
}

func (r *slotPostgres) Set(ctx context.Context, slot port.Slot, value []byte) error {
	if err := slot.Validate(); err != nil {
		return err
	}

	err := r.q.UpsertSlot(ctx, db.UpsertSlotParams{
		Scope: r.scope,
		Slot:  string(slot),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("q.UpsertSlot: %w", err)
	}

	return nil
}

func (r *slotPostgres) SetMany(ctx context.Context, values map[port.Slot][]byte) error {
	if err := validateValues(values); err != nil {
		return err
	}

	// sorted to keep row lock order stable across concurrent writers
	slots := slices.Sorted(maps.Keys(values))

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) error {
		for _, slot := range slots {
			err := q.UpsertSlot(ctx, db.UpsertSlotParams{
				Scope: r.scope,
				Slot:  string(slot),
				Value: values[slot],
			})
			if err != nil {
				return fmt.Errorf("q.UpsertSlot[%s]: %w", slot, err)
			}
		}
		return nil
	})
}

func (r *slotPostgres) Clear(ctx context.Context, slots ...port.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := validateSlots(slots...); err != nil {
		return err
	}

	_, err := r.q.DeleteSlots(ctx, db.DeleteSlotsParams{
		Scope: r.scope,
		Slots: slotNames(slots),
	})
	if err != nil {
		return fmt.Errorf("q.DeleteSlots: %w", err)
	}

	return nil
}

func (r *slotPostgres) ClearAll(ctx context.Context) error {
	if _, err := r.q.DeleteAllSlots(ctx, r.scope); err != nil {
		return fmt.Errorf("q.DeleteAllSlots: %w", err)
	}

	return nil
}
