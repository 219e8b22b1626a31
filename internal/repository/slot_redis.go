package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
	"github.com/redis/go-redis/v9"
)

type slotRedis struct {
	client *redis.Client
	scope  string
}

// NewSlotRedis stores slots as plain keys without expiry: slots must survive
// until explicitly cleared.
func NewSlotRedis(client *redis.Client, scope string) (port.SlotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	return &slotRedis{
		client: client,
		scope:  scope,
	}, nil
}

func (r *slotRedis) Get(ctx context.Context, slot port.Slot) ([]byte, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	value, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("client.Get: %w", err)
	}

	return value, nil
}

func (r *slotRedis) Set(ctx context.Context, slot port.Slot, value []byte) error {
	if err := slot.Validate(); err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(slot), value, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (r *slotRedis) SetMany(ctx context.Context, values map[port.Slot][]byte) error {
	if err := validateValues(values); err != nil {
		return err
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for slot, value := range values {
			pipe.Set(ctx, r.key(slot), value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("client.TxPipelined: %w", err)
	}

	return nil
}

func (r *slotRedis) Clear(ctx context.Context, slots ...port.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := validateSlots(slots...); err != nil {
		return err
	}

	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, r.key(slot))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("client.Del: %w", err)
	}

	return nil
}

func (r *slotRedis) ClearAll(ctx context.Context) error {
	return r.Clear(ctx, port.AllSlots...)
}

func (r *slotRedis) key(slot port.Slot) string {
	return fmt.Sprintf("shopcart:%s:%s", r.scope, slot)
}
