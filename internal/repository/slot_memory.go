package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
)

type slotMemory struct {
	mu     sync.RWMutex
	values map[port.Slot][]byte
}

func NewSlotMemory() port.SlotStore {
	return &slotMemory{
		values: make(map[port.Slot][]byte),
	}
}

func (r *slotMemory) Get(_ context.Context, slot port.Slot) ([]byte, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[slot]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}

	return slices.Clone(value), nil
}

func (r *slotMemory) Set(_ context.Context, slot port.Slot, value []byte) error {
	if err := slot.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[slot] = slices.Clone(value)
	return nil
}

func (r *slotMemory) SetMany(_ context.Context, values map[port.Slot][]byte) error {
	if err := validateValues(values); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for slot, value := range values {
		r.values[slot] = slices.Clone(value)
	}
	return nil
}

func (r *slotMemory) Clear(_ context.Context, slots ...port.Slot) error {
	if err := validateSlots(slots...); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range slots {
		delete(r.values, slot)
	}
	return nil
}

func (r *slotMemory) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.values)
	return nil
}
