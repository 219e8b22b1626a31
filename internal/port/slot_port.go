package port

import (
	"context"
	"fmt"
)

type Slot string

const (
	SlotToken Slot = "token"
	SlotUser  Slot = "user"
	SlotCart  Slot = "cart"
)

var AllSlots = []Slot{SlotToken, SlotUser, SlotCart}

func (s Slot) Validate() error {
	switch s {
	case SlotToken, SlotUser, SlotCart:
		return nil
	}
	return fmt.Errorf("slot[%s] is not valid", string(s))
}

// SlotStore is durable key-value storage keyed by named slots.
// Get returns domain.ErrSlotNotFound when the slot was never set or was cleared.
type SlotStore interface {
	Get(ctx context.Context, slot Slot) ([]byte, error)
	Set(ctx context.Context, slot Slot, value []byte) error
	SetMany(ctx context.Context, values map[Slot][]byte) error
	Clear(ctx context.Context, slots ...Slot) error
	ClearAll(ctx context.Context) error
}
