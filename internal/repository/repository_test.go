package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			"../migrations/01_slots.up.sql"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

// runSlotStoreContract checks the behavior every SlotStore backend shares.
// newStore must return an empty store on every call.
func runSlotStoreContract(t *testing.T, newStore func(t *testing.T) port.SlotStore) {
	t.Run("get absent slot: not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(t.Context(), port.SlotCart)
		require.ErrorIs(t, err, domain.ErrSlotNotFound)
	})

	t.Run("set then get: ok", func(t *testing.T) {
		store := newStore(t)
		value := randomValue()

		require.NoError(t, store.Set(t.Context(), port.SlotToken, value))

		got, err := store.Get(t.Context(), port.SlotToken)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("set overwrites: ok", func(t *testing.T) {
		store := newStore(t)
		second := randomValue()

		require.NoError(t, store.Set(t.Context(), port.SlotUser, randomValue()))
		require.NoError(t, store.Set(t.Context(), port.SlotUser, second))

		got, err := store.Get(t.Context(), port.SlotUser)
		require.NoError(t, err)
		assert.Equal(t, second, got)
	})

	t.Run("set many: ok", func(t *testing.T) {
		store := newStore(t)
		values := map[port.Slot][]byte{
			port.SlotToken: randomValue(),
			port.SlotUser:  randomValue(),
		}

		require.NoError(t, store.SetMany(t.Context(), values))

		for slot, want := range values {
			got, err := store.Get(t.Context(), slot)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("clear one slot keeps others: ok", func(t *testing.T) {
		store := newStore(t)
		cart := randomValue()

		require.NoError(t, store.Set(t.Context(), port.SlotToken, randomValue()))
		require.NoError(t, store.Set(t.Context(), port.SlotCart, cart))

		require.NoError(t, store.Clear(t.Context(), port.SlotToken))

		_, err := store.Get(t.Context(), port.SlotToken)
		require.ErrorIs(t, err, domain.ErrSlotNotFound)

		got, err := store.Get(t.Context(), port.SlotCart)
		require.NoError(t, err)
		assert.Equal(t, cart, got)
	})

	t.Run("clear absent slot: ok", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Clear(t.Context(), port.SlotUser))
	})

	t.Run("clear all: ok", func(t *testing.T) {
		store := newStore(t)

		for _, slot := range port.AllSlots {
			require.NoError(t, store.Set(t.Context(), slot, randomValue()))
		}

		require.NoError(t, store.ClearAll(t.Context()))

		for _, slot := range port.AllSlots {
			_, err := store.Get(t.Context(), slot)
			require.ErrorIs(t, err, domain.ErrSlotNotFound)
		}
	})

	t.Run("unknown slot: error", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(t.Context(), port.Slot("wishlist"), randomValue())
		require.EqualError(t, err, "slot[wishlist] is not valid")

		_, err = store.Get(t.Context(), port.Slot("wishlist"))
		require.EqualError(t, err, "slot[wishlist] is not valid")
	})
}

func randomValue() []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"name":%q}`, gofakeit.UUID(), gofakeit.ProductName()))
}
