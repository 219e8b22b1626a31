package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
)

type slotFile struct {
	mu  sync.Mutex
	dir string
}

// NewSlotFile keeps one file per slot under dir/scope. Each write replaces the
// file atomically so a crash never leaves a half-written slot behind.
func NewSlotFile(dir, scope string) (port.SlotStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is empty")
	}
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	// scopes map to sibling directories and never nest
	if scope == "." || scope == ".." || strings.ContainsAny(scope, `/\`) {
		return nil, fmt.Errorf("scope[%s] is not a valid directory name", scope)
	}

	scoped := filepath.Join(dir, scope)
	if err := os.MkdirAll(scoped, 0o700); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}

	return &slotFile{dir: scoped}, nil
}

func (r *slotFile) Get(ctx context.Context, slot port.Slot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value, err := os.ReadFile(r.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	return value, nil
}

func (r *slotFile) Set(ctx context.Context, slot port.Slot, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := slot.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(slot, value)
}

// SetMany writes slots one by one; a failure part way leaves earlier slots written.
func (r *slotFile) SetMany(ctx context.Context, values map[port.Slot][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateValues(values); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for slot, value := range values {
		if err := r.write(slot, value); err != nil {
			return err
		}
	}

	return nil
}

func (r *slotFile) Clear(ctx context.Context, slots ...port.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSlots(slots...); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range slots {
		err := os.Remove(r.path(slot))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("os.Remove: %w", err)
		}
	}

	return nil
}

func (r *slotFile) ClearAll(ctx context.Context) error {
	return r.Clear(ctx, port.AllSlots...)
}

func (r *slotFile) write(slot port.Slot, value []byte) (err error) {
	tmp, err := os.CreateTemp(r.dir, string(slot)+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tmp.Write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tmp.Sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path(slot)); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}

	return nil
}

func (r *slotFile) path(slot port.Slot) string {
	return filepath.Join(r.dir, string(slot)+".json")
}
