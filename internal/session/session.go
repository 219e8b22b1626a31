// Package session keeps the authenticated identity in the token and user
// slots. The cart slot is never touched here: losing a session does not
// empty the cart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/port"
	"go.uber.org/zap"
)

type Manager struct {
	slots port.SlotStore
	log   *zap.Logger

	mu    sync.RWMutex
	token string
	user  *domain.User
}

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func NewManager(slots port.SlotStore, opts ...Option) *Manager {
	m := &Manager{
		slots: slots,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("session")
	return m
}

// Rehydrate restores the session from the token and user slots.
// Both must be present and readable, otherwise the session starts
// unauthenticated. Only a done context is reported.
func (m *Manager) Rehydrate(ctx context.Context) error {
	token, user, err := m.load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, domain.ErrSlotNotFound) {
			m.log.Warn("session slots unreadable, starting unauthenticated", zap.Error(err))
		}
		m.set("", nil)
		return nil
	}

	m.set(token, &user)
	return nil
}

// Start records a fresh session. Token and user are written together.
func (m *Manager) Start(ctx context.Context, token string, user domain.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	tokenData, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("json.Marshal token: %w", err)
	}
	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("json.Marshal user: %w", err)
	}

	err = m.slots.SetMany(ctx, map[port.Slot][]byte{
		port.SlotToken: tokenData,
		port.SlotUser:  userData,
	})
	if err != nil {
		return fmt.Errorf("slots.SetMany: %w", err)
	}

	m.set(token, &user)
	m.log.Info("session started", zap.String("user_id", user.ID))
	return nil
}

func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Manager) User() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// Invalidate drops the session after the backend rejected its token.
func (m *Manager) Invalidate(ctx context.Context) {
	m.drop(ctx, "session invalidated")
}

func (m *Manager) Logout(ctx context.Context) {
	m.drop(ctx, "logged out")
}

func (m *Manager) drop(ctx context.Context, reason string) {
	m.set("", nil)

	if err := m.slots.Clear(ctx, port.SlotToken, port.SlotUser); err != nil {
		// the stale token would come back on the next start
		m.log.Error("session slots clear failed", zap.String("reason", reason), zap.Error(err))
		return
	}
	m.log.Info(reason)
}

func (m *Manager) load(ctx context.Context) (string, domain.User, error) {
	tokenData, err := m.slots.Get(ctx, port.SlotToken)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("slots.Get token: %w", err)
	}
	userData, err := m.slots.Get(ctx, port.SlotUser)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("slots.Get user: %w", err)
	}

	var token string
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return "", domain.User{}, fmt.Errorf("json.Unmarshal token: %w", err)
	}
	if token == "" {
		return "", domain.User{}, domain.ErrSlotNotFound
	}

	var user domain.User
	if err := json.Unmarshal(userData, &user); err != nil {
		return "", domain.User{}, fmt.Errorf("json.Unmarshal user: %w", err)
	}

	return token, user, nil
}

func (m *Manager) set(token string, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user
}
