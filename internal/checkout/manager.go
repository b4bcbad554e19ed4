package checkout

import (
	"context"
	"errors"
	"sync"
)

var ErrNoCheckout = errors.New("checkout: no checkout started for session")

// Manager keeps the active flow of every guest session in memory. Abandoned
// flows never touch the cart; starting again begins at the shipping step.
type Manager struct {
	deps Deps

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, flows: make(map[string]*Flow)}
}

// Start replaces the session's flow with a fresh one. A flow with a payment
// in flight, or an approved order not yet recorded, is never replaced.
func (m *Manager) Start(ctx context.Context, sessionID, userID string) (*Flow, View, error) {
	m.mu.Lock()
	if cur, ok := m.flows[sessionID]; ok && cur.holdsPayment() {
		m.mu.Unlock()
		return nil, View{}, ErrPaymentInFlight
	}
	f := NewFlow(sessionID, userID, m.deps)
	m.flows[sessionID] = f
	m.mu.Unlock()

	v, err := f.View(ctx)
	if err != nil {
		return nil, View{}, err
	}
	return f, v, nil
}

func (m *Manager) Get(sessionID string) (*Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[sessionID]
	if !ok {
		return nil, ErrNoCheckout
	}
	return f, nil
}

// Drop forgets the session's flow unless it still holds a payment.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.flows[sessionID]; ok && !f.holdsPayment() {
		delete(m.flows, sessionID)
	}
}
