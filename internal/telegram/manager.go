// ABOUTME: Connection manager owning the single shared Telegram session.
// ABOUTME: Lazy single-flight connect, stale-handle redial, graceful shutdown.

package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// DialFunc constructs a fresh, unconnected Client. Called once per
// handshake attempt.
type DialFunc func() Client

// connectAttempt carries the shared outcome of one in-flight handshake so
// every caller racing on a cold start observes the same result.
type connectAttempt struct {
	done   chan struct{}
	client Client
	err    error
}

// Manager owns the single long-lived session handle shared by all
// requests. Connect attempts are serialized; use of a connected handle is
// not. A handle that reports itself dropped is discarded and redialed on
// the next acquire.
type Manager struct {
	dial   DialFunc
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	client  Client
	attempt *connectAttempt
}

// NewManager creates a Manager in the Disconnected state. No connection
// is made until the first Acquire.
func NewManager(dial DialFunc, logger *slog.Logger) *Manager {
	return &Manager{
		dial:   dial,
		logger: logger,
		state:  StateDisconnected,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Acquire returns a ready, authenticated handle, connecting lazily on
// first use. Concurrent callers while Disconnected share a single
// handshake. Callers never see a stale handle: if the session dropped,
// the manager transparently reconnects.
func (m *Manager) Acquire(ctx context.Context) (Client, error) {
	for {
		m.mu.Lock()
		switch m.state {
		case StateConnected:
			c := m.client
			if c.Connected() {
				m.mu.Unlock()
				return c, nil
			}
			// Detected drop: discard the handle and start clean.
			m.state = StateDisconnected
			m.client = nil
			m.mu.Unlock()
			m.logger.Warn("telegram session dropped, redialing")
			m.discard(c)

		case StateConnecting:
			att := m.attempt
			m.mu.Unlock()
			select {
			case <-att.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if att.err != nil {
				return nil, att.err
			}
			return att.client, nil

		case StateDisconnected:
			att := &connectAttempt{done: make(chan struct{})}
			m.state = StateConnecting
			m.attempt = att
			m.mu.Unlock()
			return m.connect(ctx, att)
		}
	}
}

// connect performs one handshake and publishes the outcome to waiters.
func (m *Manager) connect(ctx context.Context, att *connectAttempt) (Client, error) {
	c := m.dial()
	err := c.Connect(ctx)

	m.mu.Lock()
	if err != nil {
		// Clear the shared reference so the next acquire starts clean.
		m.state = StateDisconnected
		m.client = nil
	} else {
		m.state = StateConnected
		m.client = c
	}
	att.err = err
	if err == nil {
		att.client = c
	}
	m.attempt = nil
	close(att.done)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("telegram connect failed", "error", err)
		m.discard(c)
		return nil, err
	}
	m.logger.Info("telegram session connected")
	return c, nil
}

// discard tears down a handle that is no longer the shared reference.
func (m *Manager) discard(c Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		m.logger.Debug("discarding handle", "error", err)
	}
}

// Close gracefully disconnects the shared session, waiting for an
// in-flight handshake to settle first. It does not wait for in-flight
// requests.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnecting {
		att := m.attempt
		m.mu.Unlock()
		select {
		case <-att.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
	}
	c := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if c == nil {
		return nil
	}
	m.logger.Info("disconnecting telegram session")
	return c.Close(ctx)
}
