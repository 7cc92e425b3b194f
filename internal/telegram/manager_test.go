// ABOUTME: Tests for the connection manager lifecycle.
// ABOUTME: Covers single-flight connects, stale-handle redial, and shutdown.

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a controllable Client for manager tests.
type fakeClient struct {
	mu         sync.Mutex
	connectErr error
	connected  bool
	closed     bool
	connectGate chan struct{} // if set, Connect blocks until closed
}

func (f *fakeClient) Connect(ctx context.Context) error {
	if f.connectGate != nil {
		select {
		case <-f.connectGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.closed = true
	return nil
}

func (f *fakeClient) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) setDropped() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeClient) ResolveUsername(ctx context.Context, username string) (*Entity, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) ResolveID(ctx context.Context, id int64) (*Entity, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) HistoryMessages(ctx context.Context, e *Entity, limit int) ([]RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) SearchMessages(ctx context.Context, e *Entity, keyword string, limit int) ([]RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) SearchDialogs(ctx context.Context, keyword string, limit int) ([]DialogInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Participants(ctx context.Context, e *Entity, limit int) ([]Member, error) {
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestManagerStartsDisconnected(t *testing.T) {
	m := NewManager(func() Client { return &fakeClient{} }, testLogger())
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManagerAcquireConnectsLazily(t *testing.T) {
	var dials atomic.Int32
	m := NewManager(func() Client {
		dials.Add(1)
		return &fakeClient{}
	}, testLogger())

	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, int32(1), dials.Load())
}

func TestManagerAcquireReusesHandle(t *testing.T) {
	var dials atomic.Int32
	m := NewManager(func() Client {
		dials.Add(1)
		return &fakeClient{}
	}, testLogger())

	c1, err := m.Acquire(context.Background())
	require.NoError(t, err)
	c2, err := m.Acquire(context.Background())
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), dials.Load())
}

func TestManagerConcurrentAcquireSharesOneHandshake(t *testing.T) {
	gate := make(chan struct{})
	var dials atomic.Int32
	m := NewManager(func() Client {
		dials.Add(1)
		return &fakeClient{connectGate: gate}
	}, testLogger())

	const callers = 8
	var wg sync.WaitGroup
	clients := make([]Client, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], errs[i] = m.Acquire(context.Background())
		}(i)
	}

	// Let all callers pile up on the single in-flight handshake.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), dials.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, clients[0], clients[i])
	}
}

func TestManagerRedialsStaleHandle(t *testing.T) {
	var dials atomic.Int32
	var first *fakeClient
	m := NewManager(func() Client {
		dials.Add(1)
		c := &fakeClient{}
		if first == nil {
			first = c
		}
		return c
	}, testLogger())

	c1, err := m.Acquire(context.Background())
	require.NoError(t, err)

	first.setDropped()

	c2, err := m.Acquire(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Equal(t, int32(2), dials.Load())
	assert.True(t, first.isClosed(), "dropped handle should be torn down")
	assert.Equal(t, StateConnected, m.State())
}

func TestManagerConnectFailureLeavesCleanState(t *testing.T) {
	wantErr := errors.New("handshake refused")
	fail := true
	m := NewManager(func() Client {
		if fail {
			return &fakeClient{connectErr: wantErr}
		}
		return &fakeClient{}
	}, testLogger())

	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, StateDisconnected, m.State())

	// A later attempt starts fresh and can succeed.
	fail = false
	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, StateConnected, m.State())
}

func TestManagerConcurrentAcquireSharesFailure(t *testing.T) {
	gate := make(chan struct{})
	wantErr := errors.New("handshake refused")
	var dials atomic.Int32
	m := NewManager(func() Client {
		dials.Add(1)
		return &fakeClient{connectGate: gate, connectErr: wantErr}
	}, testLogger())

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Acquire(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), dials.Load())
	for i := 0; i < callers; i++ {
		assert.ErrorIs(t, errs[i], wantErr)
	}
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManagerClose(t *testing.T) {
	var handle *fakeClient
	m := NewManager(func() Client {
		handle = &fakeClient{}
		return handle
	}, testLogger())

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Close(context.Background()))
	assert.Equal(t, StateDisconnected, m.State())
	assert.True(t, handle.isClosed())
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	m := NewManager(func() Client { return &fakeClient{} }, testLogger())
	require.NoError(t, m.Close(context.Background()))
	assert.Equal(t, StateDisconnected, m.State())
}
