// ABOUTME: Session storage bridging a pre-authenticated token to gotd.
// ABOUTME: The token is a base64 blob of gotd session data; updates stay in memory.

package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/session"
)

// tokenStorage implements session.Storage over an opaque session token.
// The token is produced by a prior interactive login and decodes to gotd's
// session payload. Rotated session data is kept in memory only; the token
// itself is the durable credential.
type tokenStorage struct {
	mu   sync.Mutex
	data []byte
}

func newTokenStorage(token string) (*tokenStorage, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("decoding session token: %w", err)
	}
	return &tokenStorage{data: raw}, nil
}

func (s *tokenStorage) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, session.ErrNotFound
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *tokenStorage) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make([]byte, len(data))
	copy(s.data, data)
	return nil
}
