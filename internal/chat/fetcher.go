// ABOUTME: Bounded message fetch against a resolved entity.
// ABOUTME: Keyword goes to server-side search; no local filtering, no pagination.

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lanternworks/telegate/internal/telegram"
)

// ErrFetch means message retrieval failed after a successful resolution.
var ErrFetch = errors.New("fetching messages failed")

// DefaultLimit is the message window size when the request names none.
const DefaultLimit = 50

// Query describes one bounded fetch.
type Query struct {
	Entity  *telegram.Entity
	Keyword string
	Limit   int
}

// Fetcher retrieves a single bounded window of messages. The remote side
// may return fewer than Limit; order is the platform's, most recent first.
type Fetcher struct {
	logger *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{logger: logger.With("component", "fetcher")}
}

// Fetch performs one bounded call. A non-empty keyword is passed through
// to the platform's search; otherwise plain history is requested.
func (f *Fetcher) Fetch(ctx context.Context, client telegram.Client, q Query) ([]telegram.RawMessage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		msgs []telegram.RawMessage
		err  error
	)
	if q.Keyword != "" {
		msgs, err = client.SearchMessages(ctx, q.Entity, q.Keyword, limit)
	} else {
		msgs, err = client.HistoryMessages(ctx, q.Entity, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	f.logger.Debug("fetched messages",
		"peer_id", q.Entity.ID,
		"keyword", q.Keyword,
		"limit", limit,
		"count", len(msgs),
	)
	return msgs, nil
}
