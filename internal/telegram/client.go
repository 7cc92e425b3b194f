// ABOUTME: Client interface over the remote Telegram session used by the pipeline.
// ABOUTME: Narrow surface so handlers and tests can swap in fakes.

package telegram

import "context"

// Client is the capability the request pipeline needs from a Telegram
// session. Implementations own the wire protocol; callers treat every
// method as blocking I/O.
type Client interface {
	// Connect establishes the session. It must be called once before any
	// other method and fails if the stored session is not authorized.
	Connect(ctx context.Context) error

	// Close releases the session. Best effort; safe to call when the
	// connection already dropped.
	Close(ctx context.Context) error

	// Connected reports whether the underlying connection is still live.
	Connected() bool

	// ResolveUsername resolves an "@handle" style identifier (without the
	// leading "@") to a concrete entity.
	ResolveUsername(ctx context.Context, username string) (*Entity, error)

	// ResolveID resolves a numeric peer identifier against the session's
	// dialog list.
	ResolveID(ctx context.Context, id int64) (*Entity, error)

	// HistoryMessages returns up to limit most-recent messages for the
	// entity, newest first.
	HistoryMessages(ctx context.Context, e *Entity, limit int) ([]RawMessage, error)

	// SearchMessages returns up to limit messages matching the keyword,
	// filtered server-side, newest first.
	SearchMessages(ctx context.Context, e *Entity, keyword string, limit int) ([]RawMessage, error)

	// SearchDialogs scans the session's dialog list for conversations whose
	// title or username contains the keyword.
	SearchDialogs(ctx context.Context, keyword string, limit int) ([]DialogInfo, error)

	// Participants lists members of a group or channel. Returns
	// ErrNoMemberList for entity kinds without one.
	Participants(ctx context.Context, e *Entity, limit int) ([]Member, error)
}
