// ABOUTME: Entity resolver turning classified targets into concrete peers.
// ABOUTME: Consults the cache first; all remote resolution failures collapse to one error.

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lanternworks/telegate/internal/telegram"
)

// ErrEntityNotFound covers every remote resolution failure: unknown peer,
// not a participant, permission denied. The caller's remedy (check
// spelling and membership) is the same in all cases, so sub-reasons are
// not distinguished.
var ErrEntityNotFound = errors.New("entity not found")

// EntityCache stores resolved entities keyed by target. Access hashes are
// session-scoped, which is fine here: the cache lives alongside one session.
type EntityCache interface {
	GetEntity(ctx context.Context, key string) (*telegram.Entity, bool, error)
	PutEntity(ctx context.Context, key string, e *telegram.Entity) error
}

// Resolver resolves classified targets against the remote platform,
// caching results when a cache is configured.
type Resolver struct {
	cache  EntityCache // nil disables caching
	logger *slog.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(cache EntityCache, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:  cache,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve turns a target into a concrete entity via the given session
// handle. Cache hits skip the remote call entirely.
func (r *Resolver) Resolve(ctx context.Context, client telegram.Client, target Target) (*telegram.Entity, error) {
	key := target.CacheKey()
	if r.cache != nil {
		entity, ok, err := r.cache.GetEntity(ctx, key)
		if err != nil {
			r.logger.Warn("entity cache read failed", "key", key, "error", err)
		} else if ok {
			r.logger.Debug("entity cache hit", "key", key)
			return entity, nil
		}
	}

	var (
		entity *telegram.Entity
		err    error
	)
	if target.IsHandle() {
		entity, err = client.ResolveUsername(ctx, target.Handle)
	} else {
		entity, err = client.ResolveID(ctx, target.ID)
	}
	if err != nil {
		r.logger.Info("entity resolution failed", "target", target.String(), "error", err)
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, target)
	}

	if r.cache != nil {
		if err := r.cache.PutEntity(ctx, key, entity); err != nil {
			r.logger.Warn("entity cache write failed", "key", key, "error", err)
		}
	}
	return entity, nil
}
