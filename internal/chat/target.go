// ABOUTME: Target identifier classification for chat requests.
// ABOUTME: "@handle" or integer ID; anything else is rejected before any remote call.

package chat

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidTarget means the target identifier is neither an "@handle"
// nor an integer peer ID.
var ErrInvalidTarget = errors.New("invalid target identifier")

// Target is a classified target identifier: either a handle or a numeric
// peer ID, never both.
type Target struct {
	Handle string // without the leading "@"; empty for numeric targets
	ID     int64
}

// IsHandle reports whether the target is a handle-style identifier.
func (t Target) IsHandle() bool {
	return t.Handle != ""
}

// CacheKey returns a stable key for the resolved-entity cache.
func (t Target) CacheKey() string {
	if t.IsHandle() {
		return "@" + strings.ToLower(t.Handle)
	}
	return "id:" + strconv.FormatInt(t.ID, 10)
}

func (t Target) String() string {
	if t.IsHandle() {
		return "@" + t.Handle
	}
	return strconv.FormatInt(t.ID, 10)
}

// ParseTarget classifies a raw target identifier. Checked in order:
// leading "@" makes a handle, an integer-parseable value makes a numeric
// ID, anything else fails with ErrInvalidTarget.
func ParseTarget(raw string) (Target, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "@") {
		handle := s[1:]
		if handle == "" {
			return Target{}, ErrInvalidTarget
		}
		return Target{Handle: handle}, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Target{ID: id}, nil
	}
	return Target{}, ErrInvalidTarget
}
