// ABOUTME: Sentinel errors for the Telegram session layer.
// ABOUTME: Matched with errors.Is at the HTTP handler boundary.

package telegram

import "errors"

var (
	// ErrConnect means the session handshake could not complete after the
	// configured retries.
	ErrConnect = errors.New("telegram connect failed")

	// ErrNotAuthorized means the stored session token is missing or revoked
	// and an interactive login would be required.
	ErrNotAuthorized = errors.New("telegram session not authorized")

	// ErrNotFound means the remote side could not resolve the requested
	// peer. Covers unknown, inaccessible, and permission-denied peers alike.
	ErrNotFound = errors.New("telegram entity not found")

	// ErrNoMemberList means the entity kind has no enumerable member list.
	ErrNoMemberList = errors.New("entity has no member list")
)
