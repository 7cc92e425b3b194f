// ABOUTME: Package documentation for the telegram package.
// ABOUTME: Describes the session lifecycle and the client abstraction.

// Package telegram owns the single long-lived Telegram session. The
// Manager serializes connects and hands out a shared Client handle; the
// gotd/td-backed implementation keeps the MTProto engine running in the
// background for the process lifetime. The session must already be
// authorized: there is no interactive login here, only a stored token.
package telegram
