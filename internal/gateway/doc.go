// ABOUTME: Package documentation for the gateway package.
// ABOUTME: Describes the HTTP surface and the request pipeline.

// Package gateway is the telegate server core. It owns the HTTP surface,
// the shared Telegram session manager, and the resolve/fetch/normalize
// pipeline that every message request flows through.
//
// Requests never talk to Telegram directly; they acquire the shared
// session handle from the connection manager, resolve their target to a
// concrete entity, fetch one bounded message window, and return it as
// normalized JSON. Errors from any stage funnel through one mapping so
// the wire shapes stay uniform.
package gateway
