// Package session maintains one websocket connection to a PV stream
// server on behalf of a dashboard. It owns the connection lifecycle
// (connect, reconnect with exponential backoff, close), decodes
// incoming frames, and replays the full subscription set from the
// registry after every reconnect so the server never needs to remember
// clients across connections.
//
// Writes (subscribe, unsubscribe, put) are only sent while the session
// is open; writes issued in any other state are dropped, not queued.
package session
