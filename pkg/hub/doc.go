// Package hub is the server side of the PV stream. It accepts
// websocket clients, tracks each client's PV subscriptions against an
// instrument provider, fans value updates out as JSON frames, and
// serves cached time-series history over HTTP for plot backfill.
//
// The hub keeps no subscription state across connections; a client
// that reconnects is expected to resubscribe from scratch.
package hub
