// Package history fetches cached time-series history from a PV stream
// server over HTTP. A fetch is a one-shot, best-effort operation used
// to backfill plots when a dashboard opens; fetch failures leave the
// plot with live points only.
package history
