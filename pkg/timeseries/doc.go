// Package timeseries provides bounded time-series buffers for PV values.
//
// Two buffer kinds share one point type and one downsampling routine:
//
//   - Series is the client-side plot buffer. One Series is owned by one
//     plot widget. It prunes points older than the plot's time window on
//     every append and compacts by bin-averaging once the buffer exceeds
//     1.5x its target size, so memory stays bounded for arbitrarily long
//     sessions while the visual shape of the trend is preserved.
//
//   - Recorder is the server-side rolling history, keyed by PV name. It
//     backs the bulk history endpoint that plot widgets fetch once at
//     creation time.
//
// Timestamps are float64 milliseconds since the unix epoch throughout;
// the wire layers convert from the seconds used on the network.
//
// Compaction is lossy and deterministic: points are grouped into bins of
// equal time width and each non-empty bin is replaced by the average of
// its timestamps and values, in time order.
package timeseries
