// Package instrument provides access to process variables on the
// instrument side of the stream server. A Provider monitors PVs and
// fires callbacks on value changes; the simulated provider generates
// realistic beamline data from a channel table so the whole stack runs
// without a control system.
package instrument
