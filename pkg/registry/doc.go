// Package registry implements per-session subscription bookkeeping for
// the live data pipeline.
//
// Each widget registers the set of PV names it is interested in. Several
// widgets may overlap on the same names; the transport only ever sees the
// union. The registry tracks the last set actually sent to the server and
// computes minimal subscribe/unsubscribe deltas:
//
//	reg.Register("w1", []string{"SIM:TEMP:1"})
//	d := reg.Diff() // ToSubscribe: {SIM:TEMP:1}
//	if !d.Empty() {
//	    // send subscribe/unsubscribe over the session
//	}
//
// Server-side subscription state is lost on disconnect. After a reconnect
// the session calls Resync, which returns the full current union as
// ToSubscribe and re-records it as sent, regardless of what had been sent
// on the previous connection. The sent set therefore always converges to
// the true union; divergence is corrected by the next diff, never
// accumulated.
package registry
