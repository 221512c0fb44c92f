package timeseries

// MergeBackfill reconciles a bulk history snapshot with live points that
// arrived while the fetch was in flight, producing one gap-free series.
//
// All of history is kept; live points are appended only when their T is
// strictly greater than the last history point's T, which avoids
// duplicate or out-of-order points at the seam. Both inputs must be
// sorted by T ascending. An empty history returns live unchanged.
func MergeBackfill(history, live []Point) []Point {
	if len(history) == 0 {
		return live
	}

	seam := history[len(history)-1].T
	out := make([]Point, 0, len(history)+len(live))
	out = append(out, history...)
	for _, p := range live {
		if p.T > seam {
			out = append(out, p)
		}
	}
	return out
}
