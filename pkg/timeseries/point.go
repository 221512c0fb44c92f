package timeseries

// Point is one sample in a time series.
type Point struct {
	// T is the sample time in milliseconds since the unix epoch.
	T float64

	// V is the sample value.
	V float64
}

// Downsample reduces a time-ordered point slice to at most maxPoints via
// bin averaging. The input is returned unchanged when it already fits.
//
// When all points share one timestamp the bin width degenerates to zero;
// evenly strided samples are returned instead so the result still honors
// maxPoints.
func Downsample(points []Point, maxPoints int) []Point {
	n := len(points)
	if n <= maxPoints || maxPoints < 1 {
		return points
	}

	t0 := points[0].T
	tRange := points[n-1].T - t0
	if tRange <= 0 {
		step := n / maxPoints
		if step < 1 {
			step = 1
		}
		out := make([]Point, 0, maxPoints)
		for i := 0; i < n && len(out) < maxPoints; i += step {
			out = append(out, points[i])
		}
		return out
	}

	binWidth := tRange / float64(maxPoints)
	return binAverage(points, t0, binWidth, maxPoints)
}

// binAverage walks points in order, accumulating per-bin sums, and emits
// one averaged point per non-empty bin. Bins start at t0 and have width
// binWidth; the final point lands in the last bin.
func binAverage(points []Point, t0, binWidth float64, maxBins int) []Point {
	out := make([]Point, 0, maxBins)

	bin := 0
	var sumT, sumV float64
	var count int

	flush := func() {
		if count > 0 {
			out = append(out, Point{T: sumT / float64(count), V: sumV / float64(count)})
			sumT, sumV, count = 0, 0, 0
		}
	}

	for _, p := range points {
		idx := int((p.T - t0) / binWidth)
		if idx >= maxBins {
			idx = maxBins - 1
		}
		if idx != bin {
			flush()
			bin = idx
		}
		sumT += p.T
		sumV += p.V
		count++
	}
	flush()

	return out
}
