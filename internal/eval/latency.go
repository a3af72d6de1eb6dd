package eval

import "sort"

// latencyMetrics computes average and p50/p95/p99 over observed latencies.
// Percentiles index the sorted slice at floor(n*p); p99 falls back to the
// maximum when fewer than two samples exist.
func latencyMetrics(latencies []float64) LatencyMetrics {
	n := len(latencies)
	if n == 0 {
		return LatencyMetrics{}
	}

	sorted := make([]float64, n)
	copy(sorted, latencies)
	sort.Float64s(sorted)

	var sum float64
	for _, l := range latencies {
		sum += l
	}

	m := LatencyMetrics{
		AvgMs: sum / float64(n),
		P50Ms: sorted[percentileIndex(n, 0.50)],
		P95Ms: sorted[percentileIndex(n, 0.95)],
	}
	if n > 1 {
		m.P99Ms = sorted[percentileIndex(n, 0.99)]
	} else {
		m.P99Ms = sorted[n-1]
	}
	return m
}

func percentileIndex(n int, p float64) int {
	i := int(float64(n) * p)
	if i >= n {
		i = n - 1
	}
	return i
}
