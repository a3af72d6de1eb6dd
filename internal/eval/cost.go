package eval

// DefaultCostPer1KTokens approximates gpt-3.5-turbo pricing.
const DefaultCostPer1KTokens = 0.0015

// costMetrics sums token usage and estimates spend at a per-1k-token rate.
func costMetrics(responses []RAGResponse, costPer1K float64) CostMetrics {
	var total int
	for _, r := range responses {
		total += r.TokensUsed
	}

	m := CostMetrics{
		TotalTokens:      total,
		EstimatedCostUSD: float64(total) / 1000 * costPer1K,
	}
	if n := len(responses); n > 0 {
		m.AvgTokensPerQuery = float64(total) / float64(n)
	}
	return m
}
