package eval

import (
	"math"
	"math/rand"
	"testing"
)

func respWithSources(ids ...string) RAGResponse {
	r := RAGResponse{}
	for _, id := range ids {
		r.SourceDocuments = append(r.SourceDocuments, SourceDocument{ID: id})
	}
	return r
}

func TestRankingMetrics_NoRelevantRetrieved(t *testing.T) {
	responses := []RAGResponse{
		respWithSources("X", "Y"),
		respWithSources("Z"),
	}
	relevant := [][]string{{"A"}, {"B"}}

	m := rankingMetrics(responses, relevant)
	if m.MRR != 0 || m.HitRate1 != 0 || m.HitRate3 != 0 || m.HitRate5 != 0 || m.HitRate10 != 0 {
		t.Errorf("expected all zeros, got %+v", m)
	}
}

func TestRankingMetrics_ReciprocalRank(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		wantMRR   float64
	}{
		{"rank 1", []string{"A", "X"}, 1.0},
		{"rank 2", []string{"X", "A"}, 0.5},
		{"rank 4", []string{"X", "Y", "Z", "A"}, 0.25},
		{"missing", []string{"X", "Y"}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := rankingMetrics([]RAGResponse{respWithSources(tt.retrieved...)}, [][]string{{"A"}})
			if math.Abs(m.MRR-tt.wantMRR) > 1e-9 {
				t.Errorf("MRR = %v, want %v", m.MRR, tt.wantMRR)
			}
		})
	}
}

func TestRankingMetrics_TwoQuestionScenario(t *testing.T) {
	responses := []RAGResponse{
		respWithSources("A", "C"),
		respWithSources("C", "D"),
	}
	relevant := [][]string{{"A"}, {"B"}}

	m := rankingMetrics(responses, relevant)
	if math.Abs(m.MRR-0.5) > 1e-9 {
		t.Errorf("MRR = %v, want 0.5", m.MRR)
	}
	if math.Abs(m.HitRate1-0.5) > 1e-9 {
		t.Errorf("HitRate@1 = %v, want 0.5", m.HitRate1)
	}
	if math.Abs(m.HitRate3-0.5) > 1e-9 {
		t.Errorf("HitRate@3 = %v, want 0.5", m.HitRate3)
	}
}

func TestRankingMetrics_HitRateCutoffs(t *testing.T) {
	// Relevant document at rank 4: inside @5 and @10, outside @1 and @3.
	responses := []RAGResponse{respWithSources("X", "Y", "Z", "A")}
	m := rankingMetrics(responses, [][]string{{"A"}})

	if m.HitRate1 != 0 || m.HitRate3 != 0 {
		t.Errorf("expected misses at small cutoffs, got %+v", m)
	}
	if m.HitRate5 != 1 || m.HitRate10 != 1 {
		t.Errorf("expected hits at large cutoffs, got %+v", m)
	}
}

func TestLatencyMetrics_IdempotentUnderShuffle(t *testing.T) {
	ordered := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	shuffled := make([]float64, len(ordered))
	copy(shuffled, ordered)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a := latencyMetrics(ordered)
	b := latencyMetrics(shuffled)
	if a != b {
		t.Errorf("metrics differ: %+v vs %+v", a, b)
	}
}

func TestLatencyMetrics_SingleSample(t *testing.T) {
	m := latencyMetrics([]float64{42})
	if m.AvgMs != 42 || m.P50Ms != 42 || m.P95Ms != 42 || m.P99Ms != 42 {
		t.Errorf("metrics = %+v, expected 42 everywhere", m)
	}
}

func TestLatencyMetrics_Empty(t *testing.T) {
	if m := latencyMetrics(nil); m != (LatencyMetrics{}) {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}

func TestCostMetrics(t *testing.T) {
	responses := []RAGResponse{{TokensUsed: 1500}, {TokensUsed: 500}}
	m := costMetrics(responses, 0.0015)

	if m.TotalTokens != 2000 {
		t.Errorf("total = %d", m.TotalTokens)
	}
	if math.Abs(m.AvgTokensPerQuery-1000) > 1e-9 {
		t.Errorf("avg = %v", m.AvgTokensPerQuery)
	}
	if math.Abs(m.EstimatedCostUSD-0.003) > 1e-9 {
		t.Errorf("cost = %v", m.EstimatedCostUSD)
	}
}

func TestCostMetrics_ZeroTokens(t *testing.T) {
	m := costMetrics([]RAGResponse{{}, {}}, 0.0015)
	if m.EstimatedCostUSD != 0 {
		t.Errorf("cost = %v, want 0", m.EstimatedCostUSD)
	}
}
