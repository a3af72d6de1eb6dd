package eval

// hitRateCutoffs are the k values reported as Hit Rate@k.
var hitRateCutoffs = []int{1, 3, 5, 10}

// rankingMetrics computes MRR and Hit Rate@k over responses paired with their
// relevant document id sets. Reciprocal rank is 1/rank of the first retrieved
// id found in the relevant set, 0 when none is.
func rankingMetrics(responses []RAGResponse, relevantDocIDs [][]string) RankingMetrics {
	n := len(responses)
	if n == 0 || len(relevantDocIDs) == 0 {
		return RankingMetrics{}
	}

	var mrrSum float64
	hits := make(map[int]int, len(hitRateCutoffs))

	for i, resp := range responses {
		if i >= len(relevantDocIDs) {
			break
		}
		relevant := make(map[string]bool, len(relevantDocIDs[i]))
		for _, id := range relevantDocIDs[i] {
			relevant[id] = true
		}

		firstRank := 0
		for rank, doc := range resp.SourceDocuments {
			if relevant[doc.ID] {
				firstRank = rank + 1
				break
			}
		}
		if firstRank > 0 {
			mrrSum += 1.0 / float64(firstRank)
			for _, k := range hitRateCutoffs {
				if firstRank <= k {
					hits[k]++
				}
			}
		}
	}

	nf := float64(n)
	return RankingMetrics{
		MRR:       mrrSum / nf,
		HitRate1:  float64(hits[1]) / nf,
		HitRate3:  float64(hits[3]) / nf,
		HitRate5:  float64(hits[5]) / nf,
		HitRate10: float64(hits[10]) / nf,
	}
}
