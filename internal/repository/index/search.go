package index

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

// SearchHybrid runs a hybrid BM25 + kNN query fused by the RRF pipeline.
func (r *Repo) SearchHybrid(
	ctx context.Context,
	corpus domain.Corpus,
	query string,
	embedding []float32,
	size int,
	filters domain.SearchFilters,
) ([]domain.ChunkHit, int, error) {
	bm25 := bm25Query(corpus, query, filters)

	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"hybrid": map[string]any{
				"queries": []any{
					bm25,
					map[string]any{
						"knn": map[string]any{
							"embedding": map[string]any{
								"vector": embedding,
								"k":      size * 2,
							},
						},
					},
				},
			},
		},
		"_source":   map[string]any{"excludes": []string{"embedding"}},
		"highlight": highlightBlock(),
	}

	params := url.Values{"search_pipeline": []string{r.pipeline}}
	return r.search(ctx, corpus, body, params)
}

// SearchBM25 runs a pure keyword query, used when hybrid mode is off or no
// query embedding is available.
func (r *Repo) SearchBM25(
	ctx context.Context,
	corpus domain.Corpus,
	query string,
	size int,
	filters domain.SearchFilters,
) ([]domain.ChunkHit, int, error) {
	body := map[string]any{
		"size":      size,
		"query":     bm25Query(corpus, query, filters),
		"_source":   map[string]any{"excludes": []string{"embedding"}},
		"highlight": highlightBlock(),
	}
	return r.search(ctx, corpus, body, nil)
}

func (r *Repo) search(ctx context.Context, corpus domain.Corpus, body map[string]any, params url.Values) ([]domain.ChunkHit, int, error) {
	var result searchResponse
	path := "/" + r.indexFor(corpus) + "/_search"
	if err := r.do(ctx, http.MethodPost, path, params, body, &result); err != nil {
		return nil, 0, err
	}

	hits := make([]domain.ChunkHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hit := h.Source.toHit()
		hit.ChunkID = h.ID
		hit.Score = h.Score
		hit.Highlights = h.Highlight.ChunkText
		hits = append(hits, hit)
	}
	r.logger.Debug("Chunk search completed",
		zap.String("corpus", string(corpus)),
		zap.Int("results", result.Hits.Total.Value))
	return hits, result.Hits.Total.Value, nil
}

// bm25Query builds the keyword part of a chunk search. Field boosts follow
// the corpus: papers weight the title, filings weight the company name.
func bm25Query(corpus domain.Corpus, query string, filters domain.SearchFilters) map[string]any {
	var should []any
	if corpus == domain.CorpusFinancial {
		should = []any{
			map[string]any{"match": map[string]any{"chunk_text": map[string]any{"query": query, "boost": 2.0}}},
			map[string]any{"match": map[string]any{"company_name": map[string]any{"query": query, "boost": 1.5}}},
			map[string]any{"match": map[string]any{"section_title": map[string]any{"query": query, "boost": 1.0}}},
		}
	} else {
		should = []any{
			map[string]any{"match": map[string]any{"chunk_text": map[string]any{"query": query, "boost": 2.0}}},
			map[string]any{"match": map[string]any{"title": map[string]any{"query": query, "boost": 1.5}}},
			map[string]any{"match": map[string]any{"abstract": map[string]any{"query": query, "boost": 1.0}}},
		}
	}

	boolQuery := map[string]any{"should": should}

	var filter []any
	if filters.Ticker != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"ticker_symbol": strings.ToUpper(filters.Ticker)}})
	}
	if len(filters.FilingTypes) > 0 {
		filter = append(filter, map[string]any{"terms": map[string]any{"document_type": filters.FilingTypes}})
	}
	if len(filters.Categories) > 0 {
		filter = append(filter, map[string]any{"terms": map[string]any{"categories": filters.Categories}})
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]any{"bool": boolQuery}
}

func highlightBlock() map[string]any {
	return map[string]any{
		"fields": map[string]any{
			"chunk_text": map[string]any{
				"fragment_size":       150,
				"number_of_fragments": 3,
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string      `json:"_id"`
			Score     float64     `json:"_score"`
			Source    chunkSource `json:"_source"`
			Highlight struct {
				ChunkText []string `json:"chunk_text"`
			} `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

