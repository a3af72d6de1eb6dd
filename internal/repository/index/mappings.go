package index

// chunkIndexBody builds the index settings and mapping for a chunk index.
// Both corpora share one shape; parent metadata is denormalized into every
// chunk so search results need no catalog join. Dynamic mapping is strict to
// catch field drift at index time.
func chunkIndexBody(dimension int) map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"index.knn":          true,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"standard_analyzer": map[string]any{
						"type":      "standard",
						"stopwords": "_english_",
					},
					"text_analyzer": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "stop", "snowball"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"dynamic": "strict",
			"properties": map[string]any{
				"chunk_id":    map[string]any{"type": "keyword"},
				"chunk_index": map[string]any{"type": "integer"},
				"chunk_text": map[string]any{
					"type":     "text",
					"analyzer": "text_analyzer",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"chunk_word_count": map[string]any{"type": "integer"},
				"start_char":       map[string]any{"type": "integer"},
				"end_char":         map[string]any{"type": "integer"},

				"embedding": map[string]any{
					"type":      "knn_vector",
					"dimension": dimension,
					"method": map[string]any{
						"name":       "hnsw",
						"space_type": "cosinesimil",
						"engine":     "nmslib",
						"parameters": map[string]any{
							"ef_construction": 512,
							"m":               16,
						},
					},
				},

				"document_id": map[string]any{"type": "keyword"},

				// Financial metadata.
				"ticker_symbol": map[string]any{
					"type": "keyword",
					"fields": map[string]any{
						"text": map[string]any{"type": "text", "analyzer": "standard_analyzer"},
					},
				},
				"company_name": map[string]any{
					"type":     "text",
					"analyzer": "text_analyzer",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"cik":              map[string]any{"type": "keyword"},
				"document_type":    map[string]any{"type": "keyword"},
				"fiscal_year":      map[string]any{"type": "keyword"},
				"fiscal_period":    map[string]any{"type": "keyword"},
				"filing_date":      map[string]any{"type": "date"},
				"accession_number": map[string]any{"type": "keyword"},

				// Paper metadata.
				"arxiv_id": map[string]any{"type": "keyword"},
				"title": map[string]any{
					"type":     "text",
					"analyzer": "text_analyzer",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"abstract": map[string]any{
					"type":     "text",
					"analyzer": "text_analyzer",
				},
				"authors":    map[string]any{"type": "keyword"},
				"categories": map[string]any{"type": "keyword"},
				"pdf_url":    map[string]any{"type": "keyword"},

				"section_title":   map[string]any{"type": "keyword"},
				"embedding_model": map[string]any{"type": "keyword"},
				"created_at":      map[string]any{"type": "date"},
			},
		},
	}
}

// rrfPipelineBody builds the shared hybrid search pipeline. The score-ranker
// processor fuses the BM25 and kNN result lists with reciprocal rank fusion,
// 1/(rank_constant+rank) with the standard constant of 60.
func rrfPipelineBody() map[string]any {
	return map[string]any{
		"description": "Post processor for hybrid RRF search",
		"phase_results_processors": []any{
			map[string]any{
				"score-ranker-processor": map[string]any{
					"combination": map[string]any{
						"technique":     "rrf",
						"rank_constant": 60,
					},
				},
			},
		},
	}
}
