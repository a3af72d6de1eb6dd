package chi

import "github.com/curator-labs/curator/internal/domain"

type hybridSearchRequest struct {
	Query      string   `json:"query"`
	Size       int      `json:"size"`
	UseHybrid  bool     `json:"use_hybrid"`
	Categories []string `json:"categories,omitempty"`
}

type hybridSearchResponse struct {
	Hits       []chunkHitJSON `json:"hits"`
	Total      int            `json:"total"`
	SearchMode string         `json:"search_mode"`
}

type askJSONRequest struct {
	Query        string   `json:"query"`
	DocumentType string   `json:"document_type"`
	Ticker       string   `json:"ticker,omitempty"`
	FilingTypes  []string `json:"filing_types,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	TopK         int      `json:"top_k"`
	UseHybrid    bool     `json:"use_hybrid"`
}

type askJSONResponse struct {
	Answer        string         `json:"answer"`
	Sources       []string       `json:"sources"`
	Citations     []string       `json:"citations,omitempty"`
	ContextChunks []chunkHitJSON `json:"context_chunks"`
	SearchMode    string         `json:"search_mode"`
	TokensUsed    int            `json:"tokens_used"`
	ModelUsed     string         `json:"model_used"`
}

type chunkHitJSON struct {
	ChunkID      string   `json:"chunk_id"`
	Score        float64  `json:"score"`
	ChunkText    string   `json:"chunk_text"`
	DocumentID   string   `json:"document_id"`
	ArxivID      string   `json:"arxiv_id,omitempty"`
	Title        string   `json:"title,omitempty"`
	PDFURL       string   `json:"pdf_url,omitempty"`
	Ticker       string   `json:"ticker,omitempty"`
	CompanyName  string   `json:"company_name,omitempty"`
	DocumentType string   `json:"document_type,omitempty"`
	FilingDate   string   `json:"filing_date,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
}

func hitsToJSON(hits []domain.ChunkHit) []chunkHitJSON {
	out := make([]chunkHitJSON, len(hits))
	for i, h := range hits {
		out[i] = chunkHitJSON{
			ChunkID:      h.ChunkID,
			Score:        h.Score,
			ChunkText:    h.Text,
			DocumentID:   h.DocumentID,
			ArxivID:      h.ArxivID,
			Title:        h.Title,
			PDFURL:       h.PDFURL,
			Ticker:       h.Ticker,
			CompanyName:  h.CompanyName,
			DocumentType: h.DocumentType,
			FilingDate:   h.FilingDate,
			SectionTitle: h.SectionTitle,
			Highlights:   h.Highlights,
		}
	}
	return out
}
