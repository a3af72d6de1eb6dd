// Package arxiv implements the arXiv export API client.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/transport/htmltext"
)

// Client fetches paper metadata from the arXiv export API (Atom feeds).
// arXiv asks for no more than one request every three seconds; the client
// enforces a courtesy delay between calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	delay      time.Duration
	mu         sync.Mutex
	lastCall   time.Time
	logger     *zap.Logger
}

// Config holds arXiv client settings.
type Config struct {
	BaseURL string
	Logger  *zap.Logger
}

// NewClient creates an arXiv export API client.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		delay:      3 * time.Second,
		logger:     cfg.Logger,
	}
}

// Query describes one paper listing request.
type Query struct {
	Categories []string // e.g. ["cs.AI", "cs.LG"]; OR-combined
	From, To   string   // submittedDate range, YYYYMMDD, both or neither
	Start      int
	MaxResults int
}

// FetchPapers lists recent papers matching the query, newest first.
func (c *Client) FetchPapers(ctx context.Context, q Query) ([]domain.Paper, error) {
	c.courtesyWait(ctx)

	params := url.Values{
		"search_query": []string{buildSearchQuery(q)},
		"start":        []string{strconv.Itoa(q.Start)},
		"max_results":  []string{strconv.Itoa(q.MaxResults)},
		"sortBy":       []string{"submittedDate"},
		"sortOrder":    []string{"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv request: status %d", resp.StatusCode)
	}

	var feed paperFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		p := entry.toPaper()
		if p.ArxivID == "" {
			continue
		}
		papers = append(papers, p)
	}

	c.logger.Info("Fetched arXiv listing",
		zap.Strings("categories", q.Categories),
		zap.Int("papers", len(papers)))
	return papers, nil
}

// DownloadFullText fetches the paper's HTML rendering and returns its
// visible text. Older papers have no HTML rendering; callers fall back to
// the abstract on error.
func (c *Client) DownloadFullText(ctx context.Context, p domain.Paper) (string, error) {
	c.courtesyWait(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, htmlURLFor(p), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("arxiv html request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arxiv html request: status %d", resp.StatusCode)
	}

	text, err := htmltext.Extract(resp.Body)
	if err != nil {
		return "", fmt.Errorf("extract paper text: %w", err)
	}

	c.logger.Info("Downloaded paper full text",
		zap.String("arxiv_id", p.ArxivID),
		zap.Int("chars", len(text)))
	return text, nil
}

// htmlURLFor derives the HTML rendering URL from the PDF link arXiv already
// served in the listing, keeping the same host and version suffix.
func htmlURLFor(p domain.Paper) string {
	if p.PDFURL != "" {
		return strings.Replace(p.PDFURL, "/pdf/", "/html/", 1)
	}
	return "https://arxiv.org/html/" + p.ArxivID
}

// buildSearchQuery combines categories with OR and an optional date range.
func buildSearchQuery(q Query) string {
	cats := make([]string, 0, len(q.Categories))
	for _, c := range q.Categories {
		cats = append(cats, "cat:"+c)
	}
	query := strings.Join(cats, " OR ")
	if len(cats) > 1 {
		query = "(" + query + ")"
	}

	if q.From != "" && q.To != "" {
		dateRange := fmt.Sprintf("submittedDate:[%s0000 TO %s2359]", q.From, q.To)
		if query == "" {
			return dateRange
		}
		query += " AND " + dateRange
	}
	return query
}

func (c *Client) courtesyWait(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastCall.IsZero() {
		c.lastCall = time.Now()
		return
	}
	wait := c.delay - time.Since(c.lastCall)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	c.lastCall = time.Now()
}

type paperFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []paperEntry `xml:"entry"`
}

type paperEntry struct {
	ID        string `xml:"id"` // http://arxiv.org/abs/2401.01234v2
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"link"`
}

func (e paperEntry) toPaper() domain.Paper {
	p := domain.Paper{
		ArxivID:  arxivIDFromURL(e.ID),
		Title:    normalizeWhitespace(e.Title),
		Abstract: normalizeWhitespace(e.Summary),
	}
	for _, a := range e.Authors {
		p.Authors = append(p.Authors, a.Name)
	}
	for _, c := range e.Categories {
		p.Categories = append(p.Categories, c.Term)
	}
	for _, l := range e.Links {
		if l.Title == "pdf" {
			p.PDFURL = l.Href
		}
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Published = t
	}
	return p
}

// arxivIDFromURL extracts "2401.01234" from the entry id URL, dropping the
// version suffix so re-ingestion upserts the same row.
func arxivIDFromURL(id string) string {
	idx := strings.LastIndex(id, "/abs/")
	if idx < 0 {
		return ""
	}
	raw := id[idx+len("/abs/"):]
	if v := strings.LastIndex(raw, "v"); v > 0 && isDigits(raw[v+1:]) {
		raw = raw[:v]
	}
	return raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeWhitespace collapses the newline-wrapped text arXiv feeds emit.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
