// Package sec implements the SEC EDGAR client: company lookup, filing lists,
// and filing content download, rate limited per EDGAR fair access rules.
package sec

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/transport/htmltext"
)

// Company is the result of a ticker lookup.
type Company struct {
	Ticker string
	CIK    string // zero-padded to 10 digits
	Name   string
}

// Filing is one entry from an EDGAR filing list.
type Filing struct {
	Ticker          string
	CIK             string
	CompanyName     string
	DocumentType    string // "10-K", "10-Q"
	AccessionNumber string // dashes stripped
	FilingDate      time.Time
	FiscalYear      string
	SourceURL       string
}

// Client accesses SEC EDGAR. EDGAR requires a User-Agent identifying the
// caller and at most 10 requests per second.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rateLimiter
	logger     *zap.Logger
}

// Config holds EDGAR client settings.
type Config struct {
	BaseURL            string
	UserAgent          string
	RateLimitPerSecond int
	Logger             *zap.Logger
}

// NewClient creates an EDGAR client.
func NewClient(cfg Config) *Client {
	rps := cfg.RateLimitPerSecond
	if rps <= 0 || rps > 10 {
		rps = 10
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		limiter:    newRateLimiter(rps),
		logger:     cfg.Logger,
	}
}

// LookupCompany resolves a ticker to its CIK via the company tickers file.
// Returns domain.ErrCompanyNotFound for unknown tickers.
func (c *Client) LookupCompany(ctx context.Context, ticker string) (Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	resp, err := c.get(ctx, c.baseURL+"/files/company_tickers.json")
	if err != nil {
		return Company{}, err
	}
	defer resp.Body.Close()

	// Keyed by arbitrary string indices, not tickers.
	var companies map[string]struct {
		CIK    json.Number `json:"cik_str"`
		Ticker string      `json:"ticker"`
		Title  string      `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&companies); err != nil {
		return Company{}, fmt.Errorf("decode company tickers: %w", err)
	}

	for _, entry := range companies {
		if entry.Ticker == ticker {
			return Company{
				Ticker: ticker,
				CIK:    fmt.Sprintf("%010s", entry.CIK.String()),
				Name:   entry.Title,
			}, nil
		}
	}

	return Company{}, fmt.Errorf("ticker %s: %w", ticker, domain.ErrCompanyNotFound)
}

// Fetch10K returns recent annual reports for a ticker.
func (c *Client) Fetch10K(ctx context.Context, ticker string, count int) ([]Filing, error) {
	return c.fetchFilings(ctx, ticker, "10-K", count)
}

// Fetch10Q returns recent quarterly reports for a ticker.
func (c *Client) Fetch10Q(ctx context.Context, ticker string, count int) ([]Filing, error) {
	return c.fetchFilings(ctx, ticker, "10-Q", count)
}

func (c *Client) fetchFilings(ctx context.Context, ticker, filingType string, count int) ([]Filing, error) {
	company, err := c.LookupCompany(ctx, ticker)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"action": []string{"getcompany"},
		"CIK":    []string{company.CIK},
		"type":   []string{filingType},
		"dateb":  []string{""},
		"owner":  []string{"exclude"},
		"count":  []string{strconv.Itoa(count)},
		"output": []string{"atom"},
	}

	resp, err := c.get(ctx, c.baseURL+"/cgi-bin/browse-edgar?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var feed filingFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse filing feed: %w", err)
	}

	filings := make([]Filing, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.AccessionNumber == "" || entry.FilingHref == "" {
			continue
		}

		f := Filing{
			Ticker:          company.Ticker,
			CIK:             company.CIK,
			CompanyName:     company.Name,
			DocumentType:    filingType,
			AccessionNumber: strings.ReplaceAll(entry.AccessionNumber, "-", ""),
			SourceURL:       entry.FilingHref,
		}
		if t, err := time.Parse("2006-01-02", entry.FilingDate); err == nil {
			f.FilingDate = t
			f.FiscalYear = strconv.Itoa(t.Year())
		}
		filings = append(filings, f)
	}

	c.logger.Info("Fetched filing list",
		zap.String("ticker", ticker),
		zap.String("type", filingType),
		zap.Int("count", len(filings)))
	return filings, nil
}

// DownloadFilingContent fetches a filing page and returns its visible text.
func (c *Client) DownloadFilingContent(ctx context.Context, sourceURL string) (string, error) {
	resp, err := c.get(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text, err := htmltext.Extract(resp.Body)
	if err != nil {
		return "", fmt.Errorf("extract filing text: %w", err)
	}

	c.logger.Info("Downloaded filing content",
		zap.String("url", sourceURL),
		zap.Int("chars", len(text)))
	return text, nil
}

// get issues a rate-limited GET with the mandatory EDGAR headers.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edgar request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("edgar request %s: status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// filingFeed maps the EDGAR browse Atom response. Filing details sit inside
// each entry's content element.
type filingFeed struct {
	XMLName xml.Name      `xml:"feed"`
	Entries []filingEntry `xml:"entry"`
}

type filingEntry struct {
	AccessionNumber string `xml:"content>accession-number"`
	FilingDate      string `xml:"content>filing-date"`
	FilingHref      string `xml:"content>filing-href"`
	FilingType      string `xml:"content>filing-type"`
}
