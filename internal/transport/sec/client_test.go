package sec

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

const tickersJSON = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	"1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"}
}`

const filingAtom = `<?xml version="1.0" encoding="ISO-8859-1"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>AAPL 10-K filings</title>
  <entry>
    <title>10-K - Apple Inc.</title>
    <content type="text/xml">
      <accession-number>0000320193-24-000123</accession-number>
      <filing-date>2024-11-01</filing-date>
      <filing-href>https://www.sec.gov/Archives/edgar/data/320193/000032019324000123-index.htm</filing-href>
      <filing-type>10-K</filing-type>
    </content>
  </entry>
  <entry>
    <title>10-K - Apple Inc.</title>
    <content type="text/xml">
      <accession-number>0000320193-23-000106</accession-number>
      <filing-date>2023-11-03</filing-date>
      <filing-href>https://www.sec.gov/Archives/edgar/data/320193/000032019323000106-index.htm</filing-href>
      <filing-type>10-K</filing-type>
    </content>
  </entry>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:            server.URL,
		UserAgent:          "curator test@example.com",
		RateLimitPerSecond: 10,
		Logger:             zap.NewNop(),
	})
}

func TestLookupCompany(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/company_tickers.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "curator test@example.com" {
			t.Errorf("User-Agent = %q", ua)
		}
		io.WriteString(w, tickersJSON)
	})

	company, err := client.LookupCompany(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("LookupCompany failed: %v", err)
	}
	if company.CIK != "0000320193" {
		t.Errorf("CIK = %q, expected zero-padded 0000320193", company.CIK)
	}
	if company.Name != "Apple Inc." || company.Ticker != "AAPL" {
		t.Errorf("company = %+v", company)
	}
}

func TestLookupCompany_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, tickersJSON)
	})

	_, err := client.LookupCompany(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestFetch10K(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/company_tickers.json":
			io.WriteString(w, tickersJSON)
		case "/cgi-bin/browse-edgar":
			q := r.URL.Query()
			if q.Get("CIK") != "0000320193" || q.Get("type") != "10-K" || q.Get("output") != "atom" {
				t.Errorf("unexpected query: %v", q)
			}
			io.WriteString(w, filingAtom)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	filings, err := client.Fetch10K(context.Background(), "AAPL", 2)
	if err != nil {
		t.Fatalf("Fetch10K failed: %v", err)
	}
	if len(filings) != 2 {
		t.Fatalf("expected 2 filings, got %d", len(filings))
	}

	first := filings[0]
	if first.AccessionNumber != "000032019324000123" {
		t.Errorf("accession = %q, expected dashes stripped", first.AccessionNumber)
	}
	if first.FilingDate.Format("2006-01-02") != "2024-11-01" {
		t.Errorf("filing date = %v", first.FilingDate)
	}
	if first.FiscalYear != "2024" {
		t.Errorf("fiscal year = %q", first.FiscalYear)
	}
	if first.CompanyName != "Apple Inc." || first.DocumentType != "10-K" {
		t.Errorf("filing = %+v", first)
	}
}

func TestDownloadFilingContent(t *testing.T) {
	page := `<html><head><style>body { color: red }</style>
		<script>alert("hi")</script></head>
		<body><h1>FORM 10-K</h1><p>Net sales increased <b>2%</b> in 2024.</p></body></html>`

	// DownloadFilingContent takes the absolute URL from the filing list.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, page)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:            server.URL,
		UserAgent:          "curator test@example.com",
		RateLimitPerSecond: 10,
		Logger:             zap.NewNop(),
	})

	text, err := client.DownloadFilingContent(context.Background(), server.URL+"/filing.htm")
	if err != nil {
		t.Fatalf("DownloadFilingContent failed: %v", err)
	}
	if !strings.Contains(text, "FORM 10-K") || !strings.Contains(text, "Net sales increased") {
		t.Errorf("text missing content: %q", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color: red") {
		t.Errorf("script/style leaked into text: %q", text)
	}
}

func TestRateLimiter_SpacesRequests(t *testing.T) {
	limiter := newRateLimiter(10) // 100ms interval

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First request is free, the next two wait ~100ms each.
	if elapsed < 150*time.Millisecond {
		t.Errorf("3 requests took %v, expected at least ~200ms of spacing", elapsed)
	}
}

func TestRateLimiter_ContextCanceled(t *testing.T) {
	limiter := newRateLimiter(1) // 1s interval

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
