// Package htmltext extracts visible prose from HTML documents. EDGAR filing
// pages and arXiv HTML renderings are both HTML; downstream chunking only
// wants the text.
package htmltext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Extract returns the visible text of an HTML document, one line per text
// node, with script and style content dropped.
func Extract(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var (
		sb   strings.Builder
		skip int
	)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return sb.String(), nil
			}
			return "", tokenizer.Err() //nolint:wrapcheck
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}
}

func isSkippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}
