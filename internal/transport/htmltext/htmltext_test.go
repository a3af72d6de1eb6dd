package htmltext

import (
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	page := `<html><head><title>Doc</title><style>h1 { color: red }</style>
		<script>window.x = 1;</script></head>
		<body><h1>Heading</h1><p>First <b>bold</b> paragraph.</p>
		<noscript>enable js</noscript></body></html>`

	text, err := Extract(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for _, want := range []string{"Doc", "Heading", "bold", "paragraph."} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	for _, banned := range []string{"color: red", "window.x", "enable js"} {
		if strings.Contains(text, banned) {
			t.Errorf("non-prose content %q leaked:\n%s", banned, text)
		}
	}
}

func TestExtract_PlainText(t *testing.T) {
	text, err := Extract(strings.NewReader("just words"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "just words" {
		t.Errorf("text = %q", text)
	}
}
