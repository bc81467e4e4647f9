package search

import (
	"net/url"
	"strings"
)

const (
	DefaultTextURL   = "https://www.google.com/search?q=%s"
	DefaultUploadURL = "https://lens.google.com/v3/upload"
)

// Provider holds everything specific to the search engine in use.
type Provider struct {
	// TextURL is a template with one %s for the encoded query.
	TextURL   string
	UploadURL string
	UserAgent string
}

func DefaultProvider() Provider {
	return Provider{TextURL: DefaultTextURL, UploadURL: DefaultUploadURL}
}

// SearchURL builds the text search URL with the query percent-encoded.
func (p Provider) SearchURL(text string) string {
	tmpl := p.TextURL
	if !strings.Contains(tmpl, "%s") {
		tmpl = DefaultTextURL
	}
	return strings.Replace(tmpl, "%s", url.QueryEscape(text), 1)
}
