package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Baike fetches an encyclopedia entry: the description comes from the
// og:description meta tag (required), the title from og:title (falls back to
// the word).
type Baike struct {
	baseURL string
	client  *http.Client
}

// NewBaike builds a fetcher for entry pages under baseURL. A nil client uses
// http.DefaultClient.
func NewBaike(baseURL string, client *http.Client) *Baike {
	if client == nil {
		client = http.DefaultClient
	}
	return &Baike{baseURL: baseURL, client: client}
}

// Fetch implements Fetcher.
func (b *Baike) Fetch(ctx context.Context, word string) (*Content, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, ErrContentNotFound
	}
	doc, err := getPage(ctx, b.client, b.baseURL+url.PathEscape(word))
	if err != nil {
		return nil, fmt.Errorf("baike %q: %w", word, err)
	}

	desc := metaProperty(doc, "og:description")
	if desc == "" {
		return nil, fmt.Errorf("baike %q: no description: %w", word, ErrContentNotFound)
	}
	title := metaProperty(doc, "og:title")
	if title == "" {
		title = word
	}
	return &Content{Title: title, Description: desc}, nil
}
