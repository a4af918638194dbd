// Package content fetches the descriptive text behind a guess-game word from
// external sources: an encyclopedia entry page (og: meta tags) or a random
// Minecraft wiki page. Scraping is best effort; any page that does not yield
// both a title and a description is reported as ErrContentNotFound.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// ErrContentNotFound means the source had no usable entry.
var ErrContentNotFound = errors.New("content not found")

// userAgent is sent with every request; both sites serve a stripped page to
// unknown clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const maxPageBytes = 4 << 20

// Content is the title/description pair of a question.
type Content struct {
	Title       string
	Description string
}

// Fetcher resolves content for a word. Sources that pick their own topic
// (random pages) ignore word.
type Fetcher interface {
	Fetch(ctx context.Context, word string) (*Content, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, word string) (*Content, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, word string) (*Content, error) {
	return f(ctx, word)
}

// getPage GETs url following redirects and parses the body as HTML.
func getPage(ctx context.Context, client *http.Client, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrContentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return html.Parse(io.LimitReader(resp.Body, maxPageBytes))
}

// StatusError is an unexpected HTTP status from a source.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("content: unexpected status %d", e.StatusCode)
}

// walk visits n and its descendants depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// metaProperty returns the content of <meta property="prop">.
func metaProperty(doc *html.Node, prop string) string {
	var out string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" && attr(n, "property") == prop {
			out = strings.TrimSpace(attr(n, "content"))
			return false
		}
		return true
	})
	return out
}

// textOf concatenates the text of n's subtree.
func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// firstElement returns the first element named tag under doc.
func firstElement(doc *html.Node, tag string, accept func(*html.Node) bool) *html.Node {
	var out *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag && (accept == nil || accept(n)) {
			out = n
			return false
		}
		return true
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
