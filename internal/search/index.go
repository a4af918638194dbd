// Package search ranks preset crafting examples by relevance to a pair of
// input names so the most similar recipes can be used as few-shot turns.
//
//   - No logging in the library (callers decide how/what to log)
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic scoring and ordering (ties keep insertion order)
//
// Tokens are lower-cased words for alphabetic scripts and single runes for
// CJK ideographs, so "蒸汽" and "汽车" share a token. Scoring uses Jaccard
// similarity: score = |Q ∩ E| / |Q ∪ E|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Example is a canned recipe: First + Second -> Result.
type Example struct {
	First    string
	Second   string
	ResultCN string
	ResultEN string
	Emoji    string
}

// Result is a ranked example with its similarity score.
type Result struct {
	Example Example
	Score   float64
}

// Index is the minimal interface implemented by example indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
	fill      bool
}

func defaultConfig() config {
	return config{fill: true}
}

// WithStopwords drops the given words from both example and query tokens.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps the number of indexed examples.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithFill controls whether TopK pads with unrelated examples (in insertion
// order) when fewer than k examples overlap the query. Default true.
func WithFill(fill bool) Option {
	return func(c *config) { c.fill = fill }
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	ex     Example
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewExampleIndex builds an Index over examples.
func NewExampleIndex(examples []Example, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(examples))
	for _, ex := range examples {
		docs = append(docs, doc{ex: ex, tokens: tokenize(exampleText(ex), cfg.stopwords)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func exampleText(ex Example) string {
	return strings.Join([]string{ex.First, ex.Second, ex.ResultCN, ex.ResultEN}, " ")
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k examples ordered by similarity to query.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || k <= 0 {
		return nil
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	qLen := len(qTokens)

	type scored struct {
		pos   int
		score float64
	}
	buf := make([]scored, 0, len(i.docs))
	for pos, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		var score float64
		if over > 0 {
			score = float64(over) / float64(qLen+len(d.tokens)-over)
		}
		if score == 0 && !i.cfg.fill {
			continue
		}
		buf = append(buf, scored{pos: pos, score: score})
	}

	sort.SliceStable(buf, func(a, b int) bool {
		return buf[a].score > buf[b].score
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{Example: i.docs[buf[n].pos].ex, Score: buf[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	add := func(w string) {
		if stop != nil {
			if _, skip := stop[w]; skip {
				return
			}
		}
		out[w] = struct{}{}
	}
	for _, w := range words {
		var latin strings.Builder
		for _, r := range w {
			if unicode.Is(unicode.Han, r) {
				if latin.Len() > 0 {
					add(latin.String())
					latin.Reset()
				}
				add(string(r))
				continue
			}
			latin.WriteRune(r)
		}
		if latin.Len() > 0 {
			add(latin.String())
		}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
