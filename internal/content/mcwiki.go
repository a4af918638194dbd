package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	mcWikiAttempts    = 10
	mcWikiTitleSuffix = " - Minecraft Wiki"
	mcWikiSkipMarker  = "教程"
	mcWikiMaxRunes    = 200
)

// TitleExists reports whether a title is already used by a stored question.
type TitleExists func(ctx context.Context, title string) (bool, error)

// MCWiki picks a random Minecraft wiki page. Tutorial pages, titles already
// in use and pages without a first paragraph are skipped, up to ten draws.
type MCWiki struct {
	randomURL string
	client    *http.Client
	exists    TitleExists
}

// NewMCWiki builds a fetcher for the wiki's random-page URL. exists may be nil.
func NewMCWiki(randomURL string, client *http.Client, exists TitleExists) *MCWiki {
	if client == nil {
		client = http.DefaultClient
	}
	return &MCWiki{randomURL: randomURL, client: client, exists: exists}
}

// Fetch implements Fetcher; word is ignored.
func (m *MCWiki) Fetch(ctx context.Context, _ string) (*Content, error) {
	lg := zerolog.Ctx(ctx)
	for attempt := 1; attempt <= mcWikiAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := m.draw(ctx)
		if err != nil {
			lg.Debug().Err(err).Int("attempt", attempt).Msg("mc wiki draw skipped")
			continue
		}
		if strings.Contains(c.Title, mcWikiSkipMarker) {
			lg.Debug().Str("title", c.Title).Int("attempt", attempt).Msg("mc wiki tutorial page skipped")
			continue
		}
		if m.exists != nil {
			taken, err := m.exists(ctx, c.Title)
			if err != nil {
				return nil, err
			}
			if taken {
				lg.Debug().Str("title", c.Title).Int("attempt", attempt).Msg("mc wiki page already used")
				continue
			}
		}
		return c, nil
	}
	return nil, fmt.Errorf("mc wiki: no usable page after %d attempts: %w", mcWikiAttempts, ErrContentNotFound)
}

var errIncompletePage = errors.New("incomplete page")

func (m *MCWiki) draw(ctx context.Context) (*Content, error) {
	doc, err := getPage(ctx, m.client, m.randomURL)
	if err != nil {
		return nil, err
	}

	var title string
	if t := firstElement(doc, "title", nil); t != nil {
		title = strings.TrimSpace(textOf(t))
		if i := strings.Index(title, mcWikiTitleSuffix); i >= 0 {
			title = strings.TrimSpace(title[:i])
		}
	}

	var desc string
	if p := firstElement(doc, "p", nil); p != nil {
		desc = truncateRunes(collapseSpace(textOf(p)), mcWikiMaxRunes)
	}

	if title == "" || desc == "" {
		return nil, errIncompletePage
	}
	return &Content{Title: title, Description: desc}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
