package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaike_ReadsOGMeta(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = io.WriteString(w, `<html><head>
			<meta property="og:title" content="苹果（蔷薇科苹果属植物）">
			<meta property="og:description" content="苹果是一种常见水果。">
			</head><body></body></html>`)
	}))
	defer srv.Close()

	c, err := NewBaike(srv.URL+"/item/", srv.Client()).Fetch(context.Background(), "苹果")
	require.NoError(t, err)
	assert.Equal(t, "苹果（蔷薇科苹果属植物）", c.Title)
	assert.Equal(t, "苹果是一种常见水果。", c.Description)
	assert.Equal(t, "/item/%E8%8B%B9%E6%9E%9C", path)
}

func TestBaike_TitleFallsBackToWord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<meta property="og:description" content="描述">`)
	}))
	defer srv.Close()

	c, err := NewBaike(srv.URL+"/", nil).Fetch(context.Background(), "香蕉")
	require.NoError(t, err)
	assert.Equal(t, "香蕉", c.Title)
}

func TestBaike_NotFoundCases(t *testing.T) {
	noDesc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<meta property="og:title" content="x">`)
	}))
	defer noDesc.Close()
	_, err := NewBaike(noDesc.URL+"/", nil).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrContentNotFound)

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	_, err = NewBaike(missing.URL+"/", nil).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = NewBaike(missing.URL+"/", nil).Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrContentNotFound)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	_, err = NewBaike(broken.URL+"/", nil).Fetch(context.Background(), "x")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
}

func wikiPage(title, para string) string {
	return fmt.Sprintf(`<html><head><title>%s - Minecraft Wiki，最详细的官方我的世界百科</title></head>
		<body><div><p class="lead">%s</p><p>second</p></div></body></html>`, title, para)
}

func TestMCWiki_SkipsTutorialsAndUsedTitles(t *testing.T) {
	pages := []string{
		wikiPage("教程/建造", "跳过我"),
		wikiPage("钻石", "已使用"),
		wikiPage("红石", "  红石是一种   <b>矿物</b>\n资源。 "),
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(hits.Add(1)) - 1
		_, _ = io.WriteString(w, pages[i%len(pages)])
	}))
	defer srv.Close()

	used := func(_ context.Context, title string) (bool, error) { return title == "钻石", nil }
	c, err := NewMCWiki(srv.URL, srv.Client(), used).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "红石", c.Title)
	assert.Equal(t, "红石是一种 矿物 资源。", c.Description)
	assert.EqualValues(t, 3, hits.Load())
}

func TestMCWiki_TruncatesLongDescription(t *testing.T) {
	long := strings.Repeat("方", 250)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, wikiPage("方块", long))
	}))
	defer srv.Close()

	c, err := NewMCWiki(srv.URL, nil, nil).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("方", 200)+"...", c.Description)
}

func TestMCWiki_GivesUpAfterTenDraws(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `<html><head><title></title></head><body></body></html>`)
	}))
	defer srv.Close()

	_, err := NewMCWiki(srv.URL, nil, nil).Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrContentNotFound)
	assert.EqualValues(t, mcWikiAttempts, hits.Load())
}

func TestRouter(t *testing.T) {
	special := FetcherFunc(func(context.Context, string) (*Content, error) { return &Content{Title: "special"}, nil })
	normal := FetcherFunc(func(context.Context, string) (*Content, error) { return &Content{Title: "normal"}, nil })
	r := Router{Prefix: "mc-", Special: special, Default: normal}

	assert.True(t, r.IsSpecial("mc-1"))
	assert.False(t, r.IsSpecial("2025-01-01"))

	c, _ := r.For("mc-abc").Fetch(context.Background(), "")
	assert.Equal(t, "special", c.Title)
	c, _ = r.For("abc").Fetch(context.Background(), "")
	assert.Equal(t, "normal", c.Title)

	assert.False(t, Router{Prefix: "", Special: special, Default: normal}.IsSpecial("mc-1"))
}
