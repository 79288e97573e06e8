package siteadmin

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownheights/siteadmin/content"
)

func seedArticles(t *testing.T, env *testEnv, titles ...string) {
	t.Helper()
	for i, title := range titles {
		_, err := env.app.Content.SaveArticle(context.Background(), content.ArticleInput{
			Title:   title,
			Date:    []string{"2026-01-10", "2026-02-20", "2026-03-30"}[i%3],
			Summary: title + " summary",
			Content: title + " body",
		}, content.Creating())
		require.NoError(t, err)
	}
	env.app.Cache.Invalidate()
}

func TestHomeListsNewestFirst(t *testing.T) {
	env := newTestEnv(t, true)
	seedArticles(t, env, "January Concert", "February Fair")
	b := env.browser(t)

	resp, body := b.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feb := strings.Index(body, "February Fair")
	jan := strings.Index(body, "January Concert")
	require.NotEqual(t, -1, feb)
	require.NotEqual(t, -1, jan)
	assert.Less(t, feb, jan)
	assert.Contains(t, body, "February 20, 2026")
}

func TestHomeEmpty(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)

	resp, body := b.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No announcements yet.")
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t, true)
	seedArticles(t, env, "Science Night")
	b := env.browser(t)

	resp, body := b.get("/feed.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/rss+xml")

	var feed rssXML
	require.NoError(t, xml.Unmarshal([]byte(body), &feed))
	assert.Equal(t, "Crown Heights Academy", feed.Channel.Title)
	require.Len(t, feed.Channel.Items, 1)
	item := feed.Channel.Items[0]
	assert.Equal(t, "Science Night", item.Title)
	assert.Contains(t, item.Link, "http://school.example/#article-")
	assert.NotEmpty(t, item.PubDate)
	assert.False(t, item.GUID.IsPermaLink)
}

func TestSitemapAndRobots(t *testing.T) {
	env := newTestEnv(t, true)
	seedArticles(t, env, "Science Night")
	b := env.browser(t)

	resp, body := b.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sm sitemapURLSet
	require.NoError(t, xml.Unmarshal([]byte(body), &sm))
	require.Len(t, sm.URLs, 2)
	assert.Equal(t, "http://school.example/", sm.URLs[0].Loc)
	assert.NotEmpty(t, sm.URLs[0].LastMod)
	assert.Equal(t, "http://school.example/gallery/", sm.URLs[1].Loc)

	resp, body = b.get("/robots.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Disallow: /admin/")
	assert.Contains(t, body, "Sitemap: http://school.example/sitemap.xml")
}

func TestEmbeddedStylesheet(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)

	resp, body := b.get("/public/admin.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".gallery-grid")
}

func TestNotFoundPage(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)

	resp, body := b.get("/no-such-page/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestTrailingSlashRedirect(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)

	resp, _ := b.get("/gallery")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/gallery/", resp.Header.Get("Location"))
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "http://school.example/", BuildURL("http://school.example"))
	assert.Equal(t, "http://school.example/gallery/", BuildURL("http://school.example", "gallery"))
	assert.Equal(t, "http://school.example/feed.xml", absURL("http://school.example/", "feed.xml"))
	assert.Equal(t, "http://school.example/#article-a%20b", articleURL("http://school.example", "a b"))
}
