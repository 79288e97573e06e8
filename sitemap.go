package siteadmin

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crownheights/siteadmin/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the two public pages. The home page's lastmod is the
// latest article edit.
func (a *App) renderSitemap(c echo.Context, articles []content.Article) error {
	base := a.Config.URL
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: BuildURL(base), LastMod: lastModified(articles)},
			{Loc: BuildURL(base, "gallery")},
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

func lastModified(articles []content.Article) string {
	var latest time.Time
	for _, art := range articles {
		for _, ts := range []string{art.UpdatedAt, art.CreatedAt} {
			if t, err := time.Parse(time.RFC3339, ts); err == nil && t.After(latest) {
				latest = t
			}
		}
	}
	if latest.IsZero() {
		return ""
	}
	return latest.UTC().Format(time.DateOnly)
}
