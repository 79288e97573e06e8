package siteadmin

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	return Render(c, a.Views.Home(a.site(), a.Cache.Articles(c.Request().Context())))
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Cache.Articles(c.Request().Context()))
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Cache.Articles(c.Request().Context()))
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nDisallow: /admin/\nSitemap: %s\n", absURL(a.Config.URL, "sitemap.xml"))
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
		return
	}
	if ok && he.Code == http.StatusRequestEntityTooLarge {
		_ = a.renderGallery(c, he.Code, tooLargeMessage(a.Content.MaxImageBytes()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
