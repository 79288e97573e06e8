package siteadmin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crownheights/siteadmin/content"
	"github.com/crownheights/siteadmin/views"
)

const (
	msgAdded         = "Article added successfully!"
	msgUpdated       = "Article updated successfully!"
	msgDeleted       = "Article deleted."
	msgRequired      = "Please fill in all required fields."
	msgNotFound      = "That article no longer exists."
	msgPingOK        = "Connection successful! Database is responding."
	msgRemoteWarning = "Remote store error: %v. The article was saved to local storage instead."
)

// dashboardState is what a handler wants the admin panel to show beyond
// the article list.
type dashboardState struct {
	form    *content.ArticleInput
	message string
	warning string
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, http.StatusOK, dashboardState{})
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	if a.Gate.Authorize(strings.TrimSpace(c.FormValue("password"))) {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return Render(c, a.Views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminEdit(c echo.Context) error {
	ctx := c.Request().Context()
	article, next, err := a.Content.EditArticle(ctx, c.Param("id"), editSession(c))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return a.renderAdminDashboard(c, http.StatusNotFound, dashboardState{warning: msgNotFound})
		}
		return err
	}
	if err := saveEditSession(c, next); err != nil {
		return err
	}
	in := article.Input()
	return a.renderAdminDashboard(c, http.StatusOK, dashboardState{form: &in})
}

func handleAdminCancel(c echo.Context) error {
	if err := saveEditSession(c, content.Creating()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminSave(c echo.Context) error {
	in := content.ArticleInput{
		Title:   c.FormValue("title"),
		Date:    c.FormValue("date"),
		Summary: c.FormValue("summary"),
		Content: c.FormValue("content"),
		Image:   c.FormValue("image"),
	}
	res, err := a.Content.SaveArticle(c.Request().Context(), in, editSession(c))
	switch {
	case content.IsValidation(err):
		return a.renderAdminDashboard(c, http.StatusBadRequest, dashboardState{form: &in, warning: msgRequired})
	case err != nil:
		// Neither store took the write; keep the form and the edit state.
		return a.renderAdminDashboard(c, http.StatusServiceUnavailable, dashboardState{
			form:    &in,
			warning: "An unexpected error occurred: " + err.Error(),
		})
	}

	if err := saveEditSession(c, res.Session); err != nil {
		return err
	}
	a.Cache.Invalidate()

	st := dashboardState{message: msgAdded}
	if !res.Created {
		st.message = msgUpdated
	}
	if res.Warning != nil {
		st.warning = fmt.Sprintf(msgRemoteWarning, res.Warning)
	}
	return a.renderAdminDashboard(c, http.StatusOK, st)
}

func (a *App) handleAdminDelete(c echo.Context) error {
	next, err := a.Content.DeleteArticle(c.Request().Context(), c.Param("id"), editSession(c))
	switch {
	case content.IsValidation(err):
		return c.String(http.StatusBadRequest, "Article id required")
	case err != nil:
		return a.renderAdminDashboard(c, http.StatusServiceUnavailable, dashboardState{
			warning: "Error deleting article: " + err.Error(),
		})
	}
	if err := saveEditSession(c, next); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, http.StatusOK, dashboardState{message: msgDeleted})
}

func (a *App) handleAdminPing(c echo.Context) error {
	if err := a.Content.Ping(c.Request().Context()); err != nil {
		c.Logger().Errorf("connection test failed: %v", err)
		return a.renderAdminDashboard(c, http.StatusOK, dashboardState{warning: "Connection failed: " + err.Error()})
	}
	return a.renderAdminDashboard(c, http.StatusOK, dashboardState{message: msgPingOK})
}

// renderAdminDashboard lists articles fresh from the gateway. Without an
// explicit form it refills the article under edit, if any.
func (a *App) renderAdminDashboard(c echo.Context, code int, st dashboardState) error {
	ctx := c.Request().Context()
	s := editSession(c)

	d := views.Dashboard{
		Articles:  a.Content.ListArticles(ctx),
		Message:   st.message,
		Warning:   st.warning,
		CSRFToken: CsrfToken(c),
	}
	if id, ok := s.EditingID(); ok {
		d.EditingID = id
	}
	switch {
	case st.form != nil:
		d.Form = *st.form
	case s.IsEditing():
		article, err := a.Content.GetArticle(ctx, d.EditingID)
		if err != nil {
			// The article vanished under us; fall back to a blank form.
			if err := saveEditSession(c, content.Creating()); err != nil {
				return err
			}
			d.EditingID = ""
			break
		}
		d.Form = article.Input()
	}
	return RenderStatus(c, code, a.Views.AdminDashboard(a.site(), d))
}
