package siteadmin

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownheights/siteadmin/content"
)

func TestAdminShowsLoginUntilAuthenticated(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	resp, body := b.get("/admin/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="login-form"`)
	assert.NotContains(t, body, "admin-panel")

	resp, _ = b.post("/admin/save/", articleForm("Sneaky"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/", resp.Header.Get("Location"))
	assert.Empty(t, env.app.Content.ListArticles(context.Background()))

	resp, _ = b.get("/admin/article/anything/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	resp, body := b.post("/admin/login/", url.Values{"password": {"nope"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Incorrect password. Please try again.")

	_, body = b.get("/admin/")
	assert.Contains(t, body, `id="login-form"`)
}

func TestAdminLoginTrimsPassword(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	resp, _ := b.post("/admin/login/", url.Values{"password": {"  " + testPassword + "\n"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := b.get("/admin/")
	assert.Contains(t, body, "admin-panel")
}

func TestAdminLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	for i := 0; i < 5; i++ {
		resp, _ := b.post("/admin/login/", url.Values{"password": {"nope"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := b.post("/admin/login/", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestAdminRejectsMissingCSRFToken(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	req, err := http.NewRequest(http.MethodPost, b.srv.URL+"/admin/login/",
		strings.NewReader(url.Values{"password": {testPassword}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := b.do(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body)
}

func TestAdminArticleLifecycle(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()
	ctx := context.Background()

	resp, body := b.post("/admin/save/", articleForm("Open House"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Article added successfully!")
	assert.NotContains(t, body, "Remote store error")

	articles := env.app.Content.ListArticles(ctx)
	require.Len(t, articles, 1)
	id := articles[0].ID
	assert.True(t, env.mr.Exists("test:articles"))
	assert.NotEmpty(t, env.mr.HGet("test:articles", id))

	_, home := b.get("/")
	assert.Contains(t, home, "Open House")
	assert.Contains(t, home, "<strong>friend</strong>")

	_, body = b.get("/admin/article/" + id + "/")
	assert.Contains(t, body, "Edit Article")
	assert.Contains(t, body, `value="Open House"`)
	assert.Contains(t, body, "cancel-edit")

	_, body = b.post("/admin/save/", articleForm("Open House (moved)"))
	assert.Contains(t, body, "Article updated successfully!")
	assert.Contains(t, body, "Add New Article")

	articles = env.app.Content.ListArticles(ctx)
	require.Len(t, articles, 1)
	assert.Equal(t, id, articles[0].ID)
	assert.Equal(t, "Open House (moved)", articles[0].Title)
	assert.NotEmpty(t, articles[0].CreatedAt)

	_, home = b.get("/")
	assert.Contains(t, home, "Open House (moved)")

	resp, body = b.delete("/admin/article/" + id + "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Article deleted.")
	assert.Empty(t, env.app.Content.ListArticles(ctx))
}

func TestAdminCancelEditReturnsToCreating(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	b.post("/admin/save/", articleForm("Spirit Week"))
	id := env.app.Content.ListArticles(context.Background())[0].ID

	_, body := b.get("/admin/article/" + id + "/")
	require.Contains(t, body, "Edit Article")

	resp, _ := b.post("/admin/cancel/", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = b.get("/admin/")
	assert.Contains(t, body, "Add New Article")
	assert.NotContains(t, body, "cancel-edit")

	// A save after cancelling creates a second article.
	b.post("/admin/save/", articleForm("Spirit Week 2"))
	assert.Len(t, env.app.Content.ListArticles(context.Background()), 2)
}

func TestAdminDeletingEditedArticleCancelsEdit(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	b.post("/admin/save/", articleForm("Book Fair"))
	id := env.app.Content.ListArticles(context.Background())[0].ID
	b.get("/admin/article/" + id + "/")

	resp, body := b.post("/admin/article/"+id+"/delete/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Add New Article")
	assert.NotContains(t, body, "cancel-edit")
}

func TestAdminEditUnknownArticle(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	resp, body := b.get("/admin/article/missing/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, msgNotFound)
	assert.Contains(t, body, "Add New Article")
}

func TestAdminSaveRequiresFields(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	form := articleForm("Half done")
	form.Set("summary", "   ")
	resp, body := b.post("/admin/save/", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Please fill in all required fields.")
	assert.Contains(t, body, `value="Half done"`)
	assert.Empty(t, env.app.Content.ListArticles(context.Background()))
}

func TestAdminSaveFallsBackWithWarning(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)
	b.login()
	ctx := context.Background()

	resp, body := b.post("/admin/save/", articleForm("Snow Day"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Remote store error")
	assert.Contains(t, body, "saved to local storage instead")
	assert.Contains(t, body, "Article added successfully!")

	docs, err := env.local.List(ctx, content.Articles)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Snow Day", docs[0]["title"])
	assert.Nil(t, docs[0]["image"])

	_, home := b.get("/")
	assert.Contains(t, home, "Snow Day")

	_, metrics := b.get("/metrics")
	assert.Contains(t, metrics, `siteadmin_fallback_writes_total{collection="articles",op="create"} 1`)
	assert.Contains(t, metrics, `siteadmin_remote_failures_total{collection="articles",op="create"} 1`)
}

func TestAdminPing(t *testing.T) {
	t.Run("remote up", func(t *testing.T) {
		env := newTestEnv(t, true)
		b := env.browser(t)
		b.login()
		_, body := b.post("/admin/ping/", nil)
		assert.Contains(t, body, "Connection successful! Database is responding.")
	})
	t.Run("remote not configured", func(t *testing.T) {
		env := newTestEnv(t, false)
		b := env.browser(t)
		b.login()
		_, body := b.post("/admin/ping/", nil)
		assert.Contains(t, body, "Connection failed:")
	})
}

func TestAdminLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	_, body := b.get("/admin/")
	require.Contains(t, body, "admin-panel")

	resp, _ := b.post("/admin/logout/", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = b.get("/admin/")
	assert.Contains(t, body, `id="login-form"`)
}

func TestSessionCookieLastsForBrowserSession(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	resp, _ := b.post("/admin/login/", url.Values{"password": {testPassword}})
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == sessionName {
			found = true
			assert.True(t, c.Expires.IsZero(), "session cookie should not persist")
			assert.Zero(t, c.MaxAge)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "login should set the session cookie")
}
