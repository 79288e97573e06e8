package siteadmin

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/crownheights/siteadmin/content"
	"github.com/crownheights/siteadmin/content/local"
	"github.com/crownheights/siteadmin/content/remote"
)

const testPassword = "open-sesame"

type testEnv struct {
	app   *App
	local *local.Store
	mr    *miniredis.Miniredis // nil when the remote store is unconfigured
}

func newTestEnv(t *testing.T, withRemote bool, opts ...func(*Config)) *testEnv {
	t.Helper()

	l, err := local.NewStore(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	env := &testEnv{local: l}
	var r content.Store = remote.Unconfigured{}
	if withRemote {
		env.mr = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
		t.Cleanup(func() { client.Close() })
		r = remote.New(client, "test")
	}

	cfg := Config{
		Name:          "Crown Heights Academy",
		URL:           "http://school.example",
		AdminPassword: testPassword,
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
	for _, o := range opts {
		o(&cfg)
	}
	env.app = New(cfg, ViewFuncs{}, WithStores(r, l))
	require.NoError(t, env.app.Init())
	t.Cleanup(func() { env.app.Close() })
	return env
}

// browser is an HTTP client with a cookie jar that does not follow
// redirects, so tests can assert on them.
type browser struct {
	t    *testing.T
	srv  *httptest.Server
	http *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	t.Helper()
	srv := httptest.NewServer(e.app.Echo)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:   t,
		srv: srv,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.http.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.srv.URL+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

// csrf returns the token cookie, visiting the home page first if needed.
func (b *browser) csrf() string {
	b.t.Helper()
	u, _ := url.Parse(b.srv.URL)
	for i := 0; i < 2; i++ {
		for _, c := range b.http.Jar.Cookies(u) {
			if c.Name == "_csrf" {
				return c.Value
			}
		}
		b.get("/")
	}
	b.t.Fatal("no csrf cookie issued")
	return ""
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", b.csrf())
	req, err := http.NewRequest(http.MethodPost, b.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) delete(path string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodDelete, b.srv.URL+path, nil)
	require.NoError(b.t, err)
	req.Header.Set("X-CSRF-Token", b.csrf())
	return b.do(req)
}

func (b *browser) upload(path, password, filename string, data []byte) (*http.Response, string) {
	b.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(b.t, w.WriteField("password", password))
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(b.t, err)
	_, err = fw.Write(data)
	require.NoError(b.t, err)
	require.NoError(b.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, b.srv.URL+path, &buf)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-CSRF-Token", b.csrf())
	return b.do(req)
}

func (b *browser) login() {
	b.t.Helper()
	resp, _ := b.post("/admin/login/", url.Values{"password": {testPassword}})
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
}

func articleForm(title string) url.Values {
	return url.Values{
		"title":   {title},
		"date":    {"2026-03-01"},
		"summary": {"Tours of the new wing"},
		"content": {"Bring a **friend**."},
	}
}
