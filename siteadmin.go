// Package siteadmin serves a school's public announcements and gallery
// pages together with a password-protected admin panel for editing them.
//
// Content lives in a remote document store (Redis) with a local SQLite
// fallback; the content package decides which store a read or write hits.
// Sites can swap the default templ views through ViewFuncs.
package siteadmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/crownheights/siteadmin/access"
	"github.com/crownheights/siteadmin/content"
	"github.com/crownheights/siteadmin/content/local"
	"github.com/crownheights/siteadmin/content/remote"
	"github.com/crownheights/siteadmin/views"
)

// ViewFuncs holds the templ components the handlers render. Any nil field
// falls back to the matching component in the views package.
type ViewFuncs struct {
	Home           func(cfg views.SiteConfig, articles []content.Article) templ.Component
	Gallery        func(cfg views.SiteConfig, page views.GalleryPage) templ.Component
	AdminLogin     func(cfg views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(cfg views.SiteConfig, d views.Dashboard) templ.Component
	NotFound       func(cfg views.SiteConfig) templ.Component
	ServerError    func(cfg views.SiteConfig) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.Home
	}
	if v.Gallery == nil {
		v.Gallery = views.Gallery
	}
	if v.AdminLogin == nil {
		v.AdminLogin = views.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = views.AdminDashboard
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// App wires the content gateway, cache, handlers and middleware together.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Content  *content.Gateway
	Cache    *SnapshotCache
	Gate     access.Gate
	Views    ViewFuncs
	Registry *prometheus.Registry

	remote       content.Store
	local        content.Store
	closers      []io.Closer
	loginLimiter *LoginLimiter
	loginMax     int
	loginWindow  time.Duration
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates an App with the given configuration and view functions.
func New(cfg Config, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	v.setDefaults()

	a := &App{
		Config:      cfg,
		Echo:        echo.New(),
		Views:       v,
		Registry:    prometheus.NewRegistry(),
		loginMax:    5,
		loginWindow: time.Minute,
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(log.INFO)

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OpenRemote connects the remote store named by cfg. An empty RemoteURL
// yields a store whose every call fails, so all traffic uses the fallback.
func OpenRemote(cfg Config) (content.Store, io.Closer, error) {
	if cfg.RemoteURL == "" {
		return remote.Unconfigured{}, nil, nil
	}
	s, err := remote.Open(cfg.RemoteURL, cfg.RemotePrefix)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

// Init opens the stores, then sets up middleware and routes. It is called
// by Run; tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("siteadmin: %w", err)
	}

	if a.remote == nil {
		r, closer, err := OpenRemote(a.Config)
		if err != nil {
			return fmt.Errorf("siteadmin: open remote store: %w", err)
		}
		a.remote = r
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}
	if a.local == nil {
		l, err := local.NewStore(a.Config.FallbackPath)
		if err != nil {
			return fmt.Errorf("siteadmin: open fallback store: %w", err)
		}
		a.local = l
		a.closers = append(a.closers, l)
	}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Content = content.NewGateway(a.remote, a.local,
		content.WithLogger(a.Echo.Logger),
		content.WithMetrics(content.NewMetrics(a.Registry)),
		content.WithMaxImageBytes(a.Config.MaxUploadBytes),
	)
	a.Cache = NewSnapshotCache(a.Content, a.Config.CacheTTL)
	a.Gate = access.NewGate(a.Config.AdminPassword)
	a.loginLimiter = NewLoginLimiter(a.loginMax, a.loginWindow)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Init(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Echo.Logger.Infof("shutting down %s", a.Config.Addr)
	return a.Echo.Shutdown(shutdownCtx)
}

// Start serves until the process is killed.
func (a *App) Start() error {
	return a.Run(context.Background())
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(publicFS())))))
	if a.staticDir != "" {
		e.Static("/static", a.staticDir)
	}
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", a.metricsHandler())

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/gallery/", a.handleGallery)
	e.POST("/gallery/upload/", a.handleGalleryUpload)
	e.POST("/gallery/:id/delete/", a.handleGalleryDelete)

	// Admin
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", requireAdmin)
	admin.GET("/article/:id/", a.handleAdminEdit)
	admin.POST("/cancel/", handleAdminCancel)
	admin.POST("/save/", a.handleAdminSave)
	admin.DELETE("/article/:id/", a.handleAdminDelete)
	admin.POST("/article/:id/delete/", a.handleAdminDelete)
	admin.POST("/ping/", a.handleAdminPing)
}

// Close stops background work and closes the stores Init opened.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
	}
}
