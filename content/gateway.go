package content

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// DefaultMaxImageBytes is the gallery upload ceiling when none is configured.
const DefaultMaxImageBytes = 1 << 20

// Logger is satisfied by gommon's *log.Logger and by echo.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Gateway is the only way the UI reaches either store.
type Gateway struct {
	remote        Store
	local         Store
	log           Logger
	metrics       *Metrics
	now           func() time.Time
	maxImageBytes int64
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger replaces the default gommon logger.
func WithLogger(l Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithMetrics records fallback counters into m.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock overrides time.Now for createdAt/updatedAt/timestamp fields.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithMaxImageBytes sets the gallery upload ceiling. Non-positive values
// keep DefaultMaxImageBytes.
func WithMaxImageBytes(n int64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxImageBytes = n
		}
	}
}

// NewGateway wires the remote store in front of the local fallback store.
func NewGateway(remote, local Store, opts ...Option) *Gateway {
	g := &Gateway{
		remote:        remote,
		local:         local,
		log:           log.New("content"),
		now:           time.Now,
		maxImageBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxImageBytes returns the configured gallery upload ceiling.
func (g *Gateway) MaxImageBytes() int64 { return g.maxImageBytes }

// list prefers the remote store but serves local data when the remote fails
// or returns nothing: an empty remote looks the same as an unconfigured one.
func (g *Gateway) list(ctx context.Context, c Collection) []Document {
	docs, err := g.remote.List(ctx, c)
	switch {
	case err != nil:
		g.log.Warnf("%s: remote list failed, falling back to local storage: %v", c, err)
		g.metrics.remoteFailure(c, "list")
		g.metrics.fallbackRead(c, "error")
	case len(docs) > 0:
		return docs
	default:
		g.metrics.fallbackRead(c, "empty")
	}

	docs, err = g.local.List(ctx, c)
	if err != nil {
		g.log.Errorf("%s: local list failed: %v", c, err)
		return []Document{}
	}
	return docs
}

func decodeAll[T any](g *Gateway, c Collection, docs []Document) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := decodeDocument[T](doc)
		if err != nil {
			g.log.Warnf("%s: skipping document: %v", c, err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// ListArticles returns announcements, newest date first.
func (g *Gateway) ListArticles(ctx context.Context) []Article {
	return decodeAll[Article](g, Articles, g.list(ctx, Articles))
}

// ListGallery returns gallery images, newest upload first.
func (g *Gateway) ListGallery(ctx context.Context) []GalleryImage {
	return decodeAll[GalleryImage](g, Gallery, g.list(ctx, Gallery))
}

// GetArticle looks id up remotely, then locally.
func (g *Gateway) GetArticle(ctx context.Context, id string) (Article, error) {
	doc, err := g.remote.Get(ctx, Articles, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.log.Warnf("articles: remote get %s failed: %v", id, err)
			g.metrics.remoteFailure(Articles, "get")
		}
		doc, err = g.local.Get(ctx, Articles, id)
		if err != nil {
			return Article{}, err
		}
	}
	return decodeDocument[Article](doc)
}

// EditArticle loads id into the form and moves the session to editing(id).
// On failure the session is returned unchanged.
func (g *Gateway) EditArticle(ctx context.Context, id string, s EditSession) (Article, EditSession, error) {
	a, err := g.GetArticle(ctx, id)
	if err != nil {
		return Article{}, s, err
	}
	return a, Editing(id), nil
}

// SaveResult describes an accepted article write.
type SaveResult struct {
	ID      string
	Created bool
	Backend Backend
	// Session is the edit state after the save: always Creating.
	Session EditSession
	// Warning is the remote failure the operator must be shown when the
	// write fell back to local storage.
	Warning error
}

// SaveArticle creates or updates an article depending on s. A remote
// failure is reported in SaveResult.Warning and the same write is retried
// against local storage; the save succeeds if either store accepts it.
func (g *Gateway) SaveArticle(ctx context.Context, in ArticleInput, s EditSession) (SaveResult, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return SaveResult{Session: s}, err
	}

	id, editing := s.EditingID()
	doc := in.document(g.now(), !editing)
	op := "create"
	if editing {
		op = "update"
	}

	res := SaveResult{ID: id, Created: !editing, Backend: BackendRemote, Session: Creating()}
	var err error
	if editing {
		err = g.remote.Update(ctx, Articles, id, doc.Clone())
	} else {
		res.ID, err = g.remote.Create(ctx, Articles, doc.Clone())
	}
	if err == nil {
		return res, nil
	}

	g.log.Errorf("articles: remote %s failed: %v", op, err)
	g.metrics.remoteFailure(Articles, op)
	res.Warning = err
	res.Backend = BackendLocal
	if editing {
		err = g.local.Update(ctx, Articles, id, doc)
	} else {
		res.ID, err = g.local.Create(ctx, Articles, doc)
	}
	if err != nil {
		g.log.Errorf("articles: local fallback %s failed: %v", op, err)
		return SaveResult{Session: s, Warning: res.Warning}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	g.metrics.fallbackWrite(Articles, op)
	return res, nil
}

// DeleteArticle removes id and returns the next edit state: deleting the
// article under edit cancels the edit.
func (g *Gateway) DeleteArticle(ctx context.Context, id string, s EditSession) (EditSession, error) {
	if _, err := g.delete(ctx, Articles, id); err != nil {
		return s, err
	}
	if editing, ok := s.EditingID(); ok && editing == id {
		return Creating(), nil
	}
	return s, nil
}

// SaveGalleryImage stores an uploaded image. Oversized or empty sources are
// rejected before either store is called. Remote failures fall back to
// local storage without a warning.
func (g *Gateway) SaveGalleryImage(ctx context.Context, src string) (Backend, error) {
	src = strings.TrimSpace(src)
	if err := g.validateImage(src); err != nil {
		return "", err
	}
	doc := Document{"src": src, "timestamp": Timestamp(g.now())}

	_, err := g.remote.Create(ctx, Gallery, doc.Clone())
	if err == nil {
		return BackendRemote, nil
	}
	g.log.Errorf("gallery: remote create failed: %v", err)
	g.metrics.remoteFailure(Gallery, "create")

	if _, err := g.local.Create(ctx, Gallery, doc); err != nil {
		g.log.Errorf("gallery: local fallback create failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	g.metrics.fallbackWrite(Gallery, "create")
	return BackendLocal, nil
}

// DeleteGalleryImage removes an image, falling back to local storage.
func (g *Gateway) DeleteGalleryImage(ctx context.Context, id string) (Backend, error) {
	return g.delete(ctx, Gallery, id)
}

func (g *Gateway) delete(ctx context.Context, c Collection, id string) (Backend, error) {
	if strings.TrimSpace(id) == "" {
		return "", &ValidationError{Field: "id", Reason: "is required"}
	}
	err := g.remote.Delete(ctx, c, id)
	if err == nil {
		return BackendRemote, nil
	}
	g.log.Warnf("%s: remote delete %s failed, removing locally: %v", c, id, err)
	g.metrics.remoteFailure(c, "delete")

	if err := g.local.Delete(ctx, c, id); err != nil {
		g.log.Errorf("%s: local fallback delete %s failed: %v", c, id, err)
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	g.metrics.fallbackWrite(c, "delete")
	return BackendLocal, nil
}

// Ping checks that the remote store responds.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.remote.Ping(ctx)
}

func (g *Gateway) validateImage(src string) error {
	if src == "" {
		return &ValidationError{Field: "src", Reason: "is required"}
	}
	if n := ImageSize(src); n > g.maxImageBytes {
		return &ValidationError{
			Field:  "src",
			Reason: fmt.Sprintf("is %d bytes, over the %d byte limit", n, g.maxImageBytes),
		}
	}
	return nil
}

// ImageSize returns the byte size of an image source: the decoded payload
// of a data URI, or the length of anything else.
func ImageSize(src string) int64 {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return int64(len(src))
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return int64(len(src))
	}
	if !strings.HasSuffix(header, ";base64") {
		return int64(len(payload))
	}
	padding := len(payload) - len(strings.TrimRight(payload, "="))
	if padding > 0 {
		return int64(base64.StdEncoding.DecodedLen(len(payload)) - padding)
	}
	return int64(base64.RawStdEncoding.DecodedLen(len(payload)))
}
