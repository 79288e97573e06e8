package siteadmin

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownheights/siteadmin/content"
	"github.com/crownheights/siteadmin/content/local"
	"github.com/crownheights/siteadmin/content/remote"
)

func newCacheGateway(t *testing.T) *content.Gateway {
	t.Helper()
	l, err := local.NewStore(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return content.NewGateway(remote.Unconfigured{}, l)
}

func addImage(t *testing.T, gw *content.Gateway) {
	t.Helper()
	_, err := gw.SaveGalleryImage(context.Background(), "https://example.com/a.png")
	require.NoError(t, err)
}

func TestSnapshotCacheServesUntilInvalidated(t *testing.T) {
	gw := newCacheGateway(t)
	cache := NewSnapshotCache(gw, time.Hour)
	ctx := context.Background()

	assert.Empty(t, cache.Gallery(ctx))
	addImage(t, gw)
	assert.Empty(t, cache.Gallery(ctx), "cached snapshot should still be served")

	cache.Invalidate()
	assert.Len(t, cache.Gallery(ctx), 1)
}

func TestSnapshotCacheExpires(t *testing.T) {
	gw := newCacheGateway(t)
	cache := NewSnapshotCache(gw, 20*time.Millisecond)
	ctx := context.Background()

	assert.Empty(t, cache.Gallery(ctx))
	addImage(t, gw)
	time.Sleep(40 * time.Millisecond)
	assert.Len(t, cache.Gallery(ctx), 1)
}

func TestSnapshotCacheDisabled(t *testing.T) {
	gw := newCacheGateway(t)
	cache := NewSnapshotCache(gw, 0)
	ctx := context.Background()

	assert.Empty(t, cache.Articles(ctx))
	_, err := gw.SaveArticle(ctx, content.ArticleInput{
		Title: "Assembly", Date: "2026-04-01", Summary: "s", Content: "c",
	}, content.Creating())
	require.NoError(t, err)
	assert.Len(t, cache.Articles(ctx), 1)
}
