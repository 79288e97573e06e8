package siteadmin

import (
	"context"
	"sync"
	"time"

	"github.com/crownheights/siteadmin/content"
)

// SnapshotCache keeps the last article and gallery listings for the public
// pages. Admin views always read through the gateway; every write
// invalidates the cache.
type SnapshotCache struct {
	gw       *content.Gateway
	articles snapshot[content.Article]
	gallery  snapshot[content.GalleryImage]
}

// NewSnapshotCache creates a SnapshotCache over gw with the given TTL.
// A zero or negative ttl disables caching.
func NewSnapshotCache(gw *content.Gateway, ttl time.Duration) *SnapshotCache {
	c := &SnapshotCache{gw: gw}
	c.articles.ttl = ttl
	c.gallery.ttl = ttl
	return c
}

// Articles returns the announcements, newest first.
func (c *SnapshotCache) Articles(ctx context.Context) []content.Article {
	return c.articles.get(ctx, c.gw.ListArticles)
}

// Gallery returns the gallery images, newest first.
func (c *SnapshotCache) Gallery(ctx context.Context) []content.GalleryImage {
	return c.gallery.get(ctx, c.gw.ListGallery)
}

// Invalidate clears both listings so the next read reloads them.
func (c *SnapshotCache) Invalidate() {
	c.articles.invalidate()
	c.gallery.invalidate()
}

type snapshot[T any] struct {
	mu      sync.RWMutex
	items   []T
	loaded  bool
	fetched time.Time
	ttl     time.Duration
}

func (s *snapshot[T]) valid() bool {
	return s.loaded && time.Since(s.fetched) < s.ttl
}

func (s *snapshot[T]) invalidate() {
	s.mu.Lock()
	s.items = nil
	s.loaded = false
	s.mu.Unlock()
}

// get tries a read lock first and only takes the write lock to reload.
func (s *snapshot[T]) get(ctx context.Context, load func(context.Context) []T) []T {
	s.mu.RLock()
	if s.valid() {
		items := s.items
		s.mu.RUnlock()
		return items
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid() {
		return s.items
	}
	s.items = load(ctx)
	s.loaded = true
	s.fetched = time.Now()
	return s.items
}
