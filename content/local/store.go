// Package local is the fallback store: one JSON snapshot per collection,
// kept under a fixed key in a SQLite key-value table.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crownheights/siteadmin/content"
)

var keys = map[content.Collection]string{
	content.Articles: "crownheights_articles",
	content.Gallery:  "crownheights_gallery",
}

// Key returns the storage key holding the snapshot of c.
func Key(c content.Collection) string {
	if k, ok := keys[c]; ok {
		return k
	}
	return "crownheights_" + string(c)
}

// Store implements content.Store on top of whole-collection snapshots.
// Every write reads, modifies and rewrites the full blob; mu serializes
// those cycles.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to generate identifiers.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the key-value table.
func NewStore(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL plus a busy timeout so a second process (the CLI) waits instead
	// of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	return err
}

// SetRaw stores value verbatim under key. It exists so tools and tests can
// seed or inspect snapshots.
func (s *Store) SetRaw(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Raw returns the stored value under key, or "" when missing.
func (s *Store) Raw(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// load returns the stored sequence in persisted order. A missing key is an
// empty sequence; an unparsable blob is content.ErrCorruptSnapshot.
func (s *Store) load(ctx context.Context, c content.Collection) ([]content.Document, error) {
	raw, err := s.Raw(ctx, Key(c))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []content.Document{}, nil
	}
	var docs []content.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", content.ErrCorruptSnapshot, Key(c), err)
	}
	if docs == nil {
		docs = []content.Document{}
	}
	return docs, nil
}

func (s *Store) save(ctx context.Context, c content.Collection, docs []content.Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return s.SetRaw(ctx, Key(c), string(data))
}

// List returns the snapshot ordered by the collection's ordering field.
// A corrupt snapshot reads as empty.
func (s *Store) List(ctx context.Context, c content.Collection) ([]content.Document, error) {
	docs, err := s.load(ctx, c)
	if errors.Is(err, content.ErrCorruptSnapshot) {
		return []content.Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	content.SortDocuments(c, docs)
	return docs, nil
}

// Get returns the first document matching id.
func (s *Store) Get(ctx context.Context, c content.Collection, id string) (content.Document, error) {
	docs, err := s.List(ctx, c)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, content.ErrNotFound
}

// Create keeps doc's own id if it has one, otherwise uses the current time
// in milliseconds, bumped until unused. Articles are prepended and gallery
// images appended.
func (s *Store) Create(ctx context.Context, c content.Collection, doc content.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, c)
	if err != nil {
		return "", err
	}
	id := doc.ID()
	if id == "" {
		id = nextID(s.now(), docs)
	}
	rec := doc.Clone()
	rec["id"] = id
	if c == content.Articles {
		docs = append([]content.Document{rec}, docs...)
	} else {
		docs = append(docs, rec)
	}
	if err := s.save(ctx, c, docs); err != nil {
		return "", err
	}
	return id, nil
}

func nextID(now time.Time, docs []content.Document) string {
	used := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		used[d.ID()] = struct{}{}
	}
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, taken := used[id]; !taken {
			return id
		}
		ms++
	}
}

// Update merges doc into the entity matching id, in place. When nothing
// matches the call does nothing and still succeeds.
func (s *Store) Update(ctx context.Context, c content.Collection, id string, doc content.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, c)
	if err != nil {
		return err
	}
	for i, d := range docs {
		if d.ID() != id {
			continue
		}
		d.Merge(doc)
		docs[i] = d
		return s.save(ctx, c, docs)
	}
	return nil
}

// Delete removes every entity matching id and rewrites the snapshot.
func (s *Store) Delete(ctx context.Context, c content.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, c)
	if err != nil {
		return err
	}
	kept := docs[:0]
	for _, d := range docs {
		if d.ID() != id {
			kept = append(kept, d)
		}
	}
	return s.save(ctx, c, kept)
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
