// Package remote is the hosted document store: every collection is a Redis
// hash mapping document id to the JSON-encoded document.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/crownheights/siteadmin/content"
)

// DefaultPrefix namespaces the collection hashes.
const DefaultPrefix = "crownheights"

// DocumentStore implements content.Store against Redis. It keeps no local
// cache: every call is a round trip.
type DocumentStore struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *DocumentStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &DocumentStore{client: client, prefix: prefix}
}

// Open connects using a redis:// or rediss:// URL.
func Open(url, prefix string) (*DocumentStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	return New(redis.NewClient(opts), prefix), nil
}

// Close closes the Redis connection.
func (s *DocumentStore) Close() error {
	return s.client.Close()
}

func (s *DocumentStore) key(c content.Collection) string {
	return s.prefix + ":" + string(c)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", content.ErrRemoteUnavailable, err)
}

func decode(id, raw string) (content.Document, error) {
	var doc content.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, unavailable(fmt.Errorf("decode document %s: %w", id, err))
	}
	if doc == nil {
		doc = content.Document{}
	}
	doc["id"] = id
	return doc, nil
}

func encode(doc content.Document) ([]byte, error) {
	rec := doc.Clone()
	delete(rec, "id")
	return json.Marshal(rec)
}

// List returns all documents of c ordered descending by c.OrderField().
func (s *DocumentStore) List(ctx context.Context, c content.Collection) ([]content.Document, error) {
	vals, err := s.client.HGetAll(ctx, s.key(c)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	docs := make([]content.Document, 0, len(vals))
	for id, raw := range vals {
		doc, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	content.SortDocuments(c, docs)
	return docs, nil
}

// Get returns content.ErrNotFound for an unknown id.
func (s *DocumentStore) Get(ctx context.Context, c content.Collection, id string) (content.Document, error) {
	raw, err := s.client.HGet(ctx, s.key(c), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return decode(id, raw)
}

// Create assigns a random UUID and stores doc under it.
func (s *DocumentStore) Create(ctx context.Context, c content.Collection, doc content.Document) (string, error) {
	data, err := encode(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.client.HSet(ctx, s.key(c), id, data).Err(); err != nil {
		return "", unavailable(err)
	}
	return id, nil
}

// Update merges doc into the stored document inside a WATCH transaction.
// An unknown id is content.ErrNotFound.
func (s *DocumentStore) Update(ctx context.Context, c content.Collection, id string, doc content.Document) error {
	key := s.key(c)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return content.ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := decode(id, raw)
		if err != nil {
			return err
		}
		current.Merge(doc)
		data, err := encode(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, data)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, content.ErrNotFound), errors.Is(err, content.ErrRemoteUnavailable):
		return err
	default:
		return unavailable(err)
	}
}

// Delete removes id; an unknown id is not an error.
func (s *DocumentStore) Delete(ctx context.Context, c content.Collection, id string) error {
	if err := s.client.HDel(ctx, s.key(c), id).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Ping round-trips to the server.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
