package content

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Store is the capability contract shared by the remote document store and
// the local fallback store. Callers outside this package go through Gateway.
type Store interface {
	// List returns every document of c, descending by c.OrderField().
	List(ctx context.Context, c Collection) ([]Document, error)
	// Get returns ErrNotFound when id is absent.
	Get(ctx context.Context, c Collection, id string) (Document, error)
	// Create stores doc and returns its identifier.
	Create(ctx context.Context, c Collection, doc Document) (string, error)
	// Update merges the fields of doc into the document with the given id.
	Update(ctx context.Context, c Collection, id string, doc Document) error
	// Delete removes id. Deleting an absent id succeeds.
	Delete(ctx context.Context, c Collection, id string) error
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// Backend names the store that served a write.
type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

func decodeDocument[T any](doc Document) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return out, fmt.Errorf("decode document %q: %w", doc.ID(), err)
	}
	return out, nil
}
