package remote

import (
	"context"
	"fmt"

	"github.com/crownheights/siteadmin/content"
)

// Unconfigured stands in for the remote store when no URL is set. Every
// call fails with content.ErrRemoteUnavailable, so the gateway runs purely
// on local storage.
type Unconfigured struct{}

func (Unconfigured) err() error {
	return fmt.Errorf("%w: remote store is not configured", content.ErrRemoteUnavailable)
}

func (u Unconfigured) List(context.Context, content.Collection) ([]content.Document, error) {
	return nil, u.err()
}

func (u Unconfigured) Get(context.Context, content.Collection, string) (content.Document, error) {
	return nil, u.err()
}

func (u Unconfigured) Create(context.Context, content.Collection, content.Document) (string, error) {
	return "", u.err()
}

func (u Unconfigured) Update(context.Context, content.Collection, string, content.Document) error {
	return u.err()
}

func (u Unconfigured) Delete(context.Context, content.Collection, string) error {
	return u.err()
}

func (u Unconfigured) Ping(context.Context) error {
	return u.err()
}
