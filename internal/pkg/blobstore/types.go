package blobstore

import (
	"context"
	"time"
)

// Object is one stored blob as reported by the provider listing.
type Object struct {
	PublicID   string
	UploadedAt time.Time
}

// Provider is the external asset host consumed by the sweeper and the
// deletion cascade. Search returns every object in the configured folder
// uploaded before the given cutoff; BulkDelete removes the named objects.
type Provider interface {
	Search(ctx context.Context, uploadedBefore time.Time) ([]Object, error)
	BulkDelete(ctx context.Context, publicIDs []string) error
}
