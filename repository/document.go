package repository

import (
	"context"
	"time"

	"github.com/fastygo/auraplan/domain"
)

// DocumentStore is the remote side of sync: one document per entity, keyed by
// collection and local id, scoped to an owner.
type DocumentStore interface {
	// Query returns the owner's live documents, newest first.
	Query(ctx context.Context, collection domain.Collection, ownerID string) ([]domain.Document, error)
	// Upsert writes doc keyed by (collection, id), preserving its UpdatedAt.
	// It returns domain.ErrStaleWrite and leaves the stored copy alone when that
	// copy was modified after doc.
	Upsert(ctx context.Context, doc *domain.Document) error
	// Tombstone marks a document deleted at the given time.
	Tombstone(ctx context.Context, collection domain.Collection, ownerID, id string, at time.Time) error
	// Tombstones lists deletions recorded for the owner.
	Tombstones(ctx context.Context, collection domain.Collection, ownerID string) ([]domain.Tombstone, error)
}
