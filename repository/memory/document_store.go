// Package memory holds an in-process DocumentStore used in offline mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/repository"
)

type docKey struct {
	collection domain.Collection
	owner      string
	id         string
}

// DocumentStore mirrors the Postgres document semantics in memory.
type DocumentStore struct {
	mu   sync.Mutex
	docs map[docKey]domain.Document
	errs map[string]error
	now  func() time.Time
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[docKey]domain.Document),
		errs: make(map[string]error),
		now:  time.Now,
	}
}

// FailWith makes every subsequent call of op ("query", "upsert", "tombstone")
// return err. A nil err clears the failure.
func (s *DocumentStore) FailWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, op)
		return
	}
	s.errs[op] = err
}

func (s *DocumentStore) Query(ctx context.Context, collection domain.Collection, ownerID string) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["query"]; err != nil {
		return nil, err
	}
	var out []domain.Document
	for k, doc := range s.docs {
		if k.collection == collection && k.owner == ownerID && doc.DeletedAt == nil {
			out = append(out, cloneDoc(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *DocumentStore) Upsert(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" || doc.OwnerID == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["upsert"]; err != nil {
		return err
	}
	k := docKey{doc.Collection, doc.OwnerID, doc.ID}
	next := cloneDoc(*doc)
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = s.now()
	}
	if existing, ok := s.docs[k]; ok {
		if existing.DeletedAt != nil && !existing.DeletedAt.Before(next.UpdatedAt) {
			return nil
		}
		if existing.DeletedAt == nil && existing.UpdatedAt.After(next.UpdatedAt) {
			return domain.ErrStaleWrite
		}
		next.CreatedAt = existing.CreatedAt
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = s.now()
	}
	next.DeletedAt = nil
	s.docs[k] = next
	return nil
}

func (s *DocumentStore) Tombstone(ctx context.Context, collection domain.Collection, ownerID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["tombstone"]; err != nil {
		return err
	}
	k := docKey{collection, ownerID, id}
	existing, ok := s.docs[k]
	if ok && existing.UpdatedAt.After(at) {
		return nil
	}
	if !ok {
		existing = domain.Document{Collection: collection, ID: id, OwnerID: ownerID, CreatedAt: at, UpdatedAt: at}
	}
	deleted := at
	existing.DeletedAt = &deleted
	s.docs[k] = existing
	return nil
}

func (s *DocumentStore) Tombstones(ctx context.Context, collection domain.Collection, ownerID string) ([]domain.Tombstone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["query"]; err != nil {
		return nil, err
	}
	var out []domain.Tombstone
	for k, doc := range s.docs {
		if k.collection == collection && k.owner == ownerID && doc.DeletedAt != nil {
			out = append(out, domain.Tombstone{ID: doc.ID, DeletedAt: *doc.DeletedAt})
		}
	}
	return out, nil
}

// Len counts live documents across all owners and collections.
func (s *DocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, doc := range s.docs {
		if doc.DeletedAt == nil {
			n++
		}
	}
	return n
}

func cloneDoc(doc domain.Document) domain.Document {
	doc.Payload = append([]byte(nil), doc.Payload...)
	return doc
}
