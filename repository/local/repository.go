// Package local implements entity repositories on top of the local store.
package local

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
)

// Repository is a CRUD view over one persisted collection. Each call loads
// and rewrites the whole collection inside a single store transaction.
type Repository[T any, P interface {
	*T
	domain.Entity
}] struct {
	store      *localstore.Store
	collection domain.Collection
	notFound   error
	logger     *zap.Logger
}

func newRepository[T any, P interface {
	*T
	domain.Entity
}](store *localstore.Store, collection domain.Collection, notFound error, logger *zap.Logger) *Repository[T, P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository[T, P]{
		store:      store,
		collection: collection,
		notFound:   notFound,
		logger:     logger.With(zap.String("collection", string(collection))),
	}
}

// Collection names the persisted collection.
func (r *Repository[T, P]) Collection() domain.Collection {
	return r.collection
}

func (r *Repository[T, P]) key() string {
	return string(r.collection)
}

// NewID returns a time-prefixed identifier: base36 milliseconds followed by random base36 digits.
func NewID(now time.Time) string {
	u := uuid.New()
	var n uint64
	for _, b := range u[:8] {
		n = n<<8 | uint64(b)
	}
	suffix := strconv.FormatUint(n, 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + suffix
}

// Add assigns an id when missing or already taken, stamps timestamps and persists.
func (r *Repository[T, P]) Add(ctx context.Context, entity T) (T, error) {
	now := r.store.Now()
	created := entity
	P(&created).Stamp(now)

	err := localstore.Update(r.store, r.key(), func(items []T) ([]T, error) {
		id := P(&created).EntityID()
		for id == "" || indexOf[T, P](items, id) >= 0 {
			id = NewID(now)
		}
		P(&created).AssignID(id)
		return append(items, created), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	r.logger.Debug("entity added", zap.String("id", P(&created).EntityID()))
	return created, nil
}

// Get returns one entity by id.
func (r *Repository[T, P]) Get(ctx context.Context, id string) (T, error) {
	items := localstore.Load[T](r.store, r.key())
	if i := indexOf[T, P](items, id); i >= 0 {
		return items[i], nil
	}
	var zero T
	return zero, r.notFound
}

// List returns the whole collection in insertion order.
func (r *Repository[T, P]) List(ctx context.Context) ([]T, error) {
	return localstore.Load[T](r.store, r.key()), nil
}

// Update applies mutate to the stored entity, refreshes UpdatedAt and persists.
// A missing id returns the collection's not-found error and writes nothing.
func (r *Repository[T, P]) Update(ctx context.Context, id string, mutate func(P) error) (T, error) {
	var updated T
	err := localstore.Update(r.store, r.key(), func(items []T) ([]T, error) {
		i := indexOf[T, P](items, id)
		if i < 0 {
			return nil, r.notFound
		}
		next := items[i]
		if err := mutate(P(&next)); err != nil {
			return nil, err
		}
		P(&next).AssignID(id)
		P(&next).Stamp(r.store.Now())
		items[i] = next
		updated = next
		return items, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Delete removes the entity and records a tombstone. Deleting a missing id is a no-op.
func (r *Repository[T, P]) Delete(ctx context.Context, id string) error {
	removed := false
	err := localstore.Update(r.store, r.key(), func(items []T) ([]T, error) {
		i := indexOf[T, P](items, id)
		if i < 0 {
			return items, nil
		}
		removed = true
		return append(items[:i], items[i+1:]...), nil
	})
	if err != nil || !removed {
		return err
	}
	tomb := domain.Tombstone{ID: id, DeletedAt: r.store.Now()}
	if err := localstore.Update(r.store, localstore.TombstoneKey(r.collection), func(items []domain.Tombstone) ([]domain.Tombstone, error) {
		for i := range items {
			if items[i].ID == id {
				items[i] = tomb
				return items, nil
			}
		}
		return append(items, tomb), nil
	}); err != nil {
		r.logger.Error("failed to record tombstone", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Filter returns the entities matching keep.
func (r *Repository[T, P]) Filter(ctx context.Context, keep func(P) bool) ([]T, error) {
	items := localstore.Load[T](r.store, r.key())
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(P(&items[i])) {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// Unsynced returns entities modified since their last successful push.
func (r *Repository[T, P]) Unsynced(ctx context.Context) ([]T, error) {
	return r.Filter(ctx, func(e P) bool { return !e.IsSynced() })
}

// MarkSynced flags entities as pushed without touching UpdatedAt. An entity is
// only flagged when its UpdatedAt still equals the pushed version, so edits made
// while a push was in flight stay pending.
func (r *Repository[T, P]) MarkSynced(ctx context.Context, versions map[string]time.Time) error {
	if len(versions) == 0 {
		return nil
	}
	return localstore.Update(r.store, r.key(), func(items []T) ([]T, error) {
		for i := range items {
			e := P(&items[i])
			if v, ok := versions[e.EntityID()]; ok && v.Equal(e.LastModified()) {
				e.MarkSynced(true)
			}
		}
		return items, nil
	})
}

// Adopt reassigns every entity not owned by owner and marks it unsynced so the
// next push files it under the new owner. UpdatedAt is left untouched.
func (r *Repository[T, P]) Adopt(ctx context.Context, owner string) (int, error) {
	adopted := 0
	err := localstore.Update(r.store, r.key(), func(items []T) ([]T, error) {
		for i := range items {
			e := P(&items[i])
			if e.Owner() == owner {
				continue
			}
			e.AssignOwner(owner)
			e.MarkSynced(false)
			adopted++
		}
		return items, nil
	})
	return adopted, err
}

// ReplaceAll overwrites the collection.
func (r *Repository[T, P]) ReplaceAll(ctx context.Context, items []T) error {
	return localstore.Save(r.store, r.key(), dedupe[T, P](items))
}

// Merge rewrites the collection through fn inside one transaction.
func (r *Repository[T, P]) Merge(ctx context.Context, fn func(local []T) ([]T, error)) error {
	return localstore.Update(r.store, r.key(), func(items []T) ([]T, error) {
		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		return dedupe[T, P](next), nil
	})
}

// Tombstones lists deletions not yet pushed.
func (r *Repository[T, P]) Tombstones(ctx context.Context) ([]domain.Tombstone, error) {
	return localstore.Load[domain.Tombstone](r.store, localstore.TombstoneKey(r.collection)), nil
}

// ClearTombstones drops pushed deletion markers.
func (r *Repository[T, P]) ClearTombstones(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return localstore.Update(r.store, localstore.TombstoneKey(r.collection), func(items []domain.Tombstone) ([]domain.Tombstone, error) {
		kept := items[:0]
		for _, t := range items {
			if _, ok := drop[t.ID]; !ok {
				kept = append(kept, t)
			}
		}
		return kept, nil
	})
}

func indexOf[T any, P interface {
	*T
	domain.Entity
}](items []T, id string) int {
	if strings.TrimSpace(id) == "" {
		return -1
	}
	for i := range items {
		if P(&items[i]).EntityID() == id {
			return i
		}
	}
	return -1
}

// dedupe keeps the last occurrence of each id, preserving first-seen order.
func dedupe[T any, P interface {
	*T
	domain.Entity
}](items []T) []T {
	pos := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := P(&item).EntityID()
		if i, ok := pos[id]; ok {
			out[i] = item
			continue
		}
		pos[id] = len(out)
		out = append(out, item)
	}
	return out
}
