package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/repository/local"
)

type entity[T any] interface {
	*T
	domain.Entity
}

type pushStats struct {
	pushed  int
	failed  int
	stale   int
	deleted int
}

// pushCollection upserts every unsynced entity and every pending tombstone.
// Failures are logged and left pending for the next pass. Entities the remote
// holds a newer copy of stay unsynced and are settled by the pull.
func pushCollection[T any, P entity[T]](ctx context.Context, c *Coordinator, repo *local.Repository[T, P], owner string) (pushStats, error) {
	var stats pushStats
	collection := repo.Collection()
	log := c.logger.With(zap.String("collection", string(collection)))

	unsynced, err := repo.Unsynced(ctx)
	if err != nil {
		return stats, err
	}

	var errs []error
	versions := make(map[string]time.Time, len(unsynced))
	for i := range unsynced {
		e := P(&unsynced[i])
		doc, err := toDocument[T, P](collection, owner, unsynced[i])
		if err == nil {
			err = c.remote.Upsert(ctx, &doc)
		}
		if errors.Is(err, domain.ErrStaleWrite) {
			stats.stale++
			log.Debug("remote copy is newer", zap.String("id", e.EntityID()))
			continue
		}
		if err != nil {
			stats.failed++
			errs = append(errs, err)
			log.Warn("push failed", zap.String("id", e.EntityID()), zap.Error(err))
			continue
		}
		versions[e.EntityID()] = e.LastModified()
		stats.pushed++
	}
	if err := repo.MarkSynced(ctx, versions); err != nil {
		errs = append(errs, err)
	}

	tombs, err := repo.Tombstones(ctx)
	if err != nil {
		return stats, errors.Join(append(errs, err)...)
	}
	var cleared []string
	for _, t := range tombs {
		if err := c.remote.Tombstone(ctx, collection, owner, t.ID, t.DeletedAt); err != nil {
			errs = append(errs, err)
			log.Warn("remote delete failed", zap.String("id", t.ID), zap.Error(err))
			continue
		}
		cleared = append(cleared, t.ID)
	}
	stats.deleted = len(cleared)
	if err := repo.ClearTombstones(ctx, cleared); err != nil {
		errs = append(errs, err)
	}
	return stats, errors.Join(errs...)
}

// pullCollection fetches the owner's documents and applies the merge policy.
func pullCollection[T any, P entity[T]](ctx context.Context, c *Coordinator, repo *local.Repository[T, P], owner string) (int, error) {
	collection := repo.Collection()
	docs, err := c.remote.Query(ctx, collection, owner)
	if err != nil {
		return 0, err
	}
	remote := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := fromDocument[T, P](doc)
		if err != nil {
			c.logger.Warn("skipping unreadable remote document",
				zap.String("collection", string(collection)),
				zap.String("id", doc.ID),
				zap.Error(domain.DeserializationError(doc.ID, err)))
			continue
		}
		remote = append(remote, item)
	}

	if c.cfg.Merge == domain.MergeReplace {
		return len(remote), repo.ReplaceAll(ctx, remote)
	}

	remoteTombs, err := c.remote.Tombstones(ctx, collection, owner)
	if err != nil {
		return 0, err
	}
	localTombs, err := repo.Tombstones(ctx)
	if err != nil {
		return 0, err
	}
	err = repo.Merge(ctx, func(localItems []T) ([]T, error) {
		return mergeNewest[T, P](localItems, remote, indexTombstones(localTombs), indexTombstones(remoteTombs)), nil
	})
	return len(remote), err
}

// mergeNewest combines both sides per id: the newer UpdatedAt wins and ties go
// to the remote copy. Ids present on one side only are kept unless the other
// side holds a tombstone at least as new as the entity.
func mergeNewest[T any, P entity[T]](localItems, remote []T, localTombs, remoteTombs map[string]time.Time) []T {
	remoteByID := make(map[string]int, len(remote))
	for i := range remote {
		remoteByID[P(&remote[i]).EntityID()] = i
	}

	out := make([]T, 0, len(localItems)+len(remote))
	seen := make(map[string]struct{}, len(localItems))
	for i := range localItems {
		l := P(&localItems[i])
		id := l.EntityID()
		seen[id] = struct{}{}
		if j, ok := remoteByID[id]; ok {
			r := P(&remote[j])
			if !r.LastModified().Before(l.LastModified()) {
				out = append(out, remote[j])
			} else {
				out = append(out, localItems[i])
			}
			continue
		}
		if deleted, ok := remoteTombs[id]; ok && l.IsSynced() && !deleted.Before(l.LastModified()) {
			continue
		}
		out = append(out, localItems[i])
	}
	for i := range remote {
		r := P(&remote[i])
		id := r.EntityID()
		if _, ok := seen[id]; ok {
			continue
		}
		if deleted, ok := localTombs[id]; ok && !deleted.Before(r.LastModified()) {
			continue
		}
		out = append(out, remote[i])
	}
	return out
}

func indexTombstones(tombs []domain.Tombstone) map[string]time.Time {
	out := make(map[string]time.Time, len(tombs))
	for _, t := range tombs {
		if prev, ok := out[t.ID]; !ok || t.DeletedAt.After(prev) {
			out[t.ID] = t.DeletedAt
		}
	}
	return out
}

func toDocument[T any, P entity[T]](collection domain.Collection, owner string, item T) (domain.Document, error) {
	e := P(&item)
	e.AssignOwner(owner)
	e.MarkSynced(true)
	payload, err := json.Marshal(item)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		Collection: collection,
		ID:         e.EntityID(),
		OwnerID:    owner,
		Payload:    payload,
		CreatedAt:  e.Created(),
		UpdatedAt:  e.LastModified(),
	}, nil
}

func fromDocument[T any, P entity[T]](doc domain.Document) (T, error) {
	var item T
	if err := json.Unmarshal(doc.Payload, &item); err != nil {
		return item, err
	}
	e := P(&item)
	e.AssignID(doc.ID)
	e.AssignOwner(doc.OwnerID)
	e.MarkSynced(true)
	return item, nil
}
