package localstore

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
)

// Load returns the collection stored under key. A missing or unreadable
// value yields an empty collection; corruption is logged, never returned.
func Load[T any](s *Store, key string) []T {
	raw, err := s.read(key)
	if err != nil {
		s.logger.Error("local read failed", zap.String("key", key), zap.Error(err))
		return []T{}
	}
	return decodeCollection[T](s, key, raw)
}

// Save replaces the collection stored under key.
func Save[T any](s *Store, key string, items []T) error {
	return Update(s, key, func([]T) ([]T, error) { return items, nil })
}

// Update applies fn to the current collection and persists the result atomically.
// Returning an error from fn aborts the write.
func Update[T any](s *Store, key string, fn func(items []T) ([]T, error)) error {
	return s.write(key, func(current []byte) ([]byte, error) {
		next, err := fn(decodeCollection[T](s, key, current))
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		return json.Marshal(next)
	})
}

func decodeCollection[T any](s *Store, key string, raw []byte) []T {
	if len(raw) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("discarding unreadable collection", zap.Error(domain.DeserializationError(key, err)))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}
