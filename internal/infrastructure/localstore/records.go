package localstore

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
)

// Get decodes the document under key into dst and reports whether it was present and readable.
func (s *Store) Get(key string, dst any) bool {
	raw, err := s.read(key)
	if err != nil {
		s.logger.Error("local read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("discarding unreadable record", zap.Error(domain.DeserializationError(key, err)))
		return false
	}
	return true
}

// Put encodes v and stores it under key.
func (s *Store) Put(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return domain.StorageError(key, err)
	}
	return s.write(key, func([]byte) ([]byte, error) { return payload, nil })
}

// LoadSettings returns persisted settings or the defaults.
func (s *Store) LoadSettings() domain.Settings {
	settings := domain.DefaultSettings()
	if !s.Get(KeySettings, &settings) {
		return domain.DefaultSettings()
	}
	return settings
}

// SaveSettings persists settings.
func (s *Store) SaveSettings(settings domain.Settings) error {
	return s.Put(KeySettings, settings)
}

// SyncStatus returns the last recorded sync status.
func (s *Store) SyncStatus() domain.SyncStatus {
	var status domain.SyncStatus
	s.Get(KeySyncStatus, &status)
	return status
}

// UpdateSyncStatus applies fn to the stored sync status.
func (s *Store) UpdateSyncStatus(fn func(*domain.SyncStatus)) error {
	return s.write(KeySyncStatus, func(current []byte) ([]byte, error) {
		var status domain.SyncStatus
		if len(current) > 0 {
			_ = json.Unmarshal(current, &status)
		}
		fn(&status)
		return json.Marshal(status)
	})
}

// stampSyncStatus runs inside the transaction of a task or goal write.
func (s *Store) stampSyncStatus(b *bolt.Bucket) error {
	var status domain.SyncStatus
	if current := b.Get([]byte(KeySyncStatus)); len(current) > 0 {
		_ = json.Unmarshal(current, &status)
	}
	status.LastSync = s.clock.Now()
	status.PendingSync = !s.isOnline()
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return b.Put([]byte(KeySyncStatus), payload)
}
