package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
)

// Fixed keys of the data bucket.
const (
	KeyTasks        = "tasks"
	KeyGoals        = "goals"
	KeySettings     = "settings"
	KeySyncStatus   = "sync_status"
	KeyIdentity     = "identity"
	KeyAchievements = "achievements"
)

var (
	dataBucket     = []byte("auraplan")
	reminderBucket = []byte("reminders")
)

// TombstoneKey is the key holding deletion markers for a collection.
func TombstoneKey(c domain.Collection) string {
	return "tombstones:" + string(c)
}

// Options tune the store.
type Options struct {
	// MaxBytes caps the encoded size of a single key. Zero disables the quota.
	MaxBytes int
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Store is a key-value document store on a single BoltDB file.
// Every key holds one JSON document; collections are stored as JSON arrays.
type Store struct {
	db       *bolt.DB
	maxBytes int
	clock    clock.Clock
	logger   *zap.Logger
	online   atomic.Pointer[func() bool]
}

// Open initializes the BoltDB file and ensures the buckets exist.
func Open(path string, opts Options) (*Store, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.StorageError(path, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, domain.StorageError(path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{dataBucket, reminderBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, domain.StorageError(path, err)
	}

	return &Store{
		db:       db,
		maxBytes: opts.MaxBytes,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("localstore"),
	}, nil
}

// SetOnlineProbe installs the connectivity check used to stamp pending_sync.
// Without a probe the store assumes it is offline.
func (s *Store) SetOnlineProbe(probe func() bool) {
	if probe == nil {
		s.online.Store(nil)
		return
	}
	s.online.Store(&probe)
}

func (s *Store) isOnline() bool {
	if p := s.online.Load(); p != nil {
		return (*p)()
	}
	return false
}

// Now exposes the store clock so collaborators stamp with the same time source.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Delete removes a key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(dataBucket).Delete([]byte(key))
	}); err != nil {
		return domain.StorageError(key, err)
	}
	return nil
}

// Clear drops every key and reminder.
func (s *Store) Clear() error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{dataBucket, reminderBucket} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Size returns the number of stored keys.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(dataBucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

// write runs a read-modify-write of one key inside a single transaction.
// A rejected write rolls back, leaving the previous value in place.
func (s *Store) write(key string, fn func(current []byte) ([]byte, error)) error {
	if s == nil || s.db == nil {
		return domain.StorageError(key, bolt.ErrDatabaseNotOpen)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dataBucket)
		next, err := fn(b.Get([]byte(key)))
		if err != nil {
			return err
		}
		if s.maxBytes > 0 && len(next) > s.maxBytes {
			return domain.ErrQuotaExceeded
		}
		if err := b.Put([]byte(key), next); err != nil {
			return err
		}
		if key == KeyTasks || key == KeyGoals {
			return s.stampSyncStatus(b)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code != domain.ErrCodeStorage {
		return err
	}
	s.logger.Error("local write rejected", zap.String("key", key), zap.Error(err))
	return domain.StorageError(key, err)
}

func (s *Store) read(key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, domain.StorageError(key, bolt.ErrDatabaseNotOpen)
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(dataBucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}
