package localstore

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/auraplan/domain"
)

// PutReminder stores the reminder keyed by its task id.
func (s *Store) PutReminder(r domain.Reminder) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(reminderBucket).Put([]byte(r.TaskID), payload)
	}); err != nil {
		return domain.StorageError("reminders", err)
	}
	return nil
}

// GetReminder returns the reminder for a task.
func (s *Store) GetReminder(taskID string) (*domain.Reminder, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var r *domain.Reminder
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(reminderBucket).Get([]byte(taskID))
		if v == nil {
			return domain.ErrReminderNotFound
		}
		var decoded domain.Reminder
		if err := json.Unmarshal(v, &decoded); err != nil {
			return domain.DeserializationError("reminders/"+taskID, err)
		}
		r = &decoded
		return nil
	})
	return r, err
}

// ListReminders returns every stored reminder, skipping unreadable entries.
func (s *Store) ListReminders() ([]domain.Reminder, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var out []domain.Reminder
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(reminderBucket).ForEach(func(k, v []byte) error {
			var r domain.Reminder
			if err := json.Unmarshal(v, &r); err != nil {
				return nil
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}

// DeleteReminder removes the reminder for a task.
func (s *Store) DeleteReminder(taskID string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(reminderBucket).Delete([]byte(taskID))
	})
}

// PruneReminders removes terminal reminders last touched before olderThan.
func (s *Store) PruneReminders(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(reminderBucket)
		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var r domain.Reminder
			if err := json.Unmarshal(v, &r); err != nil || (r.Terminal() && r.UpdatedAt.Before(olderThan)) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
