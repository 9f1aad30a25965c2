// Package notifytest records notifications for assertions.
package notifytest

import (
	"context"
	"sync"

	"github.com/fastygo/auraplan/domain"
)

// Recorder is a Notifier that keeps everything it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *Recorder) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
