package domain

import "time"

// Identity is the signed-in principal, possibly anonymous.
type Identity struct {
	ID        string    `json:"id"`
	Anonymous bool      `json:"anonymous"`
	SignedIn  time.Time `json:"signed_in"`
}

// Session represents a cached authentication session stored in Redis.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Anonymous bool              `json:"anonymous"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Identity returns the principal the session authenticates.
func (s *Session) Identity() Identity {
	return Identity{ID: s.UserID, Anonymous: s.Anonymous, SignedIn: s.CreatedAt}
}
