package transport

// AuthLoginRequest starts a session. An empty user id signs in anonymously.
type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

type ProgressRequest struct {
	Value *int   `json:"value"`
	Notes string `json:"notes"`
}

// ReminderRequest carries the offset, in minutes, before the due time or from now.
type ReminderRequest struct {
	Minutes *int `json:"minutes"`
}
