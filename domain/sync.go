package domain

import "time"

// SyncStatus is updated on every local task or goal write and after each sync run.
type SyncStatus struct {
	LastSync    time.Time  `json:"last_sync"`
	PendingSync bool       `json:"pending_sync"`
	LastPush    *time.Time `json:"last_push,omitempty"`
	LastPull    *time.Time `json:"last_pull,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Tombstone records a local hard delete until it has been pushed.
type Tombstone struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// MergePolicy decides how pulled documents are combined with local state.
type MergePolicy string

const (
	// MergeNewest keeps the newer copy per id and unions both sides.
	MergeNewest MergePolicy = "merge"
	// MergeReplace overwrites the local collection with the remote one.
	MergeReplace MergePolicy = "replace"
)

// FailurePolicy decides whether a failed push aborts the pull phase.
type FailurePolicy string

const (
	FailFast    FailurePolicy = "fail_fast"
	Independent FailurePolicy = "independent"
)

// SyncTrigger names what started a sync run.
type SyncTrigger string

const (
	TriggerOnline   SyncTrigger = "online"
	TriggerIdentity SyncTrigger = "identity"
	TriggerManual   SyncTrigger = "manual"
	TriggerPeriodic SyncTrigger = "periodic"
)

// SyncResult summarizes one sync run.
type SyncResult struct {
	Trigger    SyncTrigger `json:"trigger"`
	Skipped    string      `json:"skipped,omitempty"`
	Pushed     int         `json:"pushed"`
	PushFailed int         `json:"push_failed"`
	Stale      int         `json:"stale"`
	Deleted    int         `json:"deleted"`
	Pulled     int         `json:"pulled"`
	StartedAt  time.Time   `json:"started_at"`
	Duration   string      `json:"duration"`
}

// Document is the remote representation of a synced entity.
type Document struct {
	Collection Collection `json:"collection"`
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Payload    []byte     `json:"payload"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}
