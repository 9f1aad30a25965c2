package transport

import (
	"encoding/json"

	"github.com/fastygo/auraplan/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// AuthResponse is returned by login. Token is empty when the API runs unauthenticated.
type AuthResponse struct {
	Session *domain.Session `json:"session"`
	Token   string          `json:"token,omitempty"`
}

// ListMeta accompanies list responses.
type ListMeta struct {
	Count int `json:"count"`
}

// SyncStatusResponse combines the persisted status with live state.
type SyncStatusResponse struct {
	domain.SyncStatus
	InProgress bool `json:"in_progress"`
	Online     bool `json:"online"`
}

// DashboardResponse bundles everything the analytics screen renders.
type DashboardResponse struct {
	Stats        domain.Stats         `json:"stats"`
	Goals        domain.GoalOverview  `json:"goals"`
	Progress     []domain.DayProgress `json:"progress"`
	Streak       int                  `json:"streak"`
	AverageDaily float64              `json:"average_daily"`
	Achievements []domain.Achievement `json:"achievements"`
}
