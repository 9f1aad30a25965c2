package monitor

import "time"

type Status struct {
	Online    bool            `json:"online"`
	Services  map[string]bool `json:"services"`
	LocalKeys int             `json:"local_keys"`
	LastCheck time.Time       `json:"last_check"`
}
