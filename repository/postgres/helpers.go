package postgres

import "time"

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func jsonPayload(payload []byte) []byte {
	if len(payload) == 0 {
		return []byte("{}")
	}
	return payload
}
