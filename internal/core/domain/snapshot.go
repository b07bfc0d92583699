// Package domain defines the core domain models for DrawDoc.
package domain

import "time"

// Snapshot is one serialized scene state.
//
// Snapshots are immutable once created: history and auto-save only ever
// replace them, never edit them in place.
type Snapshot struct {
	JSON      string `json:"json"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// NewSnapshot creates a snapshot stamped with the given time.
func NewSnapshot(sceneJSON string, at time.Time) Snapshot {
	return Snapshot{
		JSON:      sceneJSON,
		Timestamp: at.UnixMilli(),
	}
}

// Time returns the snapshot timestamp.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}
