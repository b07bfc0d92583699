package autosave

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/drawdoc/internal/core/domain"
)

// RecordVersion is the record layout version written by this build.
const RecordVersion = 1

// Record is the persisted auto-save value.
type Record struct {
	State     domain.Snapshot `json:"state"`
	Timestamp int64           `json:"timestamp"` // saved at, Unix milliseconds
	Version   int             `json:"version"`
}

var (
	errNoState     = errors.New("record has no state object")
	errNoSceneJSON = errors.New("record state.json is missing, empty or not a string")
)

// decodeRecord parses a stored record leniently. Numbers may be absent;
// state.json must be a non-empty string. savedAt is 0 when neither
// timestamp field is present.
func decodeRecord(data []byte) (snap domain.Snapshot, savedAt int64, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return domain.Snapshot{}, 0, fmt.Errorf("decode record: %w", err)
	}

	state, ok := raw["state"].(map[string]any)
	if !ok {
		return domain.Snapshot{}, 0, errNoState
	}
	sceneJSON, ok := state["json"].(string)
	if !ok || sceneJSON == "" {
		return domain.Snapshot{}, 0, errNoSceneJSON
	}

	snap = domain.Snapshot{JSON: sceneJSON, Timestamp: millis(state["timestamp"])}
	savedAt = millis(raw["timestamp"])
	if savedAt == 0 {
		savedAt = snap.Timestamp
	}
	return snap, savedAt, nil
}

func millis(v any) int64 {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}
