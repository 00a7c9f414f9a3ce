package tracker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/stride/internal/domain/model"
)

// checkpointVersion guards against decoding state written by an incompatible
// build. Bump when the envelope shape changes.
const checkpointVersion = 1

// Checkpoint is the full durable snapshot of in-progress tracker state.
// Restoring it must rehydrate every counter exactly; in particular the tick
// counter continues from its checkpointed value, never from zero.
type Checkpoint struct {
	Version     int              `json:"version"`
	SessionID   string           `json:"session_id"`
	Kind        string           `json:"kind"`
	Mode        Mode             `json:"mode"`
	Start       time.Time        `json:"start"`
	TickSeconds int64            `json:"tick_seconds"`
	PausedMS    int64            `json:"paused_ms"`
	PauseStart  time.Time        `json:"pause_start,omitempty"`
	PauseCount  int              `json:"pause_count"`
	LastFix     time.Time        `json:"last_fix,omitempty"`
	Points      []model.GeoPoint `json:"points,omitempty"`
}

func encodeCheckpoint(cp Checkpoint) ([]byte, error) {
	cp.Version = checkpointVersion
	data, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return data, nil
}

func decodeCheckpoint(data []byte) (Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrCheckpointDecode, err)
	}
	if cp.Version != checkpointVersion {
		return Checkpoint{}, fmt.Errorf("%w: unsupported version %d", ErrCheckpointDecode, cp.Version)
	}
	return cp, nil
}
