package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

// Checkpoint records how far a migration got so a re-run reuses the same destination playlist.
type Checkpoint struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source_playlist"`
	Key       string          `json:"key"`
	Playlist  models.Playlist `json:"playlist"`
	AddedIDs  []string        `json:"added_ids"`
	Completed bool            `json:"completed"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CheckpointKey identifies a migration: the ordered source tracks plus the destination name.
// A checkpoint is only reused for a run with the same key.
func CheckpointKey(record *models.PlaylistRecord, destination string) string {
	h := sha256.New()
	h.Write([]byte(destination))
	for _, t := range record.Tracks {
		h.Write([]byte{0})
		h.Write([]byte(t.Title))
		h.Write([]byte{0x1f})
		h.Write([]byte(t.Artist))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CheckpointPath returns the state file kept next to an artifact.
func CheckpointPath(artifact string) string {
	return artifact + ".state.json"
}

// LoadCheckpoint reads the checkpoint at path. A missing file is not an error; it returns nil.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: checkpoint %s: %v", shared.ErrInvalidInput, path, err)
	}
	if cp.Playlist.ID == "" {
		return nil, fmt.Errorf("%w: checkpoint %s has no playlist id", shared.ErrInvalidInput, path)
	}
	return &cp, nil
}

// SaveCheckpoint atomically replaces the checkpoint at path.
func SaveCheckpoint(path string, cp *Checkpoint) error {
	data, err := shared.MarshalJSON(cp, true)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := shared.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// RemoveCheckpoint deletes the checkpoint at path if there is one.
func RemoveCheckpoint(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

// hasPrefix reports whether added is a prefix of ids. Appending the rest of ids then keeps
// the destination in source order.
func hasPrefix(ids, added []string) bool {
	if len(added) > len(ids) {
		return false
	}
	for i, id := range added {
		if ids[i] != id {
			return false
		}
	}
	return true
}
