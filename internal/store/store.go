package store

// Store defines the interface for snapshot persistence operations.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the snapshot doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveSnapshot atomically saves a snapshot for the given run, overwriting
	// any previous snapshot of that run.
	SaveSnapshot(runID string, snapshot *Snapshot) error

	// LoadSnapshot retrieves the snapshot for the given run.
	// Returns ErrNotFound if no snapshot exists for this runID.
	LoadSnapshot(runID string) (*Snapshot, error)

	// ListSnapshots returns metadata for all available snapshots.
	ListSnapshots() ([]SnapshotInfo, error)

	// DeleteSnapshot removes the snapshot and every artifact of the run
	// (snapshot.json, trace.jsonl, exported .npy files).
	DeleteSnapshot(runID string) error
}

// ErrNotFound is returned when a requested snapshot does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing snapshot.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "snapshot not found: " + e.RunID
	}
	return "snapshot not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
