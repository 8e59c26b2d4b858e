package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements the Store interface using filesystem-based persistence.
// Snapshots are stored in a directory structure: <baseDir>/runs/<runID>/
//
// Thread-safety: This implementation uses atomic file operations (rename)
// and does not require locks.
type FSStore struct {
	baseDir string // Root directory for all run data (e.g., "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

// RunDir returns the directory path for a given run ID.
func (fs *FSStore) RunDir(runID string) string {
	return runDir(fs.baseDir, runID)
}

func runDir(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID)
}

// snapshotPath returns the path to the snapshot.json file for a run.
func (fs *FSStore) snapshotPath(runID string) string {
	return filepath.Join(fs.RunDir(runID), "snapshot.json")
}

// SaveSnapshot atomically saves a snapshot for the given run.
// Uses temp file + rename pattern to ensure atomicity.
func (fs *FSStore) SaveSnapshot(runID string, snapshot *Snapshot) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	dir := fs.RunDir(runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	tempPath := fs.snapshotPath(runID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}

	finalPath := fs.snapshotPath(runID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	slog.Debug("Snapshot saved", "run_id", runID, "path", finalPath)
	return nil
}

// LoadSnapshot retrieves the snapshot for the given run.
func (fs *FSStore) LoadSnapshot(runID string) (*Snapshot, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	path := fs.snapshotPath(runID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}

	slog.Debug("Snapshot loaded", "run_id", runID, "path", path)
	return &snapshot, nil
}

// ListSnapshots returns metadata for all available snapshots.
func (fs *FSStore) ListSnapshots() ([]SnapshotInfo, error) {
	runsDir := filepath.Join(fs.baseDir, "runs")

	entries, err := os.ReadDir(runsDir)
	if os.IsNotExist(err) {
		return []SnapshotInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	infos := []SnapshotInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		runID := entry.Name()
		if _, err := os.Stat(fs.snapshotPath(runID)); os.IsNotExist(err) {
			continue // Trace-only runs have no snapshot
		}

		snapshot, err := fs.LoadSnapshot(runID)
		if err != nil {
			slog.Warn("Failed to load snapshot for listing", "run_id", runID, "error", err)
			continue
		}

		infos = append(infos, snapshot.ToInfo())
	}

	slog.Debug("Listed snapshots", "count", len(infos))
	return infos, nil
}

// DeleteSnapshot removes the run directory and all of its contents.
func (fs *FSStore) DeleteSnapshot(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	dir := fs.RunDir(runID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Snapshot deleted", "run_id", runID, "path", dir)
	return nil
}
