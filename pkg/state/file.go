package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps the run state in a single JSON file, written atomically
// so a crash mid-save can't leave a truncated state behind.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Load(_ context.Context) (RunState, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Info("No state file, treating as first run", zap.String("file", f.path))
		return RunState{}, false, nil
	}
	if err != nil {
		return RunState{}, false, fmt.Errorf("failed to read state file: %w", err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt file also counts as a first run: we reseed it rather
		// than wedge the job, matching the original behaviour.
		f.logger.Warn("State file is corrupt, treating as first run",
			zap.String("file", f.path), zap.Error(err))
		return RunState{}, false, nil
	}

	return state, true, nil
}

func (f *FileStore) Save(_ context.Context, state RunState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	f.logger.Debug("Saved state", zap.String("file", f.path), zap.Int("bytes", len(data)))
	return nil
}
