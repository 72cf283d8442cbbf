package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore persists run history as JSON on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore returns a JSON-backed history store.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Load reads history from disk. Missing or corrupt files return an empty
// log with a warning; history is operator convenience, never a reason to
// block an update.
func (s *FileStore) Load(ctx context.Context) (Log, error) {
	if err := ctx.Err(); err != nil {
		return Log{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Log{}, nil
		}
		return Log{}, err
	}

	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("history file corrupt, starting fresh")
		return Log{}, nil
	}
	return log, nil
}

// Append adds a record and writes the log back atomically.
func (s *FileStore) Append(ctx context.Context, record Record) error {
	log, err := s.Load(ctx)
	if err != nil {
		return err
	}
	log.Records = append(log.Records, record)
	return s.save(ctx, log)
}

func (s *FileStore) save(ctx context.Context, log Log) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return err
	}

	cleanup := func() {
		_ = os.Remove(tempFile.Name())
	}

	encoder := json.NewEncoder(tempFile)
	if err := encoder.Encode(log); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return err
	}

	if err := os.Rename(tempFile.Name(), s.path); err != nil {
		cleanup()
		return err
	}

	if dirHandle, err := os.Open(dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	return nil
}
