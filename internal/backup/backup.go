package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const timestampLayout = "20060102-150405"

// Handle names a completed snapshot. The timestamped directory holds the
// configuration artifact copy; Archive is the data archive inside the
// backup volume, empty when the volume step was skipped or failed.
type Handle struct {
	Dir       string
	Volume    string
	Archive   string
	CreatedAt time.Time
}

// VolumeArchiveWarning reports a failed best-effort data archive. Under
// the default policy the run continues: the primary rollback path is
// redeploying the previous image, which does not need the data archive.
type VolumeArchiveWarning struct {
	Volume string
	Err    error
}

func (e *VolumeArchiveWarning) Error() string {
	return fmt.Sprintf("archive volume %s: %v", e.Volume, e.Err)
}

func (e *VolumeArchiveWarning) Unwrap() error {
	return e.Err
}

// VolumeArchiver archives a data volume into a named backup volume.
type VolumeArchiver interface {
	Archive(ctx context.Context, sourceVolume, backupVolume, archiveName string) error
}

// Snapshotter backs up mutable state before a destructive update step.
// The artifact copy is cheap and always attempted; the volume archive is
// expensive and guarded.
type Snapshotter struct {
	baseDir      string
	artifactPath string
	sourceVolume string
	backupVolume string
	strict       bool
	archiver     VolumeArchiver
	logger       zerolog.Logger
	now          func() time.Time
}

// SnapshotOption customizes Snapshotter behavior.
type SnapshotOption func(*Snapshotter)

// WithVolumeArchive enables the data-volume archive step.
func WithVolumeArchive(archiver VolumeArchiver, sourceVolume, backupVolume string) SnapshotOption {
	return func(s *Snapshotter) {
		s.archiver = archiver
		s.sourceVolume = sourceVolume
		s.backupVolume = backupVolume
	}
}

// WithStrictVolumeArchive promotes archive failures from warnings to
// run-aborting errors.
func WithStrictVolumeArchive(strict bool) SnapshotOption {
	return func(s *Snapshotter) {
		s.strict = strict
	}
}

// WithClock overrides timestamping, for tests.
func WithClock(now func() time.Time) SnapshotOption {
	return func(s *Snapshotter) {
		s.now = now
	}
}

// NewSnapshotter constructs a Snapshotter writing under baseDir.
func NewSnapshotter(baseDir, artifactPath string, logger zerolog.Logger, opts ...SnapshotOption) (*Snapshotter, error) {
	if baseDir == "" {
		return nil, errors.New("backup dir must not be empty")
	}
	if artifactPath == "" {
		return nil, errors.New("artifact path must not be empty")
	}
	s := &Snapshotter{
		baseDir:      baseDir,
		artifactPath: artifactPath,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot copies the configuration artifact into a fresh timestamped
// directory and, when configured, archives the data volume. A failed
// artifact copy aborts; a failed volume archive only warns unless strict
// mode is on.
func (s *Snapshotter) Snapshot(ctx context.Context) (Handle, error) {
	createdAt := s.now().UTC()
	stamp := createdAt.Format(timestampLayout)
	dir := filepath.Join(s.baseDir, stamp)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Handle{}, fmt.Errorf("create backup dir: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(s.artifactPath))
	if err := copyFile(s.artifactPath, dest); err != nil {
		return Handle{}, fmt.Errorf("backup artifact: %w", err)
	}

	handle := Handle{Dir: dir, CreatedAt: createdAt}
	s.logger.Info().Str("dir", dir).Msg("configuration artifact backed up")

	if s.archiver == nil || s.sourceVolume == "" {
		s.logger.Debug().Msg("volume archive not configured, skipping")
		return handle, nil
	}

	archiveName := stamp + ".tar.gz"
	if err := s.archiver.Archive(ctx, s.sourceVolume, s.backupVolume, archiveName); err != nil {
		warning := &VolumeArchiveWarning{Volume: s.sourceVolume, Err: err}
		if s.strict {
			return Handle{}, warning
		}
		s.logger.Warn().Err(warning).Msg("data volume archive failed, continuing")
		return handle, nil
	}

	handle.Volume = s.backupVolume
	handle.Archive = archiveName
	s.logger.Info().
		Str("volume", s.backupVolume).
		Str("archive", archiveName).
		Msg("data volume archived")

	return handle, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
