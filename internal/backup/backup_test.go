package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeArchiver struct {
	err     error
	calls   int
	source  string
	backup  string
	archive string
}

func (a *fakeArchiver) Archive(_ context.Context, sourceVolume, backupVolume, archiveName string) error {
	a.calls++
	a.source = sourceVolume
	a.backup = backupVolume
	a.archive = archiveName
	return a.err
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	}
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Dockerfile")
	if err := os.WriteFile(path, []byte("FROM jenkins/jenkins:lts\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestSnapshotter_CopiesArtifact(t *testing.T) {
	artifact := writeArtifact(t)
	baseDir := t.TempDir()

	snapshotter, err := NewSnapshotter(baseDir, artifact, zerolog.Nop(), WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handle, err := snapshotter.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDir := filepath.Join(baseDir, "20260825-103000")
	if handle.Dir != wantDir {
		t.Fatalf("unexpected dir: %q, want %q", handle.Dir, wantDir)
	}

	copied, err := os.ReadFile(filepath.Join(handle.Dir, "Dockerfile"))
	if err != nil {
		t.Fatalf("read backup copy: %v", err)
	}
	if string(copied) != "FROM jenkins/jenkins:lts\n" {
		t.Fatalf("unexpected backup content: %q", copied)
	}
}

func TestSnapshotter_ArchivesVolume(t *testing.T) {
	archiver := &fakeArchiver{}
	snapshotter, err := NewSnapshotter(t.TempDir(), writeArtifact(t), zerolog.Nop(),
		WithClock(fixedClock()),
		WithVolumeArchive(archiver, "jenkins_home", "jenkins_home_backup"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handle, err := snapshotter.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if archiver.calls != 1 {
		t.Fatalf("expected 1 archive call, got %d", archiver.calls)
	}
	if archiver.source != "jenkins_home" || archiver.backup != "jenkins_home_backup" {
		t.Fatalf("unexpected volumes: %q → %q", archiver.source, archiver.backup)
	}
	if archiver.archive != "20260825-103000.tar.gz" {
		t.Fatalf("unexpected archive name: %q", archiver.archive)
	}
	if handle.Volume != "jenkins_home_backup" || handle.Archive != "20260825-103000.tar.gz" {
		t.Fatalf("unexpected handle: %+v", handle)
	}
}

func TestSnapshotter_ArchiveFailureWarnsOnly(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("daemon unreachable")}
	snapshotter, err := NewSnapshotter(t.TempDir(), writeArtifact(t), zerolog.Nop(),
		WithClock(fixedClock()),
		WithVolumeArchive(archiver, "jenkins_home", "jenkins_home_backup"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handle, err := snapshotter.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("warn-only policy must not fail the snapshot: %v", err)
	}
	if handle.Dir == "" {
		t.Fatal("expected artifact backup despite archive failure")
	}
	if handle.Volume != "" || handle.Archive != "" {
		t.Fatalf("failed archive must not be reported in handle: %+v", handle)
	}
}

func TestSnapshotter_ArchiveFailureStrictAborts(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("daemon unreachable")}
	snapshotter, err := NewSnapshotter(t.TempDir(), writeArtifact(t), zerolog.Nop(),
		WithClock(fixedClock()),
		WithVolumeArchive(archiver, "jenkins_home", "jenkins_home_backup"),
		WithStrictVolumeArchive(true),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = snapshotter.Snapshot(context.Background())
	if err == nil {
		t.Fatal("strict policy should abort on archive failure")
	}
	var warning *VolumeArchiveWarning
	if !errors.As(err, &warning) {
		t.Fatalf("expected VolumeArchiveWarning, got %T", err)
	}
	if warning.Volume != "jenkins_home" {
		t.Fatalf("unexpected volume in warning: %q", warning.Volume)
	}
}

func TestSnapshotter_MissingArtifactFails(t *testing.T) {
	snapshotter, err := NewSnapshotter(t.TempDir(), filepath.Join(t.TempDir(), "missing"), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := snapshotter.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
