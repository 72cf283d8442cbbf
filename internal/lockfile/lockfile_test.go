package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquire_Release_Reacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.lock")

	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	release()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file not removed: %v", err)
	}

	release2, err := Acquire(path)
	if err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	release2()
}

func TestAcquire_Contended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.lock")

	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	_, err = Acquire(path)
	if err == nil {
		t.Fatal("expected contention error")
	}
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %T", err)
	}
	if held.PID != os.Getpid() {
		t.Fatalf("expected pid %d in error, got %d", os.Getpid(), held.PID)
	}
}

func TestAcquire_EmptyPath(t *testing.T) {
	if _, err := Acquire("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
