package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// HeldError reports that another update run holds the lock. The message
// carries the remediation: verify the pid is gone, then remove the file.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("update lock %s is held by pid %d; if that process is gone, remove the file and retry", e.Path, e.PID)
	}
	return fmt.Sprintf("update lock %s is held; if no update is running, remove the file and retry", e.Path)
}

// Acquire takes the named lock, ensuring at most one update run is in
// flight. The returned release func must run on every exit path.
func Acquire(path string) (func(), error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("lock path must not be empty")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, &HeldError{Path: path, PID: readPID(path)}
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	_, writeErr := file.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	closeErr := file.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if writeErr != nil {
			return nil, fmt.Errorf("write lock: %w", writeErr)
		}
		return nil, fmt.Errorf("write lock: %w", closeErr)
	}

	release := func() {
		_ = os.Remove(path)
	}
	return release, nil
}

func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
