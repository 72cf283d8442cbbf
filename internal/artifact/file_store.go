package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	fromPrefix     = "FROM "
	rollbackSuffix = ".rollback"
)

// FileStore pins versions inside a Dockerfile-style artifact whose first
// line matching "FROM <image>:<version-or-alias>" is the single source of
// truth for the deployed version.
type FileStore struct {
	path string
}

// NewFileStore returns a Store over the artifact at path.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("artifact path must not be empty")
	}
	return &FileStore{path: path}, nil
}

// Path implements Store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) rollbackPath() string {
	return s.path + rollbackSuffix
}

// Current implements Store.
func (s *FileStore) Current() (string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	_, _, tag, err := findImageLine(string(content))
	if err != nil {
		return "", err
	}
	return tag, nil
}

// Pin implements Store. The sibling rollback copy is written before the
// live artifact is touched, and the rewrite itself is atomic.
func (s *FileStore) Pin(version string) error {
	if strings.TrimSpace(version) == "" {
		return errors.New("version must not be empty")
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}

	updated, err := replaceImageTag(string(content), version)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.rollbackPath(), content); err != nil {
		return fmt.Errorf("write rollback artifact: %w", err)
	}
	if err := writeFileAtomic(s.path, []byte(updated)); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// RestorePrevious implements Store.
func (s *FileStore) RestorePrevious() error {
	if _, err := os.Stat(s.rollbackPath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no rollback artifact at %s", s.rollbackPath())
		}
		return err
	}
	if err := os.Rename(s.rollbackPath(), s.path); err != nil {
		return fmt.Errorf("restore artifact: %w", err)
	}
	return nil
}

// DiscardPrevious implements Store.
func (s *FileStore) DiscardPrevious() error {
	err := os.Remove(s.rollbackPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard rollback artifact: %w", err)
	}
	return nil
}

// PreviousExists implements Store.
func (s *FileStore) PreviousExists() (bool, error) {
	_, err := os.Stat(s.rollbackPath())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// findImageLine locates the first FROM line and splits its image reference.
// Returns the line index, the image name and the tag.
func findImageLine(content string) (int, string, string, error) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, fromPrefix) {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return 0, "", "", fmt.Errorf("artifact line %d: malformed image reference", i+1)
		}
		ref := fields[1]
		image, tag, err := splitRef(ref)
		if err != nil {
			return 0, "", "", fmt.Errorf("artifact line %d: %w", i+1, err)
		}
		return i, image, tag, nil
	}
	return 0, "", "", errors.New("artifact has no image reference line")
}

// splitRef splits "registry/image:tag" on the tag separator, tolerating
// registries with ports.
func splitRef(ref string) (string, string, error) {
	idx := strings.LastIndex(ref, ":")
	if idx <= 0 || idx < strings.LastIndex(ref, "/") {
		return "", "", fmt.Errorf("image reference %q has no version", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

// replaceImageTag rewrites the tag of the first FROM line, preserving the
// rest of the line (stage names and trailing comments included).
func replaceImageTag(content, version string) (string, error) {
	lineIdx, image, _, err := findImageLine(content)
	if err != nil {
		return "", err
	}

	lines := strings.Split(content, "\n")
	line := lines[lineIdx]
	fields := strings.Fields(strings.TrimSpace(line))
	fields[1] = image + ":" + version

	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	lines[lineIdx] = indent + strings.Join(fields, " ")
	return strings.Join(lines, "\n"), nil
}

func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}

	cleanup := func() {
		_ = os.Remove(tempFile.Name())
	}

	if _, err := tempFile.Write(content); err != nil {
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
	if err := os.Chmod(tempFile.Name(), 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tempFile.Name(), path); err != nil {
		cleanup()
		return err
	}
	return nil
}
