package artifact

// Store is the narrow interface over the deployment's version reference.
// The orchestrator never touches raw file paths; a future implementation
// can add advisory locking behind the same surface.
type Store interface {
	// Current returns the version or alias currently pinned in the artifact.
	Current() (string, error)
	// Pin rewrites the version reference in place, keeping a sibling copy
	// of the previous artifact for single-step rollback.
	Pin(version string) error
	// RestorePrevious moves the sibling rollback copy back over the live
	// artifact. It fails if no sibling exists.
	RestorePrevious() error
	// DiscardPrevious removes the sibling rollback copy. Removing a
	// missing sibling is not an error.
	DiscardPrevious() error
	// PreviousExists reports whether a sibling rollback copy is present.
	PreviousExists() (bool, error)
	// Path returns the artifact location, for backups and operator output.
	Path() string
}
