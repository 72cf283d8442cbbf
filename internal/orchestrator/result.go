package orchestrator

import "time"

// Outcome classifies a finished update run.
type Outcome string

const (
	// OutcomeUpToDate means the deployed version already matched the
	// target; nothing was backed up, rebuilt or restarted.
	OutcomeUpToDate Outcome = "up-to-date"
	// OutcomeUpdated means the new version passed health verification.
	OutcomeUpdated Outcome = "updated"
	// OutcomeRolledBack means the update failed verification and the
	// previous version was restored. A controlled outcome, not a crash.
	OutcomeRolledBack Outcome = "rolled-back"
	// OutcomeDryRun means an update is available but nothing was changed.
	OutcomeDryRun Outcome = "dry-run"
	// OutcomeFailed means the run hit an unrecoverable error.
	OutcomeFailed Outcome = "failed"
)

// Result captures a finished run for history, metrics and notifications.
type Result struct {
	Outcome    Outcome
	From       string
	To         string
	Attempts   int
	BackupDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Duration returns the wall time of the run.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ExitCode maps the outcome to the process exit status. A successful
// rollback is a controlled outcome and exits zero.
func (r Result) ExitCode() int {
	if r.Outcome == OutcomeFailed {
		return 1
	}
	return 0
}
