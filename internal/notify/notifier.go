package notify

import (
	"context"
	"time"
)

// Report summarizes a completed update run for operators.
type Report struct {
	Profile   string
	Outcome   string
	From      string
	To        string
	Attempts  int
	Duration  time.Duration
	BackupDir string
	Err       error
}

// ErrorText returns the report error as a string, empty when the run had
// no error.
func (r Report) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Notifier delivers update reports to external systems.
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}
