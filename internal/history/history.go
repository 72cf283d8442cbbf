package history

import (
	"context"
	"time"
)

// Record captures one completed update run.
type Record struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Profile    string    `json:"profile,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Outcome    string    `json:"outcome"`
	Attempts   int       `json:"attempts,omitempty"`
	BackupDir  string    `json:"backup_dir,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Log stores the run records, newest last.
type Log struct {
	Records []Record `json:"records"`
}

// Store defines the interface for persisting run history.
type Store interface {
	Load(ctx context.Context) (Log, error)
	Append(ctx context.Context, record Record) error
}
