package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFileStore_Load_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"), zerolog.Nop())

	log, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log.Records) != 0 {
		t.Fatalf("expected empty log, got %d records", len(log.Records))
	}
}

func TestFileStore_AppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, zerolog.Nop())

	first := Record{
		StartedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		From:      "lts",
		To:        "2.516.2",
		Outcome:   "updated",
		Attempts:  3,
	}
	if err := store.Append(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := Record{
		StartedAt: time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
		From:      "2.516.2",
		To:        "2.516.2",
		Outcome:   "up-to-date",
	}
	if err := store.Append(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(log.Records))
	}
	if log.Records[0].To != "2.516.2" || log.Records[0].Outcome != "updated" {
		t.Fatalf("unexpected first record: %+v", log.Records[0])
	}
	if log.Records[1].Outcome != "up-to-date" {
		t.Fatalf("unexpected second record: %+v", log.Records[1])
	}
}

func TestFileStore_Load_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := NewFileStore(path, zerolog.Nop())
	log, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt file should start fresh, got %v", err)
	}
	if len(log.Records) != 0 {
		t.Fatalf("expected empty log, got %d records", len(log.Records))
	}

	// Appending over a corrupt file must still work.
	if err := store.Append(context.Background(), Record{Outcome: "updated"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileStore_Append_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	store := NewFileStore(path, zerolog.Nop())

	if err := store.Append(context.Background(), Record{Outcome: "updated"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("history file not created: %v", err)
	}
}
