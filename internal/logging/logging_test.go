package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_LevelParsing(t *testing.T) {
	if got := New("debug", true).GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := New("warn", false).GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("unexpected level: %v", got)
	}
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	if got := New("noisy", true).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("unexpected level: %v", got)
	}
}
