package stack

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRunner_Build_Args(t *testing.T) {
	var captured []string
	runner, err := NewRunner("docker-compose.yml", zerolog.Nop(), WithExec(func(_ context.Context, args []string) (string, error) {
		captured = args
		return "", nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := runner.Build(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "compose -f docker-compose.yml build"
	if got := strings.Join(captured, " "); got != want {
		t.Fatalf("unexpected args: %q, want %q", got, want)
	}
}

func TestRunner_Restart_DownThenUp(t *testing.T) {
	var verbs []string
	runner, err := NewRunner("docker-compose.yml", zerolog.Nop(), WithExec(func(_ context.Context, args []string) (string, error) {
		verbs = append(verbs, strings.Join(args[3:], " "))
		return "", nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := runner.Restart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verbs) != 2 || verbs[0] != "down" || verbs[1] != "up -d" {
		t.Fatalf("unexpected command order: %v", verbs)
	}
}

func TestRunner_Restart_StopsOnDownFailure(t *testing.T) {
	calls := 0
	runner, err := NewRunner("docker-compose.yml", zerolog.Nop(), WithExec(func(_ context.Context, _ []string) (string, error) {
		calls++
		return "", &CommandError{ExitCode: 1, Stderr: "daemon unreachable"}
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = runner.Restart(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected restart to stop after failed down, got %d calls", calls)
	}
}

func TestRunner_CommandError_FillsOp(t *testing.T) {
	runner, err := NewRunner("docker-compose.yml", zerolog.Nop(), WithExec(func(_ context.Context, _ []string) (string, error) {
		return "", &CommandError{ExitCode: 17, Stderr: "no such service"}
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = runner.Up(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "compose up: exit 17: no such service") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestNewRunner_RequiresComposeFile(t *testing.T) {
	if _, err := NewRunner("  ", zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty compose file")
	}
}
