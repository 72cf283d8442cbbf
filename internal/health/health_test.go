package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeProber struct {
	failures int
	calls    int
}

func (p *fakeProber) Probe(_ context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("not ready")
	}
	return nil
}

func TestWait_PassesOnLaterAttempt(t *testing.T) {
	prober := &fakeProber{failures: 2}
	policy := Policy{MaxAttempts: 5, Interval: time.Millisecond}

	attempt, err := Wait(context.Background(), zerolog.Nop(), prober, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt != 3 {
		t.Fatalf("expected pass on attempt 3, got %d", attempt)
	}
}

func TestWait_FailsAfterBudget(t *testing.T) {
	prober := &fakeProber{failures: 100}
	policy := Policy{MaxAttempts: 4, Interval: time.Millisecond}

	attempt, err := Wait(context.Background(), zerolog.Nop(), prober, policy)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T", err)
	}
	if timeoutErr.Attempts != 4 {
		t.Fatalf("unexpected attempts in error: %d", timeoutErr.Attempts)
	}
	if attempt != 4 {
		t.Fatalf("expected exactly 4 probes, got %d", attempt)
	}
	if prober.calls != 4 {
		t.Fatalf("expected exactly 4 probe calls, got %d", prober.calls)
	}
}

func TestWait_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := &fakeProber{failures: 100}
	policy := Policy{MaxAttempts: 12, Interval: 10 * time.Second}

	_, err := Wait(ctx, zerolog.Nop(), prober, policy)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWait_Validation(t *testing.T) {
	if _, err := Wait(context.Background(), zerolog.Nop(), nil, DefaultPolicy); err == nil {
		t.Fatal("expected error for nil prober")
	}
	if _, err := Wait(context.Background(), zerolog.Nop(), &fakeProber{}, Policy{MaxAttempts: 0, Interval: time.Second}); err == nil {
		t.Fatal("expected error for zero attempts")
	}
	if _, err := Wait(context.Background(), zerolog.Nop(), &fakeProber{}, Policy{MaxAttempts: 1}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestHTTPProber_Probe(t *testing.T) {
	var status int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	prober, err := NewHTTPProber(server.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status = http.StatusOK
	if err := prober.Probe(context.Background()); err != nil {
		t.Fatalf("200 should be healthy: %v", err)
	}

	status = http.StatusForbidden
	if err := prober.Probe(context.Background()); err == nil {
		t.Fatal("403 should be unhealthy")
	}

	status = http.StatusServiceUnavailable
	if err := prober.Probe(context.Background()); err == nil {
		t.Fatal("503 should be unhealthy")
	}
}

func TestHTTPProber_FollowsRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer server.Close()

	prober, err := NewHTTPProber(server.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := prober.Probe(context.Background()); err != nil {
		t.Fatalf("redirect to 200 should be healthy: %v", err)
	}
}

func TestHTTPProber_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	prober, err := NewHTTPProber(server.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := prober.Probe(context.Background()); err == nil {
		t.Fatal("connection error should be unhealthy")
	}
}

func TestFetchInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"2.516.2"}`))
	}))
	defer server.Close()

	info, err := FetchInfo(context.Background(), server.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Version != "2.516.2" {
		t.Fatalf("unexpected version: %q", info.Version)
	}
}

func TestFetchInfo_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := FetchInfo(context.Background(), server.URL, time.Second); err == nil {
		t.Fatal("expected error for 502")
	}
}
