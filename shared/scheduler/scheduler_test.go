package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"insight-stack/shared/config"
)

type stubMetrics struct{ summary string }

func (m *stubMetrics) GetSummary() string { return m.summary }

// stubAgent reports its run outcome through whichever callback the test
// selects, the way real agents invoke exactly one per run.
type stubAgent struct {
	runErr      error
	partialErr  error
	criticalErr error
}

func (a *stubAgent) Name() string      { return "Stub Agent" }
func (a *stubAgent) Initialize() error { return nil }

func (a *stubAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	if a.runErr != nil {
		return a.runErr
	}
	switch {
	case a.criticalErr != nil:
		events.OnCriticalFailure(a.criticalErr, time.Millisecond)
	case a.partialErr != nil:
		events.OnPartialFailure(a.partialErr, time.Millisecond)
	default:
		events.OnSuccess(&stubMetrics{summary: "2 widgets processed"}, time.Millisecond)
	}
	return nil
}

func TestRunOnceSuccess(t *testing.T) {
	s := New(&config.Config{}, &stubAgent{})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if !s.monitor.IsHealthy() {
		t.Error("monitor unhealthy after successful run")
	}
}

func TestRunOnceSurfacesCriticalCallback(t *testing.T) {
	s := New(&config.Config{}, &stubAgent{criticalErr: errors.New("all analyses failed")})

	err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("RunOnce returned nil for a critically failed run")
	}
	if !strings.Contains(err.Error(), "all analyses failed") {
		t.Errorf("error %q does not carry the failure cause", err)
	}
	if s.monitor.IsHealthy() {
		t.Error("monitor healthy after critical failure")
	}
}

func TestRunOncePartialFailureStillSucceeds(t *testing.T) {
	s := New(&config.Config{}, &stubAgent{partialErr: errors.New("2 of 8 analyses failed")})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if !s.monitor.IsHealthy() {
		t.Error("partial failure should not mark the monitor unhealthy")
	}
}

func TestRunOnceWrapsAgentError(t *testing.T) {
	cause := errors.New("warehouse unreachable")
	s := New(&config.Config{}, &stubAgent{runErr: cause})

	err := s.RunOnce(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("RunOnce error = %v, want wrap of %v", err, cause)
	}
	if s.monitor.IsHealthy() {
		t.Error("monitor healthy after failed run")
	}
}
