package videoanalyst

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/config"
)

// fakeCoordinator reports a running job for a fixed number of Status polls,
// then flips it to cancelled.
type fakeCoordinator struct {
	mu          sync.Mutex
	statusCalls int
	cancelCalls int
	terminalAt  int
}

func (f *fakeCoordinator) Submit(videoIDs []string, kinds []models.AnalysisKind) (string, error) {
	return "job-1", nil
}

func (f *fakeCoordinator) Status(jobID string) (models.JobSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	summary := models.JobSummary{JobID: jobID, State: models.JobRunning, TotalRequested: 1}
	if f.statusCalls >= f.terminalAt {
		summary.State = models.JobCancelled
		summary.Failed = 1
	}
	return summary, nil
}

func (f *fakeCoordinator) Cancel(jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return nil
}

func TestAgentName(t *testing.T) {
	agent := NewAgent(&config.Config{})
	if agent.Name() != "Video Analyst" {
		t.Errorf("Name() = %q", agent.Name())
	}
}

func TestAnalystMetricsSummary(t *testing.T) {
	m := &AnalystMetrics{
		VideosConsidered: 50,
		VideosSkipped:    30,
		VideosSubmitted:  20,
		Succeeded:        76,
		Failed:           4,
	}

	summary := m.GetSummary()
	for _, want := range []string{"50 videos", "30 skipped", "20 submitted", "76 analyses succeeded", "4 failed"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary %q missing %q", summary, want)
		}
	}
}

func TestAwaitJobPacesPollingAfterCancellation(t *testing.T) {
	fc := &fakeCoordinator{terminalAt: 5}
	agent := &Agent{coordinator: fc, pollInterval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	summary, err := agent.awaitJob(ctx, "job-1")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("awaitJob failed: %v", err)
	}
	if summary.State != models.JobCancelled {
		t.Errorf("state = %q, want %q", summary.State, models.JobCancelled)
	}
	if fc.cancelCalls != 1 {
		t.Errorf("Cancel called %d times, want 1", fc.cancelCalls)
	}
	if fc.statusCalls != fc.terminalAt {
		t.Errorf("Status called %d times, want %d", fc.statusCalls, fc.terminalAt)
	}
	// The first poll cancels without waiting, then three pollInterval waits
	// separate the rest. A loop that never reaches the timer finishes in
	// microseconds.
	if want := 3 * agent.pollInterval; elapsed < want {
		t.Errorf("polled to terminal in %v, want at least %v between polls", elapsed, want)
	}
}

func TestKindsKeyIsOrderInsensitive(t *testing.T) {
	a := kindsKey([]models.AnalysisKind{models.KindScriptQuality, models.KindAffiliate})
	b := kindsKey([]models.AnalysisKind{models.KindAffiliate, models.KindScriptQuality})
	if a != b {
		t.Errorf("kindsKey order-sensitive: %q vs %q", a, b)
	}

	c := kindsKey([]models.AnalysisKind{models.KindScriptQuality})
	if a == c {
		t.Error("different kind sets should not collide")
	}
}
