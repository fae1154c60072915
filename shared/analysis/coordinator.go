package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"insight-stack/internal/models"

	"github.com/google/uuid"
)

// Coordinator drives the runner across many videos as asynchronous batch
// jobs. All jobs share the single process-wide gate and pacer owned by the
// runner, so a large batch cannot starve single-video requests of their own
// budget.
type Coordinator struct {
	runner *Runner

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	summary  models.JobSummary
	videoIDs []string
	kinds    []models.AnalysisKind

	ctx    context.Context
	cancel context.CancelCauseFunc

	// halted is set when a fatal provider error stops further admission.
	// In-flight work still completes; only the halt cause changes.
	halted    bool
	cancelled bool
}

func NewCoordinator(runner *Runner) *Coordinator {
	return &Coordinator{runner: runner, jobs: make(map[string]*job)}
}

// Submit registers a batch job and returns its ID immediately; the work
// proceeds in the background. Every requested (video, kind) pair will
// eventually be recorded as exactly one outcome.
func (c *Coordinator) Submit(videoIDs []string, kinds []models.AnalysisKind) (string, error) {
	if len(videoIDs) == 0 {
		return "", fmt.Errorf("no video IDs submitted")
	}
	if len(kinds) == 0 {
		return "", fmt.Errorf("no analysis kinds requested")
	}

	// A kind requested twice still yields one outcome, so the requested
	// total is counted over the deduplicated set.
	kinds = seen(kinds)

	ctx, cancel := context.WithCancelCause(context.Background())
	j := &job{
		summary: models.JobSummary{
			JobID:          uuid.New().String(),
			State:          models.JobPending,
			SubmittedAt:    time.Now(),
			TotalRequested: len(videoIDs) * len(kinds),
			PerVideo:       make(map[string][]models.Outcome, len(videoIDs)),
		},
		videoIDs: append([]string(nil), videoIDs...),
		kinds:    kinds,
		ctx:      ctx,
		cancel:   cancel,
	}

	c.mu.Lock()
	c.jobs[j.summary.JobID] = j
	c.mu.Unlock()

	log.Printf("Job %s submitted: %d videos x %d kinds", j.summary.JobID, len(videoIDs), len(kinds))
	go c.run(j)
	return j.summary.JobID, nil
}

// Status returns a point-in-time snapshot of the job. It is a pure read:
// polling any number of times mutates nothing.
func (c *Coordinator) Status(jobID string) (models.JobSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[jobID]
	if !ok {
		return models.JobSummary{}, fmt.Errorf("unknown job: %s", jobID)
	}
	return snapshot(&j.summary), nil
}

// Cancel stops admitting new (video, kind) work for the job. Work already
// admitted through the gate runs to completion and its outcomes still land
// in the summary; work never started is recorded as a retryable failure.
func (c *Coordinator) Cancel(jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job: %s", jobID)
	}
	if j.summary.State.Terminal() {
		return nil
	}
	j.cancelled = true
	j.cancel(ErrJobCancelled)
	log.Printf("Job %s cancelled", jobID)
	return nil
}

func (c *Coordinator) run(j *job) {
	c.mu.Lock()
	j.summary.State = models.JobRunning
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, videoID := range j.videoIDs {
		wg.Add(1)
		go func(videoID string) {
			defer wg.Done()
			outcomes := c.runner.Run(j.ctx, videoID, j.kinds)
			c.record(j, videoID, outcomes)
		}(videoID)
	}
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	j.summary.CompletedAt = time.Now()
	switch {
	case j.cancelled:
		j.summary.State = models.JobCancelled
	case j.summary.Failed > 0:
		j.summary.State = models.JobCompletedWithFailures
	default:
		j.summary.State = models.JobCompleted
	}
	log.Printf("Job %s finished: %s (%d succeeded, %d failed of %d)",
		j.summary.JobID, j.summary.State, j.summary.Succeeded, j.summary.Failed, j.summary.TotalRequested)
}

// record folds one video's outcomes into the job summary. A fatal provider
// error escalates here: the job context is cancelled with that cause, so
// pairs still waiting at the admission boundary fail with the fatal reason
// while admitted work finishes undisturbed.
func (c *Coordinator) record(j *job, videoID string, outcomes []models.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j.summary.PerVideo[videoID] = outcomes
	for _, o := range outcomes {
		if o.Succeeded() {
			j.summary.Succeeded++
			continue
		}
		j.summary.Failed++
		if !j.halted && !j.cancelled && IsFatal(o.Err) {
			j.halted = true
			j.cancel(o.Err)
			log.Printf("Job %s halting new admissions after fatal provider error: %v", j.summary.JobID, o.Err)
		}
	}
}

// snapshot deep-copies the summary so callers can hold it across further
// job progress.
func snapshot(s *models.JobSummary) models.JobSummary {
	out := *s
	out.PerVideo = make(map[string][]models.Outcome, len(s.PerVideo))
	for id, outcomes := range s.PerVideo {
		out.PerVideo[id] = append([]models.Outcome(nil), outcomes...)
	}
	return out
}
