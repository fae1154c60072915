package videoanalyst

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"insight-stack/agents/video-analyst/youtube"
	"insight-stack/internal/models"
	"insight-stack/shared/ai"
	"insight-stack/shared/analysis"
	"insight-stack/shared/config"
	"insight-stack/shared/email"
	"insight-stack/shared/scheduler"
	"insight-stack/shared/storage"
	"insight-stack/shared/warehouse"
)

// sweepLimit bounds how many registered videos a single sweep considers.
const sweepLimit = 50

// statusPollInterval is how often the sweep polls a submitted job.
const statusPollInterval = 2 * time.Second

// jobCoordinator is the batch coordinator surface the sweep uses.
type jobCoordinator interface {
	Submit(videoIDs []string, kinds []models.AnalysisKind) (string, error)
	Status(jobID string) (models.JobSummary, error)
	Cancel(jobID string) error
}

// Agent implements the scheduler.Agent interface. Each sweep pulls recent
// videos from the warehouse, backfills missing descriptions from YouTube,
// and submits the outstanding analysis kinds as a batch job.
type Agent struct {
	config        *config.Config
	warehouse     *warehouse.Client
	youtubeClient *youtube.Client
	runner        *analysis.Runner
	coordinator   jobCoordinator
	emailSender   *email.Sender
	tracker       *storage.AnalysisTracker
	pollInterval  time.Duration
}

// AnalystMetrics summarizes one sweep for the monitor.
type AnalystMetrics struct {
	VideosConsidered int
	VideosSkipped    int
	VideosSubmitted  int
	Succeeded        int
	Failed           int
}

func (m *AnalystMetrics) GetSummary() string {
	return fmt.Sprintf("%d videos considered, %d skipped, %d submitted, %d analyses succeeded, %d failed",
		m.VideosConsidered, m.VideosSkipped, m.VideosSubmitted, m.Succeeded, m.Failed)
}

func NewAgent(cfg *config.Config) *Agent {
	return &Agent{
		config:       cfg,
		pollInterval: statusPollInterval,
	}
}

func (a *Agent) Name() string {
	return "Video Analyst"
}

func (a *Agent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())
	ctx := context.Background()

	if a.warehouse == nil {
		client, err := warehouse.NewClient(ctx, &a.config.Warehouse, a.config.Analysis.SerpWindowDays)
		if err != nil {
			return fmt.Errorf("failed to create warehouse client: %w", err)
		}
		a.warehouse = client
		log.Println("Warehouse client initialized")
	}

	if a.runner == nil {
		aiClient, err := ai.NewClient(&a.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}

		loader := analysis.NewLoader(a.warehouse)
		gate := analysis.NewGate(a.config.Analysis.MaxConcurrent)
		pacer := analysis.NewPacer(time.Duration(a.config.Analysis.RateLimitSeconds) * time.Second)
		a.runner = analysis.NewRunner(loader, aiClient, a.warehouse, gate, pacer)
		log.Printf("Analysis runner initialized (max %d concurrent, %ds between AI calls)",
			a.config.Analysis.MaxConcurrent, a.config.Analysis.RateLimitSeconds)
	}

	if a.coordinator == nil {
		a.coordinator = analysis.NewCoordinator(a.runner)
	}

	// YouTube access is optional, the sweep still runs without description
	// backfill when no OAuth client is configured.
	if a.youtubeClient == nil && a.config.YouTube.ClientID != "" {
		client, err := youtube.NewClient(&a.config.YouTube)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		a.youtubeClient = client
		log.Println("YouTube client initialized")
	}

	if a.emailSender == nil {
		a.emailSender = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	if a.tracker == nil {
		tracker, err := storage.NewAnalysisTracker("data", a.config.Analysis.TrackingDays)
		if err != nil {
			return fmt.Errorf("failed to create analysis tracker: %w", err)
		}
		a.tracker = tracker
		log.Printf("Analysis tracker initialized (%d videos tracked)", tracker.TrackedCount())
	}

	return nil
}

// AnalyzeVideo runs the requested kinds for a single video synchronously.
func (a *Agent) AnalyzeVideo(ctx context.Context, videoID string, kinds []models.AnalysisKind) []models.Outcome {
	return a.runner.Run(ctx, videoID, kinds)
}

func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := &AnalystMetrics{}

	log.Println("Listing recent videos from warehouse...")
	videos, err := a.warehouse.ListRecentVideos(ctx, sweepLimit)
	if err != nil {
		return fmt.Errorf("failed to list recent videos: %w", err)
	}
	metrics.VideosConsidered = len(videos)

	if len(videos) == 0 {
		log.Println("No registered videos found")
		a.reportOutcome(events, metrics, time.Since(startTime))
		return nil
	}

	a.backfillDescriptions(ctx, videos)

	// Group videos by the kinds they still need so one job per group can
	// carry them all.
	groups := make(map[string][]string)
	groupKinds := make(map[string][]models.AnalysisKind)
	for _, video := range videos {
		pending := a.tracker.PendingKinds(video.VideoID)
		if len(pending) == 0 {
			metrics.VideosSkipped++
			continue
		}
		key := kindsKey(pending)
		groups[key] = append(groups[key], video.VideoID)
		groupKinds[key] = pending
	}

	log.Printf("Found %d videos (%d needing analysis, %d already analyzed)",
		len(videos), len(videos)-metrics.VideosSkipped, metrics.VideosSkipped)

	if len(groups) == 0 {
		log.Println("Nothing to analyze")
		a.reportOutcome(events, metrics, time.Since(startTime))
		return nil
	}

	var jobIDs []string
	for key, videoIDs := range groups {
		jobID, err := a.coordinator.Submit(videoIDs, groupKinds[key])
		if err != nil {
			return fmt.Errorf("failed to submit analysis job: %w", err)
		}
		metrics.VideosSubmitted += len(videoIDs)
		jobIDs = append(jobIDs, jobID)
	}

	for _, jobID := range jobIDs {
		summary, err := a.awaitJob(ctx, jobID)
		if err != nil {
			return err
		}

		metrics.Succeeded += summary.Succeeded
		metrics.Failed += summary.Failed
		a.markCompleted(summary)

		if err := a.emailSender.SendJobReport(summary); err != nil {
			log.Printf("Warning: Failed to send job report: %v", err)
		}
	}

	a.reportOutcome(events, metrics, time.Since(startTime))
	log.Printf("Sweep complete: %s", metrics.GetSummary())
	return nil
}

// backfillDescriptions fills empty descriptions from the YouTube API so the
// description CTR analysis has something to work with. Failures here only
// degrade the analysis input, they never fail the sweep.
func (a *Agent) backfillDescriptions(ctx context.Context, videos []*models.Video) {
	if a.youtubeClient == nil {
		return
	}

	var missing []string
	for _, video := range videos {
		if video.Description == "" {
			missing = append(missing, video.VideoID)
		}
	}
	if len(missing) == 0 {
		return
	}

	log.Printf("Backfilling descriptions for %d videos...", len(missing))
	details, err := a.youtubeClient.FetchVideoDetails(ctx, missing)
	if err != nil {
		log.Printf("Warning: Description backfill lookup failed: %v", err)
		return
	}

	for _, video := range videos {
		d, ok := details[video.VideoID]
		if !ok || d.Description == "" {
			continue
		}
		if err := a.warehouse.BackfillDescription(ctx, video.VideoID, d.Description); err != nil {
			log.Printf("Warning: Failed to backfill description for %s: %v", video.VideoID, err)
			continue
		}
		video.Description = d.Description
	}
}

// awaitJob polls the coordinator until the job reaches a terminal state.
// On context cancellation the job is cancelled too, then polled to its
// terminal state so in-flight outcomes still land in the summary.
func (a *Agent) awaitJob(ctx context.Context, jobID string) (*models.JobSummary, error) {
	cancelled := false
	for {
		summary, err := a.coordinator.Status(jobID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll job %s: %w", jobID, err)
		}
		if summary.State.Terminal() {
			return &summary, nil
		}

		if cancelled {
			// ctx is already done here; selecting on it again would never
			// yield to the timer and the loop would spin on Status.
			time.Sleep(a.pollInterval)
			continue
		}

		select {
		case <-ctx.Done():
			cancelled = true
			if err := a.coordinator.Cancel(jobID); err != nil {
				return nil, err
			}
		case <-time.After(a.pollInterval):
		}
	}
}

// markCompleted records per-video which kinds succeeded, so the next sweep
// retries only what failed.
func (a *Agent) markCompleted(summary *models.JobSummary) {
	for videoID, outcomes := range summary.PerVideo {
		var done []models.AnalysisKind
		for _, o := range outcomes {
			if o.Succeeded() {
				done = append(done, o.Kind)
			}
		}
		if len(done) == 0 {
			continue
		}
		if err := a.tracker.MarkAnalyzed(videoID, done); err != nil {
			log.Printf("Warning: Failed to mark %s analyzed: %v", videoID, err)
		}
	}
}

func (a *Agent) reportOutcome(events *scheduler.AgentEvents, metrics *AnalystMetrics, duration time.Duration) {
	if events == nil {
		return
	}
	switch {
	case metrics.Failed == 0:
		if events.OnSuccess != nil {
			events.OnSuccess(metrics, duration)
		}
	case metrics.Succeeded > 0:
		if events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("%d of %d analyses failed", metrics.Failed, metrics.Succeeded+metrics.Failed), duration)
		}
	default:
		if events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("all %d analyses failed", metrics.Failed), duration)
		}
	}
}

// kindsKey builds a stable map key for a set of kinds.
func kindsKey(kinds []models.AnalysisKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
