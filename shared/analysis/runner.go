package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"insight-stack/internal/models"

	"google.golang.org/genai"
)

// AIService is the outbound language-model call. Complete returns the raw
// structured payload matching the supplied response schema, or a
// ProviderError classified as transient or fatal.
type AIService interface {
	Complete(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error)
}

// ResultStore is the append-only write side of the warehouse. Each kind
// lands in its fixed table; re-running an analysis appends a new row rather
// than overwriting, so "latest" is whoever sorts first by timestamp.
type ResultStore interface {
	AppendAnalysisResult(ctx context.Context, res models.Result) error
}

// Runner orchestrates one video across one or more analysis kinds. Kinds are
// independent: each yields exactly one outcome, and one kind's failure never
// cancels or blocks its siblings. The runner itself never retries; the
// retryable flag on a failed outcome is advice for the caller.
type Runner struct {
	loader *Loader
	ai     AIService
	store  ResultStore
	gate   *Gate
	pacer  *Pacer
}

func NewRunner(loader *Loader, ai AIService, store ResultStore, gate *Gate, pacer *Pacer) *Runner {
	return &Runner{loader: loader, ai: ai, store: store, gate: gate, pacer: pacer}
}

// Run builds the video context once and dispatches every requested kind
// through the shared gate and pacer. It always returns len(kinds) outcomes,
// in the closed set's reporting order.
func (r *Runner) Run(ctx context.Context, videoID string, kindNames []models.AnalysisKind) []models.Outcome {
	kinds := make([]Kind, 0, len(kindNames))
	var outcomes []models.Outcome

	for _, name := range seen(kindNames) {
		k, ok := KindByName(name)
		if !ok {
			outcomes = append(outcomes, models.Outcome{
				VideoID:   videoID,
				Kind:      name,
				Reason:    fmt.Sprintf("unknown analysis kind %q", name),
				Retryable: false,
				Err:       fmt.Errorf("unknown analysis kind %q", name),
			})
			continue
		}
		kinds = append(kinds, k)
	}

	if len(kinds) == 0 {
		return outcomes
	}

	vc, err := r.loader.Load(ctx, videoID, kinds)
	if err != nil {
		log.Printf("Context load failed for video %s: %v", videoID, err)
		for _, k := range kinds {
			outcomes = append(outcomes, failure(videoID, k.Name(), err))
		}
		return sortOutcomes(outcomes)
	}

	results := make(chan models.Outcome, len(kinds))
	for _, k := range kinds {
		go func(k Kind) {
			results <- r.runKind(ctx, k, vc)
		}(k)
	}
	for range kinds {
		outcomes = append(outcomes, <-results)
	}

	return sortOutcomes(outcomes)
}

// runKind executes a single (video, kind) unit: admission, pacing, the AI
// call, validation, persistence. Cancellation is honored only at the
// admission boundary; once admitted the unit runs to completion on a
// detached context so an in-flight provider call is never torn down into an
// inconsistent partial write.
func (r *Runner) runKind(ctx context.Context, k Kind, vc *models.VideoContext) models.Outcome {
	videoID := vc.Video.VideoID

	if in := firstMissingInput(k, vc); in != "" {
		return failure(videoID, k.Name(), &MissingInputError{VideoID: videoID, Kind: k.Name(), Input: in})
	}

	if err := r.gate.Admit(ctx); err != nil {
		cause := context.Cause(ctx)
		if cause == nil {
			cause = err
		}
		return failure(videoID, k.Name(), cause)
	}
	defer r.gate.Release()

	detached := context.WithoutCancel(ctx)

	if err := r.pacer.Acquire(detached); err != nil {
		return failure(videoID, k.Name(), err)
	}

	raw, err := r.ai.Complete(detached, k.BuildPrompt(vc), k.ResponseSchema())
	if err != nil {
		log.Printf("AI call failed for %s analysis of video %s: %v", k.Name(), videoID, err)
		return failure(videoID, k.Name(), err)
	}
	completedAt := time.Now()

	res, err := k.ParseResponse(raw, vc, completedAt)
	if err != nil {
		log.Printf("Rejected %s response for video %s: %v", k.Name(), videoID, err)
		return failure(videoID, k.Name(), err)
	}

	if err := r.store.AppendAnalysisResult(detached, res); err != nil {
		return failure(videoID, k.Name(), fmt.Errorf("failed to persist %s analysis for %s: %w", k.Name(), videoID, err))
	}

	return models.Outcome{VideoID: videoID, Kind: k.Name(), Result: res}
}

func failure(videoID string, kind models.AnalysisKind, err error) models.Outcome {
	return models.Outcome{
		VideoID:   videoID,
		Kind:      kind,
		Err:       err,
		Reason:    err.Error(),
		Retryable: IsRetryable(err),
	}
}

// seen deduplicates the requested kinds while preserving first-seen order.
func seen(names []models.AnalysisKind) []models.AnalysisKind {
	var out []models.AnalysisKind
	have := make(map[models.AnalysisKind]bool, len(names))
	for _, n := range names {
		if !have[n] {
			have[n] = true
			out = append(out, n)
		}
	}
	return out
}

// sortOutcomes orders outcomes by the closed set's reporting order so batch
// summaries are deterministic even though completion order is not.
func sortOutcomes(outcomes []models.Outcome) []models.Outcome {
	order := make(map[models.AnalysisKind]int, len(models.AllKinds()))
	for i, k := range models.AllKinds() {
		order[k] = i
	}
	for i := 1; i < len(outcomes); i++ {
		for j := i; j > 0 && order[outcomes[j].Kind] < order[outcomes[j-1].Kind]; j-- {
			outcomes[j], outcomes[j-1] = outcomes[j-1], outcomes[j]
		}
	}
	return outcomes
}
