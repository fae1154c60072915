package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"

	"insight-stack/internal/models"
)

// Warehouse is the read side of the analytics warehouse. Each fetch returns
// ErrNotFound when no row exists for the video; readers are safe for
// concurrent use and the loader never writes.
type Warehouse interface {
	FetchVideoMetadata(ctx context.Context, videoID string) (*models.Video, error)
	FetchTranscript(ctx context.Context, videoID string) (string, error)
	FetchRevenueMetrics(ctx context.Context, videoID string) (*models.RevenueMetrics, error)
	FetchSerpData(ctx context.Context, videoID string) (*models.SerpSnapshot, error)
}

// Loader builds the immutable VideoContext one analysis request works from.
// Metadata is fetched unconditionally; transcript, revenue metrics and SERP
// data are fetched only when some requested kind declares the input, so one
// request never reads the warehouse twice for the same field.
type Loader struct {
	warehouse Warehouse
}

func NewLoader(w Warehouse) *Loader {
	return &Loader{warehouse: w}
}

// Load gathers the inputs the requested kinds need. A missing optional input
// leaves its field nil; only a missing registration row (or a warehouse
// error) fails the whole load, since nothing can run without metadata.
func (l *Loader) Load(ctx context.Context, videoID string, kinds []Kind) (*models.VideoContext, error) {
	video, err := l.warehouse.FetchVideoMetadata(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("video not found: %s: %w", videoID, err)
		}
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", videoID, err)
	}

	vc := &models.VideoContext{Video: video}

	if anyKindUses(kinds, InputTranscript) || anyKindAccepts(kinds, InputTranscript) {
		transcript, err := l.warehouse.FetchTranscript(ctx, videoID)
		switch {
		case err == nil:
			vc.Transcript = &transcript
		case errors.Is(err, ErrNotFound):
			log.Printf("No transcript found for video %s", videoID)
		default:
			return nil, fmt.Errorf("failed to fetch transcript for %s: %w", videoID, err)
		}
	}

	if anyKindUses(kinds, InputRevenueMetrics) {
		revenue, err := l.warehouse.FetchRevenueMetrics(ctx, videoID)
		switch {
		case err == nil:
			vc.Revenue = revenue
		case errors.Is(err, ErrNotFound):
			log.Printf("No revenue metrics found for video %s", videoID)
		default:
			return nil, fmt.Errorf("failed to fetch revenue metrics for %s: %w", videoID, err)
		}
	}

	if anyKindAccepts(kinds, InputSerpData) {
		serp, err := l.warehouse.FetchSerpData(ctx, videoID)
		switch {
		case err == nil:
			vc.Serp = serp
		case errors.Is(err, ErrNotFound):
			log.Printf("No SERP data found for video %s", videoID)
		default:
			return nil, fmt.Errorf("failed to fetch SERP data for %s: %w", videoID, err)
		}
	}

	return vc, nil
}

// anyKindUses reports whether any requested kind requires the input.
func anyKindUses(kinds []Kind, in Input) bool {
	for _, k := range kinds {
		for _, req := range k.RequiredInputs() {
			if req == in {
				return true
			}
		}
	}
	return false
}

// anyKindAccepts reports whether any requested kind consumes the input as
// optional enrichment. The description kind folds SERP data into its prompt
// and stored row, and the conversion kind reads the transcript when present,
// without requiring either.
func anyKindAccepts(kinds []Kind, in Input) bool {
	for _, k := range kinds {
		switch k.Name() {
		case models.KindDescriptionCTR:
			if in == InputSerpData {
				return true
			}
		case models.KindConversionDrivers:
			if in == InputTranscript {
				return true
			}
		}
	}
	return false
}
