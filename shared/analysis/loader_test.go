package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"insight-stack/internal/models"
)

// fakeWarehouse serves canned rows and counts fetches so tests can assert
// the loader reads each field at most once and only when needed. The mutex
// matters for coordinator tests, where many jobs load concurrently.
type fakeWarehouse struct {
	mu         sync.Mutex
	video      *models.Video
	transcript string
	revenue    *models.RevenueMetrics
	serp       *models.SerpSnapshot

	noTranscript bool
	noRevenue    bool
	noSerp       bool
	metadataErr  error

	metadataCalls   int
	transcriptCalls int
	revenueCalls    int
	serpCalls       int
}

func (w *fakeWarehouse) FetchVideoMetadata(ctx context.Context, videoID string) (*models.Video, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metadataCalls++
	if w.metadataErr != nil {
		return nil, w.metadataErr
	}
	if w.video == nil {
		return nil, ErrNotFound
	}
	return w.video, nil
}

func (w *fakeWarehouse) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transcriptCalls++
	if w.noTranscript {
		return "", ErrNotFound
	}
	return w.transcript, nil
}

func (w *fakeWarehouse) FetchRevenueMetrics(ctx context.Context, videoID string) (*models.RevenueMetrics, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.revenueCalls++
	if w.noRevenue {
		return nil, ErrNotFound
	}
	return w.revenue, nil
}

func (w *fakeWarehouse) FetchSerpData(ctx context.Context, videoID string) (*models.SerpSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.serpCalls++
	if w.noSerp {
		return nil, ErrNotFound
	}
	return w.serp, nil
}

func fullWarehouse() *fakeWarehouse {
	vc := testContext()
	return &fakeWarehouse{
		video:      vc.Video,
		transcript: *vc.Transcript,
		revenue:    vc.Revenue,
		serp:       vc.Serp,
	}
}

func allKindImpls(t *testing.T) []Kind {
	t.Helper()
	var kinds []Kind
	for _, name := range models.AllKinds() {
		k, ok := KindByName(name)
		if !ok {
			t.Fatalf("kind %q not registered", name)
		}
		kinds = append(kinds, k)
	}
	return kinds
}

func TestLoaderFetchesEachInputOnce(t *testing.T) {
	w := fullWarehouse()
	loader := NewLoader(w)

	vc, err := loader.Load(context.Background(), "abc123", allKindImpls(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if vc.Video == nil || vc.Transcript == nil || vc.Revenue == nil || vc.Serp == nil {
		t.Fatalf("context incomplete: %+v", vc)
	}
	if w.metadataCalls != 1 || w.transcriptCalls != 1 || w.revenueCalls != 1 || w.serpCalls != 1 {
		t.Errorf("fetch counts = %d/%d/%d/%d, want 1 each",
			w.metadataCalls, w.transcriptCalls, w.revenueCalls, w.serpCalls)
	}
}

func TestLoaderSkipsUnusedInputs(t *testing.T) {
	w := fullWarehouse()
	loader := NewLoader(w)

	script, _ := KindByName(models.KindScriptQuality)
	vc, err := loader.Load(context.Background(), "abc123", []Kind{script})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if vc.Transcript == nil {
		t.Error("script analysis needs the transcript")
	}
	if w.revenueCalls != 0 || w.serpCalls != 0 {
		t.Errorf("unneeded inputs fetched: revenue=%d serp=%d", w.revenueCalls, w.serpCalls)
	}
}

func TestLoaderFetchesOptionalEnrichment(t *testing.T) {
	w := fullWarehouse()
	loader := NewLoader(w)

	// The description kind requires only metadata but consumes SERP data
	// when present; the conversion kind reads the transcript the same way.
	description, _ := KindByName(models.KindDescriptionCTR)
	conversion, _ := KindByName(models.KindConversionDrivers)

	vc, err := loader.Load(context.Background(), "abc123", []Kind{description, conversion})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if vc.Serp == nil {
		t.Error("SERP enrichment not loaded for description kind")
	}
	if vc.Transcript == nil {
		t.Error("transcript enrichment not loaded for conversion kind")
	}
}

func TestLoaderToleratesMissingOptionalInputs(t *testing.T) {
	w := fullWarehouse()
	w.noTranscript = true
	w.noRevenue = true
	w.noSerp = true
	loader := NewLoader(w)

	vc, err := loader.Load(context.Background(), "abc123", allKindImpls(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if vc.Transcript != nil || vc.Revenue != nil || vc.Serp != nil {
		t.Errorf("missing inputs should stay nil: %+v", vc)
	}
	if vc.Video == nil {
		t.Error("metadata lost")
	}
}

func TestLoaderFailsWithoutMetadata(t *testing.T) {
	loader := NewLoader(&fakeWarehouse{})

	_, err := loader.Load(context.Background(), "ghost", allKindImpls(t))
	if err == nil {
		t.Fatal("expected error for unregistered video")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want wrapped ErrNotFound", err)
	}
}

func TestLoaderPropagatesWarehouseErrors(t *testing.T) {
	w := fullWarehouse()
	w.metadataErr = errors.New("connection reset")
	loader := NewLoader(w)

	_, err := loader.Load(context.Background(), "abc123", allKindImpls(t))
	if err == nil {
		t.Fatal("expected warehouse error to propagate")
	}
}
