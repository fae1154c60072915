package storage

import (
	"testing"
	"time"

	"insight-stack/internal/models"
)

func TestTrackerLifecycle(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewAnalysisTracker(dir, 7)
	if err != nil {
		t.Fatalf("NewAnalysisTracker failed: %v", err)
	}

	if tracker.IsAnalyzed("vid1") {
		t.Error("unseen video reported as analyzed")
	}
	if got := tracker.PendingKinds("vid1"); len(got) != len(models.AllKinds()) {
		t.Errorf("unseen video has %d pending kinds, want %d", len(got), len(models.AllKinds()))
	}

	// Partial completion: only the recorded kinds drop out of pending.
	err = tracker.MarkAnalyzed("vid1", []models.AnalysisKind{models.KindScriptQuality, models.KindDescriptionCTR})
	if err != nil {
		t.Fatalf("MarkAnalyzed failed: %v", err)
	}
	if tracker.IsAnalyzed("vid1") {
		t.Error("partially analyzed video reported as fully analyzed")
	}
	pending := tracker.PendingKinds("vid1")
	if len(pending) != 2 {
		t.Fatalf("pending kinds = %v, want 2 entries", pending)
	}
	for _, k := range pending {
		if k == models.KindScriptQuality || k == models.KindDescriptionCTR {
			t.Errorf("completed kind %q still pending", k)
		}
	}

	// Completing the rest merges with the earlier record.
	err = tracker.MarkAnalyzed("vid1", []models.AnalysisKind{models.KindAffiliate, models.KindConversionDrivers})
	if err != nil {
		t.Fatalf("MarkAnalyzed failed: %v", err)
	}
	if !tracker.IsAnalyzed("vid1") {
		t.Error("fully analyzed video not reported as analyzed")
	}
	if got := tracker.PendingKinds("vid1"); len(got) != 0 {
		t.Errorf("pending kinds = %v, want none", got)
	}
	if tracker.TrackedCount() != 1 {
		t.Errorf("tracked count = %d, want 1", tracker.TrackedCount())
	}
}

func TestTrackerPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewAnalysisTracker(dir, 7)
	if err != nil {
		t.Fatalf("NewAnalysisTracker failed: %v", err)
	}
	if err := tracker.MarkAnalyzed("vid1", models.AllKinds()); err != nil {
		t.Fatalf("MarkAnalyzed failed: %v", err)
	}

	reloaded, err := NewAnalysisTracker(dir, 7)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.IsAnalyzed("vid1") {
		t.Error("tracking state lost across reload")
	}
}

func TestTrackerExpiresOldEntries(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewAnalysisTracker(dir, 7)
	if err != nil {
		t.Fatalf("NewAnalysisTracker failed: %v", err)
	}

	// Backdate an entry past the tracking window.
	tracker.mu.Lock()
	tracker.entries["old"] = trackedVideo{
		AnalyzedAt: time.Now().Add(-8 * 24 * time.Hour),
		Kinds:      models.AllKinds(),
	}
	tracker.mu.Unlock()

	if tracker.IsAnalyzed("old") {
		t.Error("expired entry reported as analyzed")
	}
	if got := tracker.PendingKinds("old"); len(got) != len(models.AllKinds()) {
		t.Errorf("expired entry has %d pending kinds, want all", len(got))
	}
	if tracker.TrackedCount() != 0 {
		t.Errorf("tracked count = %d, want 0", tracker.TrackedCount())
	}
}
