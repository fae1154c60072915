package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"insight-stack/internal/models"
)

// AnalysisTracker remembers which videos have already been swept so the
// scheduled agent does not re-submit them on every run. Entries expire
// after maxAge, which lets long-lived channels get re-analyzed once their
// metrics have had time to move.
type AnalysisTracker struct {
	mu       sync.RWMutex
	filePath string
	maxAge   time.Duration
	entries  map[string]trackedVideo
}

type trackedVideo struct {
	AnalyzedAt time.Time             `json:"analyzed_at"`
	Kinds      []models.AnalysisKind `json:"kinds,omitempty"`
}

// NewAnalysisTracker loads tracking state from dataDir/analyzed_videos.json,
// starting empty if the file does not exist yet.
func NewAnalysisTracker(dataDir string, maxAgeDays int) (*AnalysisTracker, error) {
	if maxAgeDays < 1 {
		maxAgeDays = 1
	}

	t := &AnalysisTracker{
		filePath: filepath.Join(dataDir, "analyzed_videos.json"),
		maxAge:   time.Duration(maxAgeDays) * 24 * time.Hour,
		entries:  make(map[string]trackedVideo),
	}

	if err := t.load(); err != nil {
		return nil, fmt.Errorf("loading analysis tracker: %w", err)
	}
	t.cleanup()

	return t, nil
}

// IsAnalyzed reports whether the video was fully analyzed within the
// tracking window. Videos with only a partial set of completed kinds are
// not considered analyzed, so failed kinds get retried on the next sweep.
func (t *AnalysisTracker) IsAnalyzed(videoID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[videoID]
	if !ok {
		return false
	}
	if time.Since(entry.AnalyzedAt) > t.maxAge {
		return false
	}
	return containsAll(entry.Kinds, models.AllKinds())
}

// PendingKinds returns the analysis kinds still outstanding for a video.
// A video never seen before (or whose entry expired) has all kinds pending.
func (t *AnalysisTracker) PendingKinds(videoID string) []models.AnalysisKind {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[videoID]
	if !ok || time.Since(entry.AnalyzedAt) > t.maxAge {
		return models.AllKinds()
	}

	var pending []models.AnalysisKind
	for _, k := range models.AllKinds() {
		if !containsKind(entry.Kinds, k) {
			pending = append(pending, k)
		}
	}
	return pending
}

// MarkAnalyzed records that the given kinds completed for a video, merging
// with any kinds recorded by earlier sweeps.
func (t *AnalysisTracker) MarkAnalyzed(videoID string, kinds []models.AnalysisKind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.entries[videoID]
	for _, k := range kinds {
		if !containsKind(entry.Kinds, k) {
			entry.Kinds = append(entry.Kinds, k)
		}
	}
	entry.AnalyzedAt = time.Now()
	t.entries[videoID] = entry

	return t.save()
}

// TrackedCount returns the number of videos with unexpired entries.
func (t *AnalysisTracker) TrackedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, entry := range t.entries {
		if time.Since(entry.AnalyzedAt) <= t.maxAge {
			count++
		}
	}
	return count
}

func (t *AnalysisTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, entry := range t.entries {
		if time.Since(entry.AnalyzedAt) > t.maxAge {
			delete(t.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("Analysis tracker: expired %d stale entries", removed)
	}
}

func (t *AnalysisTracker) load() error {
	data, err := os.ReadFile(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &t.entries)
}

// save writes the tracking state. Caller must hold the write lock.
func (t *AnalysisTracker) save() error {
	if err := os.MkdirAll(filepath.Dir(t.filePath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling tracker state: %w", err)
	}
	return os.WriteFile(t.filePath, data, 0644)
}

func containsKind(kinds []models.AnalysisKind, k models.AnalysisKind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}

func containsAll(have, want []models.AnalysisKind) bool {
	for _, k := range want {
		if !containsKind(have, k) {
			return false
		}
	}
	return true
}
