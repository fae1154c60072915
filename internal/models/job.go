package models

import "time"

// AnalysisRequest asks for one or more analysis kinds on a single video.
// Requests are not deduplicated; overlapping requests are bounded by the
// shared concurrency gate, not rejected.
type AnalysisRequest struct {
	VideoID     string         `json:"video_id"`
	Kinds       []AnalysisKind `json:"kinds"`
	RequestedAt time.Time      `json:"requested_at"`
}

// Outcome records the result of attempting one analysis kind for one video.
// Exactly one outcome exists per requested (video, kind) pair; a failed
// attempt is never silently dropped.
type Outcome struct {
	VideoID   string       `json:"video_id"`
	Kind      AnalysisKind `json:"kind"`
	Result    Result       `json:"result,omitempty"`
	Err       error        `json:"-"`
	Reason    string       `json:"reason,omitempty"`
	Retryable bool         `json:"retryable"`
}

// Succeeded reports whether the outcome carries a result.
func (o Outcome) Succeeded() bool { return o.Err == nil && o.Result != nil }

// JobState is the lifecycle of a batch analysis job.
type JobState string

const (
	JobPending               JobState = "pending"
	JobRunning               JobState = "running"
	JobCompleted             JobState = "completed"
	JobCompletedWithFailures JobState = "completed_with_failures"
	JobCancelled             JobState = "cancelled"
)

// Terminal reports whether the job can no longer change.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobCompletedWithFailures || s == JobCancelled
}

// JobSummary is a point-in-time snapshot of a batch job. Once the state is
// terminal the outcome count equals TotalRequested.
type JobSummary struct {
	JobID          string               `json:"job_id"`
	State          JobState             `json:"state"`
	SubmittedAt    time.Time            `json:"submitted_at"`
	CompletedAt    time.Time            `json:"completed_at,omitzero"`
	TotalRequested int                  `json:"total_requested"`
	Succeeded      int                  `json:"succeeded"`
	Failed         int                  `json:"failed"`
	PerVideo       map[string][]Outcome `json:"per_video"`
}
