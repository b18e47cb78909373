package database

import "time"

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	FailedStage    string
	Message        string
	ReportMarkdown string
}

// Duration is the wall time the run took.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// DatasetStats summarizes one normalized table within a run.
type DatasetStats struct {
	RunID     int64
	Dataset   string
	Rows      int
	FirstYear int
	LastYear  int
	Skipped   int
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastRunAt      *time.Time
	LastSuccessAt  *time.Time
}
