package domain

import "math"

// FetchRequest is the queue message that asks a worker to fetch one source.
// Immutable once enqueued; delivery is at-least-once, so handlers must be
// safe to re-run.
type FetchRequest struct {
	APIName   string `json:"api_name"`
	Number    int    `json:"number"`
	RequestID string `json:"request_id"`
}

// FetchStatus is the per-source tri-state flag gating whether an
// aggregate-fetch request re-triggers that source.
type FetchStatus string

const (
	StatusPending FetchStatus = "pending"
	StatusSuccess FetchStatus = "success"
	StatusFailure FetchStatus = "failure"
)

// StatusCounts aggregates the per-source statuses for progress reporting.
type StatusCounts struct {
	Success int
	Failure int
	Pending int
}

func (c StatusCounts) Total() int {
	return c.Success + c.Failure + c.Pending
}

// Percent is the completed fraction as an integer 0..100, rounded and
// clamped at 100. An empty source set counts as fully complete.
func (c StatusCounts) Percent() int {
	total := c.Total()
	if total == 0 {
		return 100
	}
	percent := int(math.Round(float64(c.Success+c.Failure) / float64(total) * 100))
	if percent > 100 {
		percent = 100
	}
	return percent
}

// FetchOutcome is the aggregate-fetch response status returned to the
// polling client.
type FetchOutcome string

const (
	FetchOK         FetchOutcome = "ok"
	FetchProcessing FetchOutcome = "processing"
	FetchDegraded   FetchOutcome = "degraded"
)

// FetchResult is what the orchestrator hands back for one poll cycle.
type FetchResult struct {
	Status    FetchOutcome
	RequestID string
	Message   string
}
