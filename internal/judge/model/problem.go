package model

import "time"

const (
	// DefaultTimeLimitSeconds applies when a problem row has no time limit.
	DefaultTimeLimitSeconds = 1
	// DefaultMemoryLimitMB applies when a problem row has no memory limit.
	DefaultMemoryLimitMB = 256
)

// Problem is the judge-facing view of a problem row.
type Problem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// TimeLimit is in seconds.
	TimeLimit int `json:"timeLimit"`
	// MemoryLimit is in megabytes.
	MemoryLimit int       `json:"memoryLimit"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TimeLimitDuration returns the per-test wall limit, or 0 when the problem has none.
func (p Problem) TimeLimitDuration() time.Duration {
	if p.TimeLimit <= 0 {
		return 0
	}
	return time.Duration(p.TimeLimit) * time.Second
}

// TestCase is one input and expected output pair. Cases run in ID order.
type TestCase struct {
	ID        int64  `json:"id"`
	ProblemID int64  `json:"problemId"`
	Input     string `json:"input"`
	Output    string `json:"output"`
}
