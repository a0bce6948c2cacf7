package model

import "time"

// Verdict is the aggregate outcome of a submission.
type Verdict string

const (
	VerdictAccepted    Verdict = "Accepted"
	VerdictWrongAnswer Verdict = "Wrong Answer"
)

// TestResult records one test case of a submission.
type TestResult struct {
	TestCaseID int64  `json:"testCaseId"`
	Input      string `json:"input"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"`
	Passed     bool   `json:"passed"`
	// Error is the classification label, e.g. "Runtime Error: segmentation fault".
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	TimeMs  int64  `json:"timeMs"`
}

// SubmissionVerdict is returned to the submitter once judging finishes.
type SubmissionVerdict struct {
	Success      bool         `json:"success"`
	SubmissionID string       `json:"submissionId"`
	Verdict      Verdict      `json:"verdict"`
	Results      []TestResult `json:"results"`
}

// AggregateVerdict is Accepted iff every result passed, including the empty set.
func AggregateVerdict(results []TestResult) Verdict {
	for _, r := range results {
		if !r.Passed {
			return VerdictWrongAnswer
		}
	}
	return VerdictAccepted
}

// Submission is the persisted record of a judged submission.
type Submission struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	ProblemID   int64        `json:"problemId"`
	Language    string       `json:"language"`
	Code        string       `json:"code"`
	SourceKey   string       `json:"sourceKey,omitempty"`
	Verdict     Verdict      `json:"verdict"`
	Results     []TestResult `json:"results"`
	SubmittedAt time.Time    `json:"submittedAt"`
}
