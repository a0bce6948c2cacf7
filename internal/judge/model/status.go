package model

// JudgeState is the live phase of a submission.
type JudgeState string

const (
	JudgeStateQueued    JudgeState = "Queued"
	JudgeStateCompiling JudgeState = "Compiling"
	JudgeStateJudging   JudgeState = "Judging"
	JudgeStateFinished  JudgeState = "Finished"
	JudgeStateFailed    JudgeState = "Failed"
)

// Progress counts finished test cases.
type Progress struct {
	TotalTests int `json:"totalTests"`
	DoneTests  int `json:"doneTests"`
}

// Timestamps are unix seconds.
type Timestamps struct {
	ReceivedAt int64 `json:"receivedAt"`
	FinishedAt int64 `json:"finishedAt,omitempty"`
}

// JudgeStatus is the live status snapshot kept in Redis.
type JudgeStatus struct {
	SubmissionID string     `json:"submissionId"`
	UserID       string     `json:"userId,omitempty"`
	ProblemID    int64      `json:"problemId"`
	Language     string     `json:"language"`
	State        JudgeState `json:"state"`
	Verdict      Verdict    `json:"verdict,omitempty"`
	Progress     Progress   `json:"progress"`
	ErrorCode    int        `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Timestamps   Timestamps `json:"timestamps"`
}

// Final reports whether judging has stopped.
func (s JudgeStatus) Final() bool {
	return s.State == JudgeStateFinished || s.State == JudgeStateFailed
}

// StatusEventType tags status events on the queue.
type StatusEventType string

const StatusEventFinal StatusEventType = "final"

// StatusEvent is published when a submission reaches a final state.
type StatusEvent struct {
	Type      StatusEventType `json:"type"`
	Status    JudgeStatus     `json:"status"`
	CreatedAt int64           `json:"createdAt"`
}
