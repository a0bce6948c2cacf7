package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/judge/model"
	appErr "codejudge/pkg/errors"
)

const statusKeyPrefix = "judge:status:"

// StatusRepository keeps live judge status in Redis and announces final states.
type StatusRepository struct {
	cache     cache.BasicOps
	ttl       time.Duration
	publisher StatusEventPublisher
}

// NewStatusRepository creates a repository. Final states require a publisher.
func NewStatusRepository(cacheClient cache.BasicOps, ttl time.Duration, publisher StatusEventPublisher) *StatusRepository {
	return &StatusRepository{cache: cacheClient, ttl: ttl, publisher: publisher}
}

// Get returns the live status of a submission.
func (r *StatusRepository) Get(ctx context.Context, submissionID string) (model.JudgeStatus, error) {
	if submissionID == "" {
		return model.JudgeStatus{}, appErr.ValidationError("submission_id", "required")
	}
	if r.cache == nil {
		return model.JudgeStatus{}, appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	val, err := r.cache.Get(ctx, statusKeyPrefix+submissionID)
	if err != nil {
		return model.JudgeStatus{}, appErr.Wrapf(err, appErr.CacheError, "load status failed")
	}
	if val == "" {
		return model.JudgeStatus{}, appErr.New(appErr.SubmissionNotFound).WithMessage("submission status not found")
	}
	var status model.JudgeStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return model.JudgeStatus{}, appErr.Wrapf(err, appErr.CacheError, "decode status failed")
	}
	return status, nil
}

// Save stores status and, when it is final, publishes it.
func (r *StatusRepository) Save(ctx context.Context, status model.JudgeStatus) error {
	if status.SubmissionID == "" {
		return appErr.ValidationError("submission_id", "required")
	}
	if r.cache != nil {
		data, err := json.Marshal(status)
		if err != nil {
			return fmt.Errorf("marshal status failed: %w", err)
		}
		if err := r.cache.Set(ctx, statusKeyPrefix+status.SubmissionID, string(data), r.ttl); err != nil {
			return appErr.Wrapf(err, appErr.CacheError, "store status failed")
		}
	}
	if !status.Final() {
		return nil
	}
	if r.publisher == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("status publisher is not configured")
	}
	return r.publisher.PublishFinalStatus(ctx, status)
}
