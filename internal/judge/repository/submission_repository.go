package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/common/db"
	"codejudge/internal/judge/model"
	appErr "codejudge/pkg/errors"
)

const (
	defaultSubmissionCacheTTL      = 30 * time.Minute
	defaultSubmissionCacheEmptyTTL = time.Minute
	submissionCacheKeyPrefix       = "submission:"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionRepository persists judged submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, tx db.Transaction, submission *model.Submission) error
	GetByID(ctx context.Context, submissionID string) (*model.Submission, error)
}

// MySQLSubmissionRepository stores submissions in MySQL with results as a JSON column.
type MySQLSubmissionRepository struct {
	db       db.Provider
	cache    cache.BasicOps
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewSubmissionRepository(database db.Provider, cacheClient cache.BasicOps) *MySQLSubmissionRepository {
	return &MySQLSubmissionRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      defaultSubmissionCacheTTL,
		emptyTTL: defaultSubmissionCacheEmptyTTL,
	}
}

const submissionColumns = "id, user_id, problem_id, language, code, source_key, verdict, results, submitted_at"

// Create inserts a submission. Submissions are immutable once written.
func (r *MySQLSubmissionRepository) Create(ctx context.Context, tx db.Transaction, submission *model.Submission) error {
	if submission == nil {
		return errors.New("submission is nil")
	}
	if submission.ID == "" {
		return errors.New("submission id is required")
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	results, err := json.Marshal(submission.Results)
	if err != nil {
		return fmt.Errorf("marshal results failed: %w", err)
	}

	database, err := db.CurrentDatabase(r.db)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO submissions
		(id, user_id, problem_id, language, code, source_key, verdict, results, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.GetQuerier(database, tx).Exec(
		ctx,
		query,
		submission.ID,
		submission.UserID,
		submission.ProblemID,
		submission.Language,
		submission.Code,
		submission.SourceKey,
		string(submission.Verdict),
		string(results),
		submission.SubmittedAt,
	)
	if err != nil {
		if key, ok := db.UniqueViolation(err); ok {
			return appErr.New(appErr.RecordAlreadyExists).WithMessage("submission already exists").WithDetail("key", key)
		}
		return err
	}
	if r.cache != nil && tx == nil {
		// Overwrite a cached miss from an early status poll.
		_ = r.cache.Set(ctx, submissionCacheKeyPrefix+submission.ID, marshalJSON(submission), cache.JitterTTL(r.ttl))
	}
	return nil
}

func (r *MySQLSubmissionRepository) GetByID(ctx context.Context, submissionID string) (*model.Submission, error) {
	if submissionID == "" {
		return nil, errors.New("submission id is required")
	}
	if r.cache == nil {
		return r.getByIDFromDB(ctx, submissionID)
	}
	submission, err := cache.GetWithCached[*model.Submission](
		ctx,
		r.cache,
		submissionCacheKeyPrefix+submissionID,
		r.ttl,
		r.emptyTTL,
		func(s *model.Submission) bool { return s == nil },
		marshalJSON[*model.Submission],
		unmarshalJSON[*model.Submission],
		func(ctx context.Context) (*model.Submission, error) {
			s, err := r.getByIDFromDB(ctx, submissionID)
			if errors.Is(err, ErrSubmissionNotFound) {
				return nil, nil
			}
			return s, err
		},
	)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	return submission, nil
}

func (r *MySQLSubmissionRepository) getByIDFromDB(ctx context.Context, submissionID string) (*model.Submission, error) {
	database, err := db.CurrentDatabase(r.db)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + submissionColumns + " FROM submissions WHERE id = ? LIMIT 1"
	row := database.QueryRow(ctx, query, submissionID)

	s := &model.Submission{}
	var (
		verdict   string
		results   string
		sourceKey *string
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.ProblemID,
		&s.Language,
		&s.Code,
		&sourceKey,
		&verdict,
		&results,
		&s.SubmittedAt,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	s.Verdict = model.Verdict(verdict)
	if sourceKey != nil {
		s.SourceKey = *sourceKey
	}
	if results != "" {
		if err := json.Unmarshal([]byte(results), &s.Results); err != nil {
			return nil, fmt.Errorf("decode results failed: %w", err)
		}
	}
	return s, nil
}
