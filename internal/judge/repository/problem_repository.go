package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/common/db"
	"codejudge/internal/judge/model"
)

const (
	defaultProblemCacheTTL      = 5 * time.Minute
	defaultProblemCacheEmptyTTL = time.Minute
	problemKeyPrefix            = "problem:meta:"
	testCasesKeyPrefix          = "problem:testcases:"
)

var ErrProblemNotFound = errors.New("problem not found")

// ProblemRepository reads problems and their test cases. The judge never writes them.
type ProblemRepository interface {
	GetProblem(ctx context.Context, problemID int64) (model.Problem, error)
	ListTestCases(ctx context.Context, problemID int64) ([]model.TestCase, error)
}

// MySQLProblemRepository reads the problem store through a Redis cache-aside layer.
type MySQLProblemRepository struct {
	db       db.Provider
	cache    cache.BasicOps
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewProblemRepository creates a repository; a nil cache reads straight from MySQL.
func NewProblemRepository(database db.Provider, cacheClient cache.BasicOps, ttl, emptyTTL time.Duration) *MySQLProblemRepository {
	if ttl <= 0 {
		ttl = defaultProblemCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultProblemCacheEmptyTTL
	}
	return &MySQLProblemRepository{db: database, cache: cacheClient, ttl: ttl, emptyTTL: emptyTTL}
}

func (r *MySQLProblemRepository) GetProblem(ctx context.Context, problemID int64) (model.Problem, error) {
	if r.cache == nil {
		return r.getProblemFromDB(ctx, problemID)
	}
	problem, err := cache.GetWithCached[model.Problem](
		ctx,
		r.cache,
		problemKeyPrefix+strconv.FormatInt(problemID, 10),
		r.ttl,
		r.emptyTTL,
		func(p model.Problem) bool { return p.ID == 0 },
		marshalJSON[model.Problem],
		unmarshalJSON[model.Problem],
		func(ctx context.Context) (model.Problem, error) {
			p, err := r.getProblemFromDB(ctx, problemID)
			if errors.Is(err, ErrProblemNotFound) {
				return model.Problem{}, nil
			}
			return p, err
		},
	)
	if err != nil {
		return model.Problem{}, err
	}
	if problem.ID == 0 {
		return model.Problem{}, ErrProblemNotFound
	}
	return problem, nil
}

func (r *MySQLProblemRepository) ListTestCases(ctx context.Context, problemID int64) ([]model.TestCase, error) {
	if r.cache == nil {
		return r.listTestCasesFromDB(ctx, problemID)
	}
	return cache.GetWithCached[[]model.TestCase](
		ctx,
		r.cache,
		testCasesKeyPrefix+strconv.FormatInt(problemID, 10),
		r.ttl,
		r.emptyTTL,
		func(cases []model.TestCase) bool { return len(cases) == 0 },
		marshalJSON[[]model.TestCase],
		unmarshalJSON[[]model.TestCase],
		func(ctx context.Context) ([]model.TestCase, error) {
			return r.listTestCasesFromDB(ctx, problemID)
		},
	)
}

func (r *MySQLProblemRepository) getProblemFromDB(ctx context.Context, problemID int64) (model.Problem, error) {
	query := `
		SELECT id, title, description, time_limit, memory_limit, created_at
		FROM problems
		WHERE id = ?
		LIMIT 1`
	database, err := db.CurrentDatabase(r.db)
	if err != nil {
		return model.Problem{}, err
	}
	row := database.QueryRow(ctx, query, problemID)

	var p model.Problem
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.TimeLimit, &p.MemoryLimit, &p.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return model.Problem{}, ErrProblemNotFound
		}
		return model.Problem{}, err
	}
	if p.TimeLimit <= 0 {
		p.TimeLimit = model.DefaultTimeLimitSeconds
	}
	if p.MemoryLimit <= 0 {
		p.MemoryLimit = model.DefaultMemoryLimitMB
	}
	return p, nil
}

func (r *MySQLProblemRepository) listTestCasesFromDB(ctx context.Context, problemID int64) ([]model.TestCase, error) {
	query := "SELECT id, problem_id, input, output FROM test_cases WHERE problem_id = ? ORDER BY id"
	database, err := db.CurrentDatabase(r.db)
	if err != nil {
		return nil, err
	}
	rows, err := database.Query(ctx, query, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.Output); err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

func marshalJSON[T any](v T) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(payload)
}

func unmarshalJSON[T any](data string) (T, error) {
	var v T
	if data == "" {
		return v, nil
	}
	err := json.Unmarshal([]byte(data), &v)
	return v, err
}
