// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContestDataStore serves the contest-scoped payloads behind the access
// gate: problem lists, rank tables and submission lists. It implements
// handlers.DataProvider.
type ContestDataStore struct {
	db *sql.DB
}

// NewContestDataStore creates a new ContestDataStore with the given
// database connection.
func NewContestDataStore(db *sql.DB) *ContestDataStore {
	return &ContestDataStore{db: db}
}

// ContestProblem is a row in a contest's problem list.
type ContestProblem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Problems lists the visible problems attached to a contest.
func (s *ContestDataStore) Problems(ctx context.Context, contestID int64) (any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title FROM problems
		WHERE contest_id = $1 AND visible = TRUE
		ORDER BY id
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("list contest problems: %w", err)
	}
	defer rows.Close()

	problems := []ContestProblem{}
	for rows.Next() {
		var p ContestProblem
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, fmt.Errorf("scan contest problem: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// RankRow is a row in a contest's rank table. ACM contests order by
// accepted count then penalty; OI contests order by score.
type RankRow struct {
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	AcceptedNumber int       `json:"accepted_number"`
	TotalPenalty   int64     `json:"total_penalty"`
	TotalScore     int64     `json:"total_score"`
}

// Ranks returns the contest's rank table.
func (s *ContestDataStore) Ranks(ctx context.Context, contestID int64) (any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.user_id, u.username, r.accepted_number, r.total_penalty, r.total_score
		FROM contest_ranks r
		JOIN users u ON u.id = r.user_id
		WHERE r.contest_id = $1
		ORDER BY r.accepted_number DESC, r.total_penalty ASC, r.total_score DESC
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("list contest ranks: %w", err)
	}
	defer rows.Close()

	ranks := []RankRow{}
	for rows.Next() {
		var row RankRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.AcceptedNumber, &row.TotalPenalty, &row.TotalScore); err != nil {
			return nil, fmt.Errorf("scan rank row: %w", err)
		}
		ranks = append(ranks, row)
	}
	return ranks, rows.Err()
}

// SubmissionRow is a row in a contest's submission list.
type SubmissionRow struct {
	ID         int64     `json:"id"`
	ProblemID  int64     `json:"problem_id"`
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	Result     string    `json:"result"`
	CreateTime time.Time `json:"create_time"`
}

// Submissions lists a contest's most recent submissions.
func (s *ContestDataStore) Submissions(ctx context.Context, contestID int64) (any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.problem_id, s.user_id, u.username, s.result, s.create_time
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.contest_id = $1
		ORDER BY s.create_time DESC
		LIMIT 100
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("list contest submissions: %w", err)
	}
	defer rows.Close()

	subs := []SubmissionRow{}
	for rows.Next() {
		var row SubmissionRow
		if err := rows.Scan(&row.ID, &row.ProblemID, &row.UserID, &row.Username, &row.Result, &row.CreateTime); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		subs = append(subs, row)
	}
	return subs, rows.Err()
}
