// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"openjudge/internal/models"
)

// ContestStore handles read access to contests and their admin relation.
// Contest scheduling and editing belong to the contest-management service;
// the access controller only ever reads.
type ContestStore struct {
	db *sql.DB
}

// NewContestStore creates a new ContestStore with the given database connection.
func NewContestStore(db *sql.DB) *ContestStore {
	return &ContestStore{db: db}
}

// FindVisibleByID retrieves a visible contest by id, including its
// delegated admin list. Returns nil if the contest does not exist or is
// hidden; callers must not distinguish the two cases.
func (s *ContestStore) FindVisibleByID(ctx context.Context, id int64) (*models.Contest, error) {
	c := &models.Contest{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, visible, contest_type, rule_type, start_time, end_time,
			password, real_time_rank, created_by
		FROM contests WHERE id = $1 AND visible = TRUE
	`, id).Scan(
		&c.ID, &c.Title, &c.Visible, &c.ContestType, &c.RuleType, &c.StartTime, &c.EndTime,
		&c.Password, &c.RealTimeRank, &c.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contest by id: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM contest_admins WHERE contest_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list contest admins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid uuid.UUID
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan contest admin: %w", err)
		}
		c.AdminIDs = append(c.AdminIDs, uid)
	}
	return c, rows.Err()
}

// FindProblemByID retrieves a problem's permission-relevant fields.
// Returns nil if not found.
func (s *ContestStore) FindProblemByID(ctx context.Context, id int64) (*models.Problem, error) {
	p := &models.Problem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, visible, created_by FROM problems WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Visible, &p.CreatedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find problem by id: %w", err)
	}
	return p, nil
}
