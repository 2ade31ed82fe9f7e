// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

// Package contestaccess evaluates, per request and per operation kind,
// whether a principal may access a contest's details, problems, ranks or
// submissions. It combines the authentication result, the contest's
// access/rule attributes, its temporal phase and the session's accepted
// contest password.
package contestaccess

import (
	"context"
	"fmt"
	"time"

	"openjudge/internal/errs"
	"openjudge/internal/models"
	"openjudge/internal/session"
)

// OpKind is the kind of contest data being requested.
type OpKind string

const (
	OpDetails     OpKind = "details"
	OpProblems    OpKind = "problems"
	OpRanks       OpKind = "ranks"
	OpSubmissions OpKind = "submissions"
)

// ContestFinder resolves visible contests. Satisfied by *store.ContestStore.
type ContestFinder interface {
	FindVisibleByID(ctx context.Context, id int64) (*models.Contest, error)
}

// Controller resolves contests and applies the access rules.
type Controller struct {
	contests ContestFinder
	now      func() time.Time
}

// NewController creates a contest access controller.
func NewController(contests ContestFinder) *Controller {
	return &Controller{contests: contests, now: time.Now}
}

// Check evaluates access for (user, contestID, op) and returns the
// resolved contest on success. The order of the gates is contractual:
//
//  1. contest must exist and be visible;
//  2. the caller must be authenticated;
//  3. contest admins (creator, delegated manager, super admin) bypass
//     every remaining gate;
//  4. password-protected contests require a currently valid accepted
//     password in the session;
//  5. before the start time only details are accessible;
//  6. while an OI contest without real-time rank is underway, ranks and
//     submissions are withheld.
//
// sess may be nil (for example under API-key auth); it only matters for
// password-protected contests.
func (c *Controller) Check(ctx context.Context, user *models.User, sess *session.Data, contestID int64, op OpKind) (*models.Contest, error) {
	contest, err := c.contests.FindVisibleByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if contest == nil {
		return nil, errs.NotFound("Contest %d doesn't exist", contestID)
	}

	if user == nil {
		return nil, errs.AuthenticationRequired("Please login first.")
	}

	if user.IsContestAdmin(contest) {
		return contest, nil
	}

	if contest.ContestType == models.PasswordProtectedContest {
		if !CheckPassword(sess.ContestPassword(contest.ID), contest.Password, c.now()) {
			return nil, errs.PermissionDenied("Wrong password or password expired")
		}
	}

	status := contest.Status(c.now())

	if status == models.ContestNotStarted && op != OpDetails {
		return nil, errs.PermissionDenied("Contest has not started yet.")
	}

	if status == models.ContestUnderway && contest.RuleType == models.RuleOI {
		if !contest.RealTimeRank && (op == OpRanks || op == OpSubmissions) {
			return nil, errs.PermissionDenied(fmt.Sprintf("No permission to get %s", op))
		}
	}

	return contest, nil
}
