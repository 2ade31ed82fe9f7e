// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"openjudge/internal/contestaccess"
	"openjudge/internal/guard"
	"openjudge/internal/middleware"
	"openjudge/internal/response"
	"openjudge/internal/session"
)

// DataProvider supplies contest-scoped payloads. The judge's problem,
// rank and submission services implement this; this subsystem only gates
// access to it.
type DataProvider interface {
	Problems(ctx context.Context, contestID int64) (any, error)
	Ranks(ctx context.Context, contestID int64) (any, error)
	Submissions(ctx context.Context, contestID int64) (any, error)
}

// Contest groups the contest-scoped read endpoints and the contest
// password flows.
type Contest struct {
	contests contestaccess.ContestFinder
	access   *contestaccess.Controller
	sessions SessionUpdater
	data     DataProvider
}

// SessionUpdater persists session payload changes (the accepted contest
// password). Satisfied by *session.Store.
type SessionUpdater interface {
	Update(ctx context.Context, id string, data *session.Data) error
}

// NewContest creates the Contest handler group.
func NewContest(contests contestaccess.ContestFinder, access *contestaccess.Controller, sessions SessionUpdater, data DataProvider) *Contest {
	return &Contest{contests: contests, access: access, sessions: sessions, data: data}
}

// contestID extracts the mandatory contest_id query parameter.
func contestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("contest_id")
	if raw == "" {
		response.Error(w, "Parameter error, contest_id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(w, "Parameter error, contest_id is required")
		return 0, false
	}
	return id, true
}

// check runs the access controller for the request.
func (h *Contest) check(w http.ResponseWriter, r *http.Request, op contestaccess.OpKind) (int64, bool) {
	id, ok := contestID(w, r)
	if !ok {
		return 0, false
	}
	_, err := h.access.Check(r.Context(), principal(r), middleware.SessionFromCtx(r.Context()), id, op)
	if err != nil {
		response.Err(w, err)
		return 0, false
	}
	return id, true
}

// Details serves a contest's metadata.
func (h *Contest) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := contestID(w, r)
	if !ok {
		return
	}
	contest, err := h.access.Check(r.Context(), principal(r), middleware.SessionFromCtx(r.Context()), id, contestaccess.OpDetails)
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, contest)
}

// Problems serves a contest's problem list.
func (h *Contest) Problems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.check(w, r, contestaccess.OpProblems)
	if !ok {
		return
	}
	payload, err := h.data.Problems(r.Context(), id)
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, payload)
}

// Ranks serves a contest's rank table.
func (h *Contest) Ranks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.check(w, r, contestaccess.OpRanks)
	if !ok {
		return
	}
	payload, err := h.data.Ranks(r.Context(), id)
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, payload)
}

// Submissions serves a contest's submission list.
func (h *Contest) Submissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.check(w, r, contestaccess.OpSubmissions)
	if !ok {
		return
	}
	payload, err := h.data.Submissions(r.Context(), id)
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, payload)
}

type contestPasswordRequest struct {
	ContestID int64  `json:"contest_id"`
	Password  string `json:"password"`
}

// SubmitPassword verifies a submitted contest password and remembers it
// in the caller's session. The stored value is re-verified on every later
// access, so rotating the contest password revokes it.
func (h *Contest) SubmitPassword(w http.ResponseWriter, r *http.Request) {
	var req contestPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contest, err := h.contests.FindVisibleByID(r.Context(), req.ContestID)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if contest == nil {
		response.Error(w, "Contest does not exist")
		return
	}

	if !contestaccess.CheckPassword(req.Password, contest.Password, time.Now()) {
		response.Error(w, "Wrong password or password expired")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	id := middleware.SessionIDFromCtx(r.Context())
	if sess == nil || id == "" {
		response.Error(w, "Please login first")
		return
	}
	sess.SetContestPassword(contest.ID, req.Password)
	if err := h.sessions.Update(r.Context(), id, sess); err != nil {
		response.ServerError(w, err)
		return
	}
	response.Success(w, true)
}

type signedPasswordRequest struct {
	ContestID int64 `json:"contest_id"`
	// ValidSeconds is how long the minted token stays redeemable.
	ValidSeconds int64 `json:"valid_seconds"`
}

// MintSignedPassword lets a contest admin mint a self-expiring shareable
// form of the contest password. Guarded by ownership: non-owners get a
// "does not exist" error.
func (h *Contest) MintSignedPassword(w http.ResponseWriter, r *http.Request) {
	var req signedPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ValidSeconds <= 0 {
		response.Error(w, "Parameter error, valid_seconds is required")
		return
	}

	contest, err := h.contests.FindVisibleByID(r.Context(), req.ContestID)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if contest == nil {
		response.Error(w, "Contest does not exist")
		return
	}
	if err := guard.EnsureCreatedBy(contest, principal(r)); err != nil {
		response.Err(w, err)
		return
	}
	if contest.Password == "" {
		response.Error(w, "Contest is not password protected")
		return
	}

	expiresAt := time.Now().Add(time.Duration(req.ValidSeconds) * time.Second)
	token := contestaccess.Sign(contest.Password, expiresAt)
	response.Success(w, map[string]string{"password": token})
}
