// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

// Package guard implements the composable permission gate protecting
// request handlers. Four escalating predicates are exposed; each one is
// built by extending the previous, so a stronger predicate implies every
// weaker one. A failed predicate always denies with the same message
// regardless of which sub-check failed, so callers cannot probe which
// requirement they are missing.
package guard

import (
	"net/http"

	"github.com/google/uuid"

	"openjudge/internal/errs"
	"openjudge/internal/middleware"
	"openjudge/internal/models"
	"openjudge/internal/response"
)

// Predicate decides whether a principal may pass the gate. The principal
// is nil for anonymous requests.
type Predicate func(u *models.User) bool

// Authenticated requires a logged-in principal.
func Authenticated(u *models.User) bool {
	return u != nil
}

// SuperAdminRequired extends Authenticated with the super-admin role.
func SuperAdminRequired(u *models.User) bool {
	return Authenticated(u) && u.IsSuperAdmin()
}

// AdminRoleRequired extends Authenticated with an admin or super-admin
// role.
func AdminRoleRequired(u *models.User) bool {
	return Authenticated(u) && u.IsAdminRole()
}

// ProblemPermissionRequired extends AdminRoleRequired with a non-empty
// problem-management permission.
func ProblemPermissionRequired(u *models.User) bool {
	if !AdminRoleRequired(u) {
		return false
	}
	return u.ProblemPermission != models.PermNone
}

// Require wraps a handler behind the given predicate. A failing predicate
// short-circuits with the uniform "Please login first" denial; a passing
// predicate on a disabled account still denies. Only when both checks
// pass does the wrapped handler run.
func Require(p Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := middleware.PrincipalFromCtx(r.Context())
			if !p(user) {
				response.PermissionDenied(w, "Please login first")
				return
			}
			if user.IsDisabled {
				response.PermissionDenied(w, "Your account is disabled")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Check is the non-HTTP form of Require, for callers that gate an
// operation outside a middleware chain.
func Check(p Predicate, u *models.User) error {
	if !p(u) {
		return errs.AuthenticationRequired("Please login first")
	}
	if u.IsDisabled {
		return errs.AccountDisabled("Your account is disabled")
	}
	return nil
}

// Owned is an entity with a creator, subject to ownership enforcement.
type Owned interface {
	CreatorID() uuid.UUID
	Label() string
}

// EnsureCreatedBy enforces ownership for mutation endpoints. Super admins
// bypass; for problems, a principal who may manage all problems bypasses;
// otherwise the creator must be the caller. Failures use a "does not
// exist" message so the entity's presence is not leaked to principals who
// cannot touch it.
func EnsureCreatedBy(entity Owned, u *models.User) error {
	notExist := errs.NotFound("%s does not exist", entity.Label())
	if !u.IsAdminRole() {
		return notExist
	}
	if u.IsSuperAdmin() {
		return nil
	}
	if _, isProblem := entity.(*models.Problem); isProblem && u.CanMgmtAllProblem() {
		return nil
	}
	if entity.CreatorID() != u.ID {
		return notExist
	}
	return nil
}
