// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AdminType represents a user's role in the system.
type AdminType string

const (
	RegularUser AdminType = "Regular User"
	Admin       AdminType = "Admin"
	SuperAdmin  AdminType = "Super Admin"
)

// ProblemPermission is the resource-scoped permission for problem
// management.
type ProblemPermission string

const (
	PermNone ProblemPermission = "None"
	PermOwn  ProblemPermission = "Own"
	PermAll  ProblemPermission = "All"
)

// User represents a judge-platform account with authentication, role and
// single-slot ephemeral credential fields.
type User struct {
	ID                uuid.UUID         `json:"id"`
	Username          string            `json:"username"`
	Email             string            `json:"email"`
	PasswordHash      string            `json:"-"` // Never serialize the hash
	AdminType         AdminType         `json:"admin_type"`
	ProblemPermission ProblemPermission `json:"problem_permission"`
	RealName          *string           `json:"-"` // Exposed only through privileged views
	Avatar            string            `json:"avatar"`
	IsDisabled        bool              `json:"is_disabled"`
	TwoFactorAuth     bool              `json:"two_factor_auth"`
	TFASecret         *string           `json:"-"` // Nullable; set on first 2FA enrollment
	OpenAPI           bool              `json:"open_api"`
	OpenAPIAppkey     *string           `json:"-"`
	SSOToken          *string           `json:"-"`
	ResetToken        *string           `json:"-"`
	ResetTokenExpire  *time.Time        `json:"-"`
	SessionKeys       []string          `json:"-"` // Ordered, append-only until revocation
	CreateTime        time.Time         `json:"create_time"`
	LastLogin         *time.Time        `json:"last_login"`
}

// IsSuperAdmin returns true for the super-admin role.
func (u *User) IsSuperAdmin() bool {
	return u.AdminType == SuperAdmin
}

// IsAdminRole returns true for admin and super-admin roles.
func (u *User) IsAdminRole() bool {
	return u.AdminType == Admin || u.AdminType == SuperAdmin
}

// CanMgmtAllProblem returns true if the user may manage problems they did
// not create.
func (u *User) CanMgmtAllProblem() bool {
	return u.ProblemPermission == PermAll
}

// IsContestAdmin returns true if the user created the contest, is listed
// as one of its delegated managers, or is a super admin.
func (u *User) IsContestAdmin(c *Contest) bool {
	if u.IsSuperAdmin() {
		return true
	}
	if c.CreatedBy == u.ID {
		return true
	}
	return slices.Contains(c.AdminIDs, u.ID)
}

// HasSessionKey reports whether key is registered for this user.
func (u *User) HasSessionKey(key string) bool {
	return slices.Contains(u.SessionKeys, key)
}
