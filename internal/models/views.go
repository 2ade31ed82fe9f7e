package models

import "time"

// Explicit per-caller views of a user. Different callers see different
// subsets; in particular real_name is only exposed to the account owner
// and to admins.

// PublicUserView is what any visitor may see about an account.
type PublicUserView struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Avatar     string    `json:"avatar"`
	AdminType  AdminType `json:"admin_type"`
	CreateTime time.Time `json:"create_time"`
}

// SelfUserView is what an account sees about itself.
type SelfUserView struct {
	PublicUserView
	Email         string  `json:"email"`
	RealName      *string `json:"real_name"`
	TwoFactorAuth bool    `json:"two_factor_auth"`
	OpenAPI       bool    `json:"open_api"`
}

// AdminUserView is the management view, including moderation fields.
type AdminUserView struct {
	SelfUserView
	ProblemPermission ProblemPermission `json:"problem_permission"`
	IsDisabled        bool              `json:"is_disabled"`
	LastLogin         *time.Time        `json:"last_login"`
}

// PublicView maps a user onto the anonymous-visitor subset.
func (u *User) PublicView() PublicUserView {
	return PublicUserView{
		ID:         u.ID.String(),
		Username:   u.Username,
		Avatar:     u.Avatar,
		AdminType:  u.AdminType,
		CreateTime: u.CreateTime,
	}
}

// SelfView maps a user onto the owner-visible subset.
func (u *User) SelfView() SelfUserView {
	return SelfUserView{
		PublicUserView: u.PublicView(),
		Email:          u.Email,
		RealName:       u.RealName,
		TwoFactorAuth:  u.TwoFactorAuth,
		OpenAPI:        u.OpenAPI,
	}
}

// AdminView maps a user onto the management subset.
func (u *User) AdminView() AdminUserView {
	return AdminUserView{
		SelfUserView:      u.SelfView(),
		ProblemPermission: u.ProblemPermission,
		IsDisabled:        u.IsDisabled,
		LastLogin:         u.LastLogin,
	}
}
