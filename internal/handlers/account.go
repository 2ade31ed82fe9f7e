// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"openjudge/internal/credential"
	"openjudge/internal/response"
	"openjudge/internal/store"
)

// Account groups profile and account-security handlers. All routes but
// the profile read sit behind the Authenticated guard.
type Account struct {
	users *store.UserStore
	creds *credential.Service
}

// NewAccount creates the Account handler group.
func NewAccount(users *store.UserStore, creds *credential.Service) *Account {
	return &Account{users: users, creds: creds}
}

// Profile returns a user profile. With a username query parameter it
// serves the public view of that (enabled) account; without one it
// serves the caller's own view, which includes fields like real_name the
// public view omits. Anonymous callers with no username get a null
// payload, not an error.
func (h *Account) Profile(w http.ResponseWriter, r *http.Request) {
	me := principal(r)

	username := r.URL.Query().Get("username")
	if username == "" {
		if me == nil {
			response.Success(w, nil)
			return
		}
		response.Success(w, me.SelfView())
		return
	}

	user, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if user == nil || user.IsDisabled {
		response.Error(w, "User does not exist")
		return
	}

	// Admins looking at someone else get the management view.
	if me != nil && me.IsAdminRole() {
		response.Success(w, user.AdminView())
		return
	}
	response.Success(w, user.PublicView())
}

type profileUpdateRequest struct {
	RealName *string `json:"real_name,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// ProfileUpdate edits the caller's own profile fields.
func (h *Account) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	me := principal(r)

	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.RealName != nil {
		me.RealName = req.RealName
	}
	if req.Avatar != nil {
		me.Avatar = *req.Avatar
	}
	if err := h.users.UpdateProfile(r.Context(), me.ID, me.RealName, me.Avatar); err != nil {
		response.ServerError(w, err)
		return
	}
	response.Success(w, me.SelfView())
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	TFACode     string `json:"tfa_code,omitempty"`
}

// ChangePassword rotates the caller's password after reauthentication
// and, for 2FA accounts, a one-time-code step-up.
func (h *Account) ChangePassword(w http.ResponseWriter, r *http.Request) {
	me := principal(r)

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		response.Error(w, msg)
		return
	}

	if !h.users.CheckPassword(me, req.OldPassword) {
		response.Error(w, "Invalid old password")
		return
	}
	if me.TwoFactorAuth {
		if req.TFACode == "" {
			response.Error(w, "tfa_required")
			return
		}
		if !h.creds.ValidateCode(me, req.TFACode) {
			response.Error(w, "Invalid two factor verification code")
			return
		}
	}

	if err := h.users.UpdatePassword(r.Context(), me.ID, req.NewPassword); err != nil {
		response.ServerError(w, err)
		return
	}
	response.Succeeded(w)
}

type changeEmailRequest struct {
	Password string `json:"password"`
	NewEmail string `json:"new_email"`
	TFACode  string `json:"tfa_code,omitempty"`
}

// ChangeEmail rebinds the caller's email after reauthentication and, for
// 2FA accounts, a one-time-code step-up.
func (h *Account) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	me := principal(r)

	var req changeEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateEmail(req.NewEmail); msg != "" {
		response.Error(w, msg)
		return
	}

	if !h.users.CheckPassword(me, req.Password) {
		response.Error(w, "Wrong password")
		return
	}
	if me.TwoFactorAuth {
		if req.TFACode == "" {
			response.Error(w, "tfa_required")
			return
		}
		if !h.creds.ValidateCode(me, req.TFACode) {
			response.Error(w, "Invalid two factor verification code")
			return
		}
	}

	taken, err := h.users.EmailExists(r.Context(), req.NewEmail)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if taken {
		response.Error(w, "The email is owned by other account")
		return
	}

	if err := h.users.UpdateEmail(r.Context(), me.ID, req.NewEmail); err != nil {
		response.ServerError(w, err)
		return
	}
	response.Succeeded(w)
}

// TwoFactorEnroll returns the caller's TOTP enrollment material (secret
// plus QR code). The secret is stable across calls until 2FA is enabled.
func (h *Account) TwoFactorEnroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.creds.StartTwoFactorEnrollment(r.Context(), principal(r))
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, enrollment)
}

type tfaCodeRequest struct {
	Code string `json:"code"`
}

// TwoFactorEnable turns on 2FA after verifying a current code.
func (h *Account) TwoFactorEnable(w http.ResponseWriter, r *http.Request) {
	var req tfaCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.creds.EnableTwoFactor(r.Context(), principal(r), req.Code); err != nil {
		response.Err(w, err)
		return
	}
	response.Succeeded(w)
}

// TwoFactorDisable turns off 2FA after verifying a current code.
func (h *Account) TwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	var req tfaCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.creds.DisableTwoFactor(r.Context(), principal(r), req.Code); err != nil {
		response.Err(w, err)
		return
	}
	response.Succeeded(w)
}
