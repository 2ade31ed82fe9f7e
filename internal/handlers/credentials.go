// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"openjudge/internal/credential"
	"openjudge/internal/response"
)

// Credentials groups password-reset, SSO and API-key handlers.
type Credentials struct {
	creds *credential.Service
}

// NewCredentials creates the Credentials handler group.
func NewCredentials(creds *credential.Service) *Credentials {
	return &Credentials{creds: creds}
}

type applyResetRequest struct {
	Email string `json:"email"`
}

// ApplyResetPassword requests a password-reset token, delivered out of
// band. Logged-in callers are refused; they can change their password
// directly.
func (h *Credentials) ApplyResetPassword(w http.ResponseWriter, r *http.Request) {
	if principal(r) != nil {
		response.Error(w, "You have already logged in, are you kidding me? ")
		return
	}

	var req applyResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		response.Error(w, msg)
		return
	}

	if err := h.creds.ApplyPasswordReset(r.Context(), req.Email); err != nil {
		response.Err(w, err)
		return
	}
	response.Succeeded(w)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword redeems a reset token for a new password.
func (h *Credentials) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		response.Error(w, msg)
		return
	}

	if err := h.creds.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		response.Err(w, err)
		return
	}
	response.Succeeded(w)
}

// SSOIssue assigns a fresh SSO token to the caller.
func (h *Credentials) SSOIssue(w http.ResponseWriter, r *http.Request) {
	token, err := h.creds.IssueSSOToken(r.Context(), principal(r))
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, map[string]string{"token": token})
}

type ssoVerifyRequest struct {
	Token string `json:"token"`
}

// SSOVerify exchanges an SSO token for the owning account's public
// identity. Serves external services, so it is mounted outside the CSRF
// group.
func (h *Credentials) SSOVerify(w http.ResponseWriter, r *http.Request) {
	var req ssoVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.creds.RedeemSSOToken(r.Context(), req.Token)
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, identity)
}

// Appkey regenerates the caller's API key, invalidating the previous one.
func (h *Credentials) Appkey(w http.ResponseWriter, r *http.Request) {
	appkey, err := h.creds.RegenerateAppkey(r.Context(), principal(r))
	if err != nil {
		response.Err(w, err)
		return
	}
	response.Success(w, map[string]string{"appkey": appkey})
}
