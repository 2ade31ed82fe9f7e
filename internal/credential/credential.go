// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

// Package credential issues and verifies the ephemeral credentials tied
// to an account: password-reset tokens, SSO tokens, API keys and TOTP
// one-time codes. All of these live in single slots on the user row;
// issuing overwrites the previous value with last-write-wins semantics.
package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"openjudge/internal/errs"
	"openjudge/internal/mail"
	"openjudge/internal/models"
	"openjudge/internal/store"
)

// resetTokenWindow is both the validity of a reset token and the cooldown
// between issuances.
const resetTokenWindow = 20 * time.Minute

// tokenBytes is the byte length of opaque tokens (32 hex chars).
const tokenBytes = 16

// Service manages credential lifecycles for accounts.
type Service struct {
	users *store.UserStore
	mail  mail.Dispatcher

	siteName string
	baseURL  string

	// Overridable for tests.
	now       func() time.Time
	randToken func() string
}

// NewService creates the credential service. siteName labels TOTP
// enrollments and outbound mail; baseURL builds reset links.
func NewService(users *store.UserStore, dispatcher mail.Dispatcher, siteName, baseURL string) *Service {
	return &Service{
		users:     users,
		mail:      dispatcher,
		siteName:  siteName,
		baseURL:   baseURL,
		now:       time.Now,
		randToken: randToken,
	}
}

// randToken generates an opaque random credential string.
func randToken() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process cannot mint credentials
		// safely at all.
		panic(fmt.Sprintf("credential: random source failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// ApplyPasswordReset issues a fresh reset token for the account with the
// given email and dispatches it out of band. While a previous token still
// has time remaining, reissue is refused.
func (s *Service) ApplyPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return errs.NotFound("User does not exist")
	}

	if user.ResetTokenExpire != nil {
		remaining := user.ResetTokenExpire.Sub(s.now())
		if remaining > 0 && remaining < resetTokenWindow {
			return errs.RateLimited("You can only reset password once per 20 minutes")
		}
	}

	token := s.randToken()
	expire := s.now().Add(resetTokenWindow)
	if err := s.users.SaveResetToken(ctx, user.ID, token, expire); err != nil {
		return err
	}

	// Fire and forget: delivery failures are logged, never surfaced to
	// the requester.
	link := fmt.Sprintf("%s/reset-password/%s", s.baseURL, token)
	body := fmt.Sprintf(
		"Hello %s,\n\nSomebody requested a password reset for your %s account.\n"+
			"Follow this link within 20 minutes to set a new password:\n\n%s\n\n"+
			"If this wasn't you, you can ignore this message.\n",
		user.Username, s.siteName, link)
	go func() {
		if err := s.mail.Send(context.Background(), user.Email, "Reset your password", body); err != nil {
			slog.Error("reset mail dispatch failed", "error", err, "user", user.Username)
		}
	}()

	return nil
}

// ResetPassword redeems a reset token. On success the token slot is
// cleared, the new password takes effect and two-factor auth is disabled
// as a recovery measure.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return errs.TokenInvalid("Token does not exist")
	}
	if user.ResetTokenExpire == nil || user.ResetTokenExpire.Before(s.now()) {
		return errs.TokenExpired("Token has expired")
	}
	return s.users.RedeemResetToken(ctx, user.ID, newPassword)
}

// IssueSSOToken assigns a fresh SSO token to the user, overwriting any
// previous value. The token has no expiry and is not single-use; any
// holder can redeem it until the next issuance.
func (s *Service) IssueSSOToken(ctx context.Context, user *models.User) (string, error) {
	token := s.randToken()
	if err := s.users.SetSSOToken(ctx, user.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// SSOIdentity is the public identity exchanged for an SSO token.
type SSOIdentity struct {
	Username  string           `json:"username"`
	Avatar    string           `json:"avatar"`
	AdminType models.AdminType `json:"admin_type"`
}

// RedeemSSOToken exchanges a token for the owning account's public
// identity. Redemption does not invalidate the token.
func (s *Service) RedeemSSOToken(ctx context.Context, token string) (*SSOIdentity, error) {
	user, err := s.users.FindBySSOToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("User does not exist")
	}
	return &SSOIdentity{
		Username:  user.Username,
		Avatar:    user.Avatar,
		AdminType: user.AdminType,
	}, nil
}

// RegenerateAppkey mints a fresh API key for the user, immediately
// invalidating the previous one. Requires the account's OpenAPI opt-in.
func (s *Service) RegenerateAppkey(ctx context.Context, user *models.User) (string, error) {
	if !user.OpenAPI {
		return "", errs.PermissionDenied("OpenAPI function is turned off for you")
	}
	appkey := s.randToken()
	if err := s.users.SetAppkey(ctx, user.ID, appkey); err != nil {
		return "", err
	}
	return appkey, nil
}
