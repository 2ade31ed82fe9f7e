// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package credential

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"openjudge/internal/errs"
	"openjudge/internal/models"
)

// Enrollment is what a user needs to configure an authenticator app: the
// shared secret and a QR code encoding the otpauth:// URI.
type Enrollment struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qrcode"` // base64-encoded PNG
	AuthURL string `json:"auth_url"`
}

// StartTwoFactorEnrollment returns the user's TOTP enrollment material.
// The secret is generated once, on the first enrollment attempt, and kept
// stable afterwards; re-requesting the QR code never rotates a secret a
// user may already have scanned.
func (s *Service) StartTwoFactorEnrollment(ctx context.Context, user *models.User) (*Enrollment, error) {
	if user.TwoFactorAuth {
		return nil, errs.Conflict("2FA is already turned on")
	}

	var secret string
	if user.TFASecret != nil {
		secret = *user.TFASecret
	} else {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      s.siteName,
			AccountName: user.Username,
		})
		if err != nil {
			return nil, fmt.Errorf("totp generate: %w", err)
		}
		secret = key.Secret()
		if err := s.users.SetTFASecret(ctx, user.ID, secret); err != nil {
			return nil, err
		}
		user.TFASecret = &secret
	}

	authURL := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		s.siteName, user.Username, secret, s.siteName)
	png, err := qrcode.Encode(authURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	return &Enrollment{
		Secret:  secret,
		QRCode:  base64.StdEncoding.EncodeToString(png),
		AuthURL: authURL,
	}, nil
}

// EnableTwoFactor turns on the 2FA requirement after verifying a current
// one-time code against the enrolled secret. An invalid code changes
// nothing.
func (s *Service) EnableTwoFactor(ctx context.Context, user *models.User, code string) error {
	if user.TwoFactorAuth {
		return errs.Conflict("2FA is already turned on")
	}
	if err := s.checkCode(user, code); err != nil {
		return err
	}
	if err := s.users.SetTwoFactorAuth(ctx, user.ID, true); err != nil {
		return err
	}
	user.TwoFactorAuth = true
	return nil
}

// DisableTwoFactor turns off the 2FA requirement. Like enabling, it
// demands a currently valid code; an invalid code changes nothing. The
// secret is retained so a later re-enable keeps working authenticators.
func (s *Service) DisableTwoFactor(ctx context.Context, user *models.User, code string) error {
	if !user.TwoFactorAuth {
		return errs.Conflict("2FA is already turned off")
	}
	if err := s.checkCode(user, code); err != nil {
		return err
	}
	if err := s.users.SetTwoFactorAuth(ctx, user.ID, false); err != nil {
		return err
	}
	user.TwoFactorAuth = false
	return nil
}

// ValidateCode checks a one-time code against the user's secret. Used by
// the login and reauthentication step-up flows.
func (s *Service) ValidateCode(user *models.User, code string) bool {
	if user.TFASecret == nil {
		return false
	}
	return totp.Validate(code, *user.TFASecret)
}

func (s *Service) checkCode(user *models.User, code string) error {
	if !s.ValidateCode(user, code) {
		return errs.TokenInvalid("Invalid two factor verification code")
	}
	return nil
}
