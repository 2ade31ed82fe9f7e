// Package store provides database access methods for the judge's account
// and contest entities. Each store struct wraps a *sql.DB and exposes
// typed query methods.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"openjudge/internal/models"
)

// typeMap adapts pgx array codecs to database/sql scanning (text[] columns).
var typeMap = pgtype.NewMap()

// userColumns is the canonical select list scanned by scanUser.
const userColumns = `id, username, email, password_hash, admin_type, problem_permission,
	real_name, avatar, is_disabled, two_factor_auth, tfa_secret,
	open_api, open_api_appkey, sso_token,
	reset_password_token, reset_password_token_expire_time,
	session_keys, create_time, last_login`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AdminType, &u.ProblemPermission,
		&u.RealName, &u.Avatar, &u.IsDisabled, &u.TwoFactorAuth, &u.TFASecret,
		&u.OpenAPI, &u.OpenAPIAppkey, &u.SSOToken,
		&u.ResetToken, &u.ResetTokenExpire,
		typeMap.SQLScanner(&u.SessionKeys), &u.CreateTime, &u.LastLogin,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) findBy(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findBy(ctx, "id = $1", id)
}

// FindByUsername retrieves a user by username, case-insensitively.
// Returns nil if not found.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findBy(ctx, "username = $1", strings.ToLower(username))
}

// FindByEmail retrieves a user by email, case-insensitively. Returns nil
// if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findBy(ctx, "email = $1", strings.ToLower(email))
}

// FindBySSOToken retrieves a user by their current SSO token.
func (s *UserStore) FindBySSOToken(ctx context.Context, token string) (*models.User, error) {
	return s.findBy(ctx, "sso_token = $1", token)
}

// FindByResetToken retrieves a user by their current reset-password token.
func (s *UserStore) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.findBy(ctx, "reset_password_token = $1", token)
}

// FindByAppkey retrieves a user for bearer-style API authentication. Only
// users with the OpenAPI opt-in flag and an enabled account match.
func (s *UserStore) FindByAppkey(ctx context.Context, appkey string) (*models.User, error) {
	return s.findBy(ctx, "open_api_appkey = $1 AND open_api = TRUE AND is_disabled = FALSE", appkey)
}

// UsernameExists reports whether the username is taken (case-insensitive).
func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,
		strings.ToLower(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return exists, nil
}

// EmailExists reports whether the email is taken (case-insensitive).
func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new regular user with a bcrypt-hashed password.
// Username and email are stored lowercased.
func (s *UserStore) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		strings.ToLower(username), strings.ToLower(email), string(hash))
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdatePassword replaces the user's password hash.
func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateEmail replaces the user's email address (lowercased).
func (s *UserStore) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = $1 WHERE id = $2`, strings.ToLower(email), id)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}

// UpdateProfile sets the caller-editable profile fields.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, realName *string, avatar string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET real_name = $1, avatar = $2 WHERE id = $3`, realName, avatar, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful authentication.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SaveResetToken overwrites the single reset-token slot.
func (s *UserStore) SaveResetToken(ctx context.Context, id uuid.UUID, token string, expire time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET reset_password_token = $1, reset_password_token_expire_time = $2
		WHERE id = $3`, token, expire, id)
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// RedeemResetToken clears the reset token, sets the new password and
// disables two-factor auth in a single statement. Disabling 2FA is a
// deliberate recovery measure: a user resetting their password cannot be
// assumed to still hold the second factor.
func (s *UserStore) RedeemResetToken(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET reset_password_token = NULL,
			reset_password_token_expire_time = NULL,
			two_factor_auth = FALSE,
			password_hash = $1
		WHERE id = $2`, string(hash), id)
	if err != nil {
		return fmt.Errorf("redeem reset token: %w", err)
	}
	return nil
}

// SetSSOToken overwrites the single SSO-token slot.
func (s *UserStore) SetSSOToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET sso_token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return fmt.Errorf("set sso token: %w", err)
	}
	return nil
}

// SetAppkey overwrites the API key, immediately invalidating the prior one.
func (s *UserStore) SetAppkey(ctx context.Context, id uuid.UUID, appkey string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET open_api_appkey = $1 WHERE id = $2`, appkey, id)
	if err != nil {
		return fmt.Errorf("set appkey: %w", err)
	}
	return nil
}

// SetTFASecret saves the TOTP secret (first 2FA enrollment only).
func (s *UserStore) SetTFASecret(ctx context.Context, id uuid.UUID, secret string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET tfa_secret = $1 WHERE id = $2`, secret, id)
	if err != nil {
		return fmt.Errorf("set tfa secret: %w", err)
	}
	return nil
}

// SetTwoFactorAuth toggles the 2FA required flag.
func (s *UserStore) SetTwoFactorAuth(ctx context.Context, id uuid.UUID, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET two_factor_auth = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("set two factor auth: %w", err)
	}
	return nil
}

// AppendSessionKey atomically appends key to the user's session set if it
// is not present. The guard lives in the WHERE clause, so two concurrent
// sessions registering for the same user cannot lose an entry.
func (s *UserStore) AppendSessionKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET session_keys = array_append(session_keys, $1)
		WHERE id = $2 AND NOT ($1 = ANY (session_keys))`, key, id)
	if err != nil {
		return fmt.Errorf("append session key: %w", err)
	}
	return nil
}

// SetSessionKeys replaces the user's session set wholesale.
func (s *UserStore) SetSessionKeys(ctx context.Context, id uuid.UUID, keys []string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET session_keys = $1 WHERE id = $2`, keys, id)
	if err != nil {
		return fmt.Errorf("set session keys: %w", err)
	}
	return nil
}

// RemoveSessionKey removes a single key from the user's session set.
func (s *UserStore) RemoveSessionKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET session_keys = array_remove(session_keys, $1) WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("remove session key: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
