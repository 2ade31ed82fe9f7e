// Package session provides Valkey-backed HTTP session management and the
// per-user session registry. Sessions are identified by a secure cookie
// and stored as JSON in Valkey with automatic TTL expiry; an entry can
// therefore silently disappear, which the registry treats as a revoked
// session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "oj_session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 14 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the session payload stored in Valkey: the authenticated
// user's identity, client metadata recorded per request, and the contest
// passwords this session has submitted successfully. Accepted passwords
// are re-verified against the contest secret on every access check, so a
// rotated contest password invalidates them without touching sessions.
type Data struct {
	UserID           uuid.UUID        `json:"user_id"`
	Username         string           `json:"username"`
	IP               string           `json:"ip"`
	UserAgent        string           `json:"user_agent"`
	LastActivity     time.Time        `json:"last_activity"`
	ContestPasswords map[int64]string `json:"contest_passwords,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ContestPassword returns the password this session submitted for the
// given contest, or "" if none was submitted.
func (d *Data) ContestPassword(contestID int64) string {
	if d == nil || d.ContestPasswords == nil {
		return ""
	}
	return d.ContestPasswords[contestID]
}

// SetContestPassword remembers an accepted contest password.
func (d *Data) SetContestPassword(contestID int64, password string) {
	if d.ContestPasswords == nil {
		d.ContestPasswords = make(map[int64]string)
	}
	d.ContestPasswords[contestID] = password
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure controls the Secure attribute on the session cookie.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// FromRequest retrieves the session ID and data for the request cookie.
// Returns ("", nil, nil) if no valid session exists.
func (s *Store) FromRequest(ctx context.Context, r *http.Request) (string, *Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", nil, nil // No cookie = no session (not an error)
	}

	data, err := s.GetByID(ctx, cookie.Value)
	if err != nil {
		return "", nil, err
	}
	if data == nil {
		return "", nil, nil
	}
	return cookie.Value, data, nil
}

// GetByID retrieves session data for a raw session identifier. Returns
// nil if the entry expired or never existed.
func (s *Store) GetByID(ctx context.Context, id string) (*Data, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Update replaces the session data in Valkey without changing the session
// ID. Resets the TTL.
func (s *Store) Update(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session update: %w", err)
	}

	return nil
}

// Delete removes a session entry by identifier.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Destroy removes the request's own session from Valkey and clears the
// cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	s.client.Del(ctx, keyPrefix+cookie.Value)

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
