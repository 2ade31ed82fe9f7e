// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"openjudge/internal/errs"
	"openjudge/internal/models"
)

// KeyStore persists the per-user list of session identifiers. Implemented
// by store.UserStore on top of the users.session_keys array.
type KeyStore interface {
	// AppendSessionKey adds key to the user's set if absent. The
	// implementation must be atomic; two sessions opening concurrently
	// for the same user must both end up registered.
	AppendSessionKey(ctx context.Context, userID uuid.UUID, key string) error
	// SetSessionKeys replaces the user's set wholesale (used to persist
	// a batched prune).
	SetSessionKeys(ctx context.Context, userID uuid.UUID, keys []string) error
	// RemoveSessionKey removes a single key from the user's set.
	RemoveSessionKey(ctx context.Context, userID uuid.UUID, key string) error
}

// Entry is one row of the session listing. LastActivity is serialized as
// a timestamp string; CurrentSession is only present on the entry backing
// the request that asked for the listing.
type Entry struct {
	CurrentSession bool   `json:"current_session,omitempty"`
	IP             string `json:"ip"`
	UserAgent      string `json:"user_agent"`
	LastActivity   string `json:"last_activity"`
	SessionKey     string `json:"session_key"`
}

// Registry tracks, enumerates and revokes the active sessions of a user.
type Registry struct {
	sessions *Store
	keys     KeyStore
}

// NewRegistry creates a session registry over the given backing stores.
func NewRegistry(sessions *Store, keys KeyStore) *Registry {
	return &Registry{sessions: sessions, keys: keys}
}

// Record registers a session identifier for the user on first observed
// activity. Present identifiers are left untouched.
func (r *Registry) Record(ctx context.Context, user *models.User, key string) error {
	if user.HasSessionKey(key) {
		return nil
	}
	if err := r.keys.AppendSessionKey(ctx, user.ID, key); err != nil {
		return err
	}
	user.SessionKeys = append(user.SessionKeys, key)
	return nil
}

// List enumerates the user's sessions. Identifiers whose backing entry
// has expired are pruned from the user's set; the prune is persisted once
// if anything was removed, so repeat reads never see the dead key again.
func (r *Registry) List(ctx context.Context, user *models.User, currentKey string) ([]Entry, error) {
	result := make([]Entry, 0, len(user.SessionKeys))
	live := user.SessionKeys[:0:0]
	pruned := false

	for _, key := range user.SessionKeys {
		data, err := r.sessions.GetByID(ctx, key)
		if err != nil {
			return nil, err
		}
		if data == nil {
			// Entry expired or was deleted out of band.
			pruned = true
			continue
		}
		live = append(live, key)
		result = append(result, Entry{
			CurrentSession: key == currentKey,
			IP:             data.IP,
			UserAgent:      data.UserAgent,
			LastActivity:   data.LastActivity.Format(time.RFC3339),
			SessionKey:     key,
		})
	}

	if pruned {
		if err := r.keys.SetSessionKeys(ctx, user.ID, live); err != nil {
			return nil, err
		}
		user.SessionKeys = live
	}

	return result, nil
}

// Revoke deletes the backing store entry for the identifier and removes
// it from the user's set. An identifier the user does not own fails with
// "Invalid session_key" without touching the store.
func (r *Registry) Revoke(ctx context.Context, user *models.User, key string) error {
	if !user.HasSessionKey(key) {
		return errs.Validation("Invalid session_key")
	}
	if err := r.sessions.Delete(ctx, key); err != nil {
		return err
	}
	if err := r.keys.RemoveSessionKey(ctx, user.ID, key); err != nil {
		return err
	}
	live := make([]string, 0, len(user.SessionKeys)-1)
	for _, k := range user.SessionKeys {
		if k != key {
			live = append(live, k)
		}
	}
	user.SessionKeys = live
	return nil
}
