// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"openjudge/internal/models"
	"openjudge/internal/session"
	"openjudge/internal/store"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// principalKey is the context key for the authenticated user.
	principalKey contextKey = "principal"

	// sessionIDKey is the context key for the request's session identifier.
	sessionIDKey contextKey = "session_id"

	// sessionDataKey is the context key for the session payload.
	sessionDataKey contextKey = "session_data"

	// apiAuthKey marks requests authenticated by API key rather than a
	// browser session. Such requests bypass CSRF validation.
	apiAuthKey contextKey = "api_auth"
)

// LoadSession resolves the session cookie to a session payload and loads
// the owning user from the database, storing both in the request context.
// This middleware does NOT enforce authentication — anonymous requests
// pass through with no principal.
func LoadSession(sessions *session.Store, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, data, err := sessions.FromRequest(r.Context(), r)
			if err != nil || data == nil {
				// Treat load failures as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(r.Context(), data.UserID)
			if err != nil || user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, user)
			ctx = context.WithValue(ctx, sessionIDKey, id)
			ctx = context.WithValue(ctx, sessionDataKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyAuth authenticates requests carrying an AppKey header. The key
// must belong to a non-disabled user with the OpenAPI flag on; anything
// else falls through silently to cookie auth. Requests authenticated this
// way are exempt from CSRF validation.
func APIKeyAuth(users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			appkey := r.Header.Get("AppKey")
			if appkey == "" || PrincipalFromCtx(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByAppkey(r.Context(), appkey)
			if err != nil || user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, user)
			ctx = context.WithValue(ctx, apiAuthKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromCtx extracts the authenticated user from the request
// context. Returns nil for anonymous requests.
func PrincipalFromCtx(ctx context.Context) *models.User {
	user, _ := ctx.Value(principalKey).(*models.User)
	return user
}

// SessionIDFromCtx extracts the request's session identifier, or "".
func SessionIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// SessionFromCtx extracts the session payload loaded for this request.
// Returns nil for anonymous or API-key requests.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(sessionDataKey).(*session.Data)
	return data
}

// IsAPIKeyAuth reports whether the request authenticated via AppKey.
func IsAPIKeyAuth(ctx context.Context) bool {
	v, _ := ctx.Value(apiAuthKey).(bool)
	return v
}

// WithPrincipal returns a context carrying the given user. Used by tests
// and by handlers that re-resolve the principal.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}

// WithSession returns a context carrying a session identifier and payload.
func WithSession(ctx context.Context, id string, data *session.Data) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, id)
	return context.WithValue(ctx, sessionDataKey, data)
}
