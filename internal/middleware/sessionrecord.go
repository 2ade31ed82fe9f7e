// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"openjudge/internal/session"
)

// SessionRecord stamps client metadata (IP, user agent, last activity)
// into the session payload on every authenticated request and registers
// the session key with the user's session registry on first sight.
// Failures here never block the request.
func SessionRecord(sessions *session.Store, registry *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := PrincipalFromCtx(r.Context())
			id := SessionIDFromCtx(r.Context())
			data := SessionFromCtx(r.Context())

			if user != nil && id != "" && data != nil {
				data.IP = clientIP(r)
				data.UserAgent = r.UserAgent()
				data.LastActivity = time.Now()

				if err := sessions.Update(r.Context(), id, data); err != nil {
					slog.Warn("session record update failed", "error", err)
				}
				if err := registry.Record(r.Context(), user, id); err != nil {
					slog.Warn("session key registration failed", "error", err)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
