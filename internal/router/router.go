// Package router sets up all HTTP routes and middleware chains for the
// judge API. Routes are grouped by the guard predicate they require.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"openjudge/internal/guard"
	"openjudge/internal/handlers"
	"openjudge/internal/middleware"
	"openjudge/internal/session"
	"openjudge/internal/store"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(
	sessions *session.Store,
	registry *session.Registry,
	users *store.UserStore,
	auth *handlers.Auth,
	account *handlers.Account,
	creds *handlers.Credentials,
	sessionAPI *handlers.Sessions,
	contest *handlers.Contest,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.LoadSession(sessions, users))
	r.Use(middleware.APIKeyAuth(users))
	r.Use(middleware.SessionRecord(sessions, registry))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Credential-sensitive endpoints get a tighter rate limit.
	loginLimiter := middleware.NewRateLimiter(30, 10*time.Minute)

	r.Route("/api", func(r chi.Router) {
		// SSO verification serves external services: no CSRF, no session.
		r.Post("/sso", creds.SSOVerify)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CSRF)

			// Anonymous endpoints.
			r.Group(func(r chi.Router) {
				r.Use(loginLimiter.Middleware)
				r.Post("/login", auth.Login)
				r.Post("/register", auth.Register)
				r.Post("/apply_reset_password", creds.ApplyResetPassword)
				r.Post("/reset_password", creds.ResetPassword)
			})
			r.Get("/logout", auth.Logout)
			r.Post("/check_username_or_email", auth.CheckUsernameOrEmail)
			r.Post("/tfa_required", auth.TFARequiredCheck)
			r.Get("/profile", account.Profile)

			// Contest reads gate themselves through the access
			// controller, which handles anonymous callers.
			r.Get("/contest", contest.Details)
			r.Get("/contest/problems", contest.Problems)
			r.Get("/contest/ranks", contest.Ranks)
			r.Get("/contest/submissions", contest.Submissions)

			// Logged-in endpoints.
			r.Group(func(r chi.Router) {
				r.Use(guard.Require(guard.Authenticated))
				r.Put("/profile", account.ProfileUpdate)
				r.Post("/change_password", account.ChangePassword)
				r.Post("/change_email", account.ChangeEmail)
				r.Get("/two_factor_auth", account.TwoFactorEnroll)
				r.Post("/two_factor_auth", account.TwoFactorEnable)
				r.Delete("/two_factor_auth", account.TwoFactorDisable)
				r.Get("/sessions", sessionAPI.List)
				r.Delete("/sessions", sessionAPI.Revoke)
				r.Get("/sso", creds.SSOIssue)
				r.Post("/open_api_appkey", creds.Appkey)
				r.Post("/contest/password", contest.SubmitPassword)
			})

			// Admin endpoints.
			r.Group(func(r chi.Router) {
				r.Use(guard.Require(guard.AdminRoleRequired))
				r.Post("/admin/contest/signed_password", contest.MintSignedPassword)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
