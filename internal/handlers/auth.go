package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"openjudge/internal/credential"
	"openjudge/internal/middleware"
	"openjudge/internal/models"
	"openjudge/internal/response"
	"openjudge/internal/session"
	"openjudge/internal/store"
)

// Auth groups login, logout and registration handlers.
type Auth struct {
	users    *store.UserStore
	sessions *session.Store
	registry *session.Registry
	creds    *credential.Service
}

// NewAuth creates the Auth handler group.
func NewAuth(users *store.UserStore, sessions *session.Store, registry *session.Registry, creds *credential.Service) *Auth {
	return &Auth{users: users, sessions: sessions, registry: registry, creds: creds}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TFACode  string `json:"tfa_code,omitempty"`
}

// Login authenticates a user by password, with a TOTP step-up for
// accounts that require two-factor auth. Failure messages deliberately do
// not distinguish a wrong username from a wrong password.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if user == nil || !h.users.CheckPassword(user, req.Password) {
		response.Error(w, "Invalid username or password")
		return
	}
	if user.IsDisabled {
		response.Error(w, "Your account has been disabled")
		return
	}

	if user.TwoFactorAuth {
		if req.TFACode == "" {
			response.Error(w, "tfa_required")
			return
		}
		if !h.creds.ValidateCode(user, req.TFACode) {
			response.Error(w, "Invalid two factor verification code")
			return
		}
	}

	id, err := h.sessions.Create(r.Context(), w, &session.Data{
		UserID:       user.ID,
		Username:     user.Username,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
		LastActivity: time.Now(),
	})
	if err != nil {
		response.ServerError(w, err)
		return
	}

	if err := h.registry.Record(r.Context(), user, id); err != nil {
		slog.Warn("session registration on login failed", "error", err)
	}
	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("last login stamp failed", "error", err)
	}

	response.Succeeded(w)
}

// Logout destroys the current session. The registry entry is pruned
// lazily on the next session listing.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		response.ServerError(w, err)
		return
	}
	response.Success(w, nil)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Register creates a new regular account.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if msg := validateUsername(req.Username); msg != "" {
		response.Error(w, msg)
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		response.Error(w, msg)
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		response.Error(w, msg)
		return
	}

	taken, err := h.users.UsernameExists(r.Context(), req.Username)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if taken {
		response.Error(w, "Username already exists")
		return
	}
	taken, err = h.users.EmailExists(r.Context(), req.Email)
	if err != nil {
		response.ServerError(w, err)
		return
	}
	if taken {
		response.Error(w, "Email already exists")
		return
	}

	if _, err := h.users.Create(r.Context(), req.Username, req.Email, req.Password); err != nil {
		response.ServerError(w, err)
		return
	}
	response.Succeeded(w)
}

type usernameOrEmailRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// CheckUsernameOrEmail probes whether a username or email is taken.
// true means already in use.
func (h *Auth) CheckUsernameOrEmail(w http.ResponseWriter, r *http.Request) {
	var req usernameOrEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := map[string]bool{"username": false, "email": false}
	if req.Username != "" {
		taken, err := h.users.UsernameExists(r.Context(), req.Username)
		if err != nil {
			response.ServerError(w, err)
			return
		}
		result["username"] = taken
	}
	if req.Email != "" {
		taken, err := h.users.EmailExists(r.Context(), req.Email)
		if err != nil {
			response.ServerError(w, err)
			return
		}
		result["email"] = taken
	}
	response.Success(w, result)
}

type tfaRequiredRequest struct {
	Username string `json:"username"`
}

// TFARequiredCheck reports whether login for the given username demands a
// one-time code. An unknown username resolves to false rather than an
// error, so the probe cannot be used to discover accounts.
func (h *Auth) TFARequiredCheck(w http.ResponseWriter, r *http.Request) {
	var req tfaRequiredRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := false
	if req.Username != "" {
		user, err := h.users.FindByUsername(r.Context(), req.Username)
		if err != nil {
			response.ServerError(w, err)
			return
		}
		if user != nil {
			result = user.TwoFactorAuth
		}
	}
	response.Success(w, map[string]bool{"result": result})
}

// principal is a small convenience used across handler groups.
func principal(r *http.Request) *models.User {
	return middleware.PrincipalFromCtx(r.Context())
}
