// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"openjudge/internal/credential"
	"openjudge/internal/mail"
	"openjudge/internal/middleware"
	"openjudge/internal/models"
	"openjudge/internal/store"
)

func newAccountFixture(t *testing.T) (*Account, *store.UserStore) {
	t.Helper()

	db := testDB(t)
	users := store.NewUserStore(db)
	creds := credential.NewService(users, mail.LogDispatcher{}, "OpenJudge", "http://localhost:8080")

	t.Cleanup(func() {
		cleanUsers(t, db,
			"acct-self@handler-test.local",
			"acct-other@handler-test.local",
			"acct-rebound@handler-test.local")
	})
	return NewAccount(users, creds), users
}

func createAccount(t *testing.T, users *store.UserStore, name, email string) *models.User {
	t.Helper()
	u, err := users.Create(context.Background(), name, email, "secret-pass")
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return u
}

func getProfile(h *Account, target string, me *models.User) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if me != nil {
		r = r.WithContext(middleware.WithPrincipal(r.Context(), me))
	}
	w := httptest.NewRecorder()
	h.Profile(w, r)
	return w
}

func TestProfileViews(t *testing.T) {
	h, users := newAccountFixture(t)

	self := createAccount(t, users, "acctself", "acct-self@handler-test.local")
	realName := "Ada L."
	users.UpdateProfile(context.Background(), self.ID, &realName, "/avatars/ada.png")
	self, _ = users.FindByID(context.Background(), self.ID)

	other := createAccount(t, users, "acctother", "acct-other@handler-test.local")

	// Anonymous caller without a username gets a null payload.
	w := getProfile(h, "/api/profile", nil)
	env := decodeEnvelope(t, w)
	if env.Error != nil || string(env.Data) != "null" {
		t.Errorf("anonymous self profile: %s", w.Body.String())
	}

	// Own profile includes private fields.
	w = getProfile(h, "/api/profile", self)
	env = decodeEnvelope(t, w)
	var selfView map[string]any
	if err := json.Unmarshal(env.Data, &selfView); err != nil {
		t.Fatalf("self view: %s", env.Data)
	}
	if selfView["email"] != "acct-self@handler-test.local" {
		t.Errorf("self view email = %v", selfView["email"])
	}
	if selfView["real_name"] != "Ada L." {
		t.Errorf("self view real_name = %v", selfView["real_name"])
	}

	// Someone else's profile is the public view: no email, no real name.
	w = getProfile(h, "/api/profile?username=acctself", other)
	env = decodeEnvelope(t, w)
	var publicView map[string]any
	if err := json.Unmarshal(env.Data, &publicView); err != nil {
		t.Fatalf("public view: %s", env.Data)
	}
	if _, leaked := publicView["email"]; leaked {
		t.Error("public view leaks email")
	}
	if _, leaked := publicView["real_name"]; leaked {
		t.Error("public view leaks real_name")
	}
	if publicView["username"] != "acctself" {
		t.Errorf("public view username = %v", publicView["username"])
	}

	// An admin gets the management view with role fields.
	admin := createAccount(t, users, "acctadmin", "acct-rebound@handler-test.local")
	admin.AdminType = models.Admin
	w = getProfile(h, "/api/profile?username=acctself", admin)
	env = decodeEnvelope(t, w)
	var adminView map[string]any
	if err := json.Unmarshal(env.Data, &adminView); err != nil {
		t.Fatalf("admin view: %s", env.Data)
	}
	if _, ok := adminView["problem_permission"]; !ok {
		t.Error("admin view missing problem_permission")
	}
	if _, ok := adminView["email"]; !ok {
		t.Error("admin view missing email")
	}

	// Unknown usernames read as absent.
	w = getProfile(h, "/api/profile?username=ghost", other)
	wantErrorData(t, w, "User does not exist")
}

func TestChangePassword(t *testing.T) {
	h, users := newAccountFixture(t)
	me := createAccount(t, users, "acctself", "acct-self@handler-test.local")

	post := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/change_password", strings.NewReader(body))
		r = r.WithContext(middleware.WithPrincipal(r.Context(), me))
		w := httptest.NewRecorder()
		h.ChangePassword(w, r)
		return w
	}

	w := post(`{"old_password":"wrong","new_password":"next-pass"}`)
	wantErrorData(t, w, "Invalid old password")

	w = post(`{"old_password":"secret-pass","new_password":"tiny"}`)
	wantErrorData(t, w, "Password is too short (min 6 characters).")

	w = post(`{"old_password":"secret-pass","new_password":"next-pass"}`)
	if env := decodeEnvelope(t, w); env.Error != nil {
		t.Fatalf("change: %s", w.Body.String())
	}

	after, _ := users.FindByID(context.Background(), me.ID)
	if !users.CheckPassword(after, "next-pass") {
		t.Error("new password not in effect")
	}
}

func TestChangeEmail(t *testing.T) {
	h, users := newAccountFixture(t)
	me := createAccount(t, users, "acctself", "acct-self@handler-test.local")
	createAccount(t, users, "acctother", "acct-other@handler-test.local")

	post := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/change_email", strings.NewReader(body))
		r = r.WithContext(middleware.WithPrincipal(r.Context(), me))
		w := httptest.NewRecorder()
		h.ChangeEmail(w, r)
		return w
	}

	w := post(`{"password":"wrong","new_email":"acct-rebound@handler-test.local"}`)
	wantErrorData(t, w, "Wrong password")

	w = post(`{"password":"secret-pass","new_email":"acct-other@handler-test.local"}`)
	wantErrorData(t, w, "The email is owned by other account")

	w = post(`{"password":"secret-pass","new_email":"acct-rebound@handler-test.local"}`)
	if env := decodeEnvelope(t, w); env.Error != nil {
		t.Fatalf("change: %s", w.Body.String())
	}

	after, _ := users.FindByID(context.Background(), me.ID)
	if after.Email != "acct-rebound@handler-test.local" {
		t.Errorf("email = %q", after.Email)
	}
}
