// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"openjudge/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, "TestCreate", email, "testpass123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Username != "testcreate" {
		t.Errorf("username: got %q, want lowercased %q", user.Username, "testcreate")
	}
	if user.Email != email {
		t.Errorf("email: got %q, want %q", user.Email, email)
	}
	if user.AdminType != models.RegularUser {
		t.Errorf("admin type: got %q, want %q", user.AdminType, models.RegularUser)
	}
	if user.ProblemPermission != models.PermNone {
		t.Errorf("problem permission: got %q, want %q", user.ProblemPermission, models.PermNone)
	}
	if user.TwoFactorAuth {
		t.Error("expected two_factor_auth=false for new user")
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password must be stored as a hash")
	}
	if len(user.SessionKeys) != 0 {
		t.Errorf("expected empty session keys, got %v", user.SessionKeys)
	}
	if !s.CheckPassword(user, "testpass123") {
		t.Error("CheckPassword rejected the creation password")
	}
	if s.CheckPassword(user, "wrongpass") {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestUserStoreFindCaseInsensitive(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-find@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	// Not found case.
	user, err := s.FindByUsername(ctx, "testfind")
	if err != nil {
		t.Fatalf("FindByUsername (not found): %v", err)
	}
	if user != nil {
		t.Fatal("expected nil for unknown username")
	}

	created, err := s.Create(ctx, "TestFind", email, "testpass123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Lookup must ignore case on both username and email.
	user, err = s.FindByUsername(ctx, "TESTFIND")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Errorf("FindByUsername: got %+v", user)
	}

	user, err = s.FindByEmail(ctx, "TEST-FIND@store-test.local")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Errorf("FindByEmail: got %+v", user)
	}

	taken, err := s.UsernameExists(ctx, "TestFind")
	if err != nil || !taken {
		t.Errorf("UsernameExists = (%v, %v), want true", taken, err)
	}
	taken, err = s.EmailExists(ctx, email)
	if err != nil || !taken {
		t.Errorf("EmailExists = (%v, %v), want true", taken, err)
	}
}

func TestUserStoreResetTokenLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-reset@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, "TestReset", email, "oldpass123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Give the account an active second factor so redeem provably clears it.
	if err := s.SetTwoFactorAuth(ctx, user.ID, true); err != nil {
		t.Fatalf("SetTwoFactorAuth: %v", err)
	}

	expire := time.Now().Add(20 * time.Minute)
	if err := s.SaveResetToken(ctx, user.ID, "reset-token-abc", expire); err != nil {
		t.Fatalf("SaveResetToken: %v", err)
	}

	found, err := s.FindByResetToken(ctx, "reset-token-abc")
	if err != nil {
		t.Fatalf("FindByResetToken: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("FindByResetToken: got %+v", found)
	}
	if found.ResetTokenExpire == nil {
		t.Fatal("expire time not stored")
	}

	if err := s.RedeemResetToken(ctx, user.ID, "newpass123"); err != nil {
		t.Fatalf("RedeemResetToken: %v", err)
	}

	after, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if after.ResetToken != nil || after.ResetTokenExpire != nil {
		t.Error("reset token not cleared by redeem")
	}
	if after.TwoFactorAuth {
		t.Error("two-factor auth not disabled by redeem")
	}
	if !s.CheckPassword(after, "newpass123") {
		t.Error("new password not in effect after redeem")
	}
	if s.CheckPassword(after, "oldpass123") {
		t.Error("old password still accepted after redeem")
	}
}

func TestUserStoreAppkeyAuth(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-appkey@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, "TestAppkey", email, "testpass123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SetAppkey(ctx, user.ID, "appkey-one"); err != nil {
		t.Fatalf("SetAppkey: %v", err)
	}

	// Without the open_api opt-in the key must not authenticate.
	found, err := s.FindByAppkey(ctx, "appkey-one")
	if err != nil {
		t.Fatalf("FindByAppkey: %v", err)
	}
	if found != nil {
		t.Fatal("appkey matched without open_api flag")
	}

	if _, err := db.Exec(`UPDATE users SET open_api = TRUE WHERE id = $1`, user.ID); err != nil {
		t.Fatalf("enable open_api: %v", err)
	}
	found, err = s.FindByAppkey(ctx, "appkey-one")
	if err != nil {
		t.Fatalf("FindByAppkey: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("FindByAppkey: got %+v", found)
	}

	// Rotating the key invalidates the old one immediately.
	if err := s.SetAppkey(ctx, user.ID, "appkey-two"); err != nil {
		t.Fatalf("SetAppkey (rotate): %v", err)
	}
	if found, _ := s.FindByAppkey(ctx, "appkey-one"); found != nil {
		t.Error("rotated-away appkey still authenticates")
	}
	if found, _ := s.FindByAppkey(ctx, "appkey-two"); found == nil {
		t.Error("fresh appkey does not authenticate")
	}
}

func TestUserStoreSessionKeys(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-sesskeys@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, "TestSessKeys", email, "testpass123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Appending the same key twice must leave a single entry.
	for i := 0; i < 2; i++ {
		if err := s.AppendSessionKey(ctx, user.ID, "key-a"); err != nil {
			t.Fatalf("AppendSessionKey: %v", err)
		}
	}
	if err := s.AppendSessionKey(ctx, user.ID, "key-b"); err != nil {
		t.Fatalf("AppendSessionKey: %v", err)
	}

	got, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.SessionKeys) != 2 || got.SessionKeys[0] != "key-a" || got.SessionKeys[1] != "key-b" {
		t.Fatalf("session keys = %v, want [key-a key-b]", got.SessionKeys)
	}

	if err := s.RemoveSessionKey(ctx, user.ID, "key-a"); err != nil {
		t.Fatalf("RemoveSessionKey: %v", err)
	}
	got, _ = s.FindByID(ctx, user.ID)
	if len(got.SessionKeys) != 1 || got.SessionKeys[0] != "key-b" {
		t.Fatalf("session keys after remove = %v", got.SessionKeys)
	}

	if err := s.SetSessionKeys(ctx, user.ID, []string{"key-x", "key-y"}); err != nil {
		t.Fatalf("SetSessionKeys: %v", err)
	}
	got, _ = s.FindByID(ctx, user.ID)
	if len(got.SessionKeys) != 2 || got.SessionKeys[0] != "key-x" {
		t.Fatalf("session keys after set = %v", got.SessionKeys)
	}
}
