package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"openjudge/internal/errs"
	"openjudge/internal/models"
)

// fakeKeyStore records mutations to the per-user key set in memory.
type fakeKeyStore struct {
	keys        map[uuid.UUID][]string
	appendCalls int
	setCalls    int
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{keys: make(map[uuid.UUID][]string)}
}

func (f *fakeKeyStore) AppendSessionKey(_ context.Context, userID uuid.UUID, key string) error {
	f.appendCalls++
	for _, k := range f.keys[userID] {
		if k == key {
			return nil
		}
	}
	f.keys[userID] = append(f.keys[userID], key)
	return nil
}

func (f *fakeKeyStore) SetSessionKeys(_ context.Context, userID uuid.UUID, keys []string) error {
	f.setCalls++
	f.keys[userID] = append([]string(nil), keys...)
	return nil
}

func (f *fakeKeyStore) RemoveSessionKey(_ context.Context, userID uuid.UUID, key string) error {
	live := f.keys[userID][:0:0]
	for _, k := range f.keys[userID] {
		if k != key {
			live = append(live, k)
		}
	}
	f.keys[userID] = live
	return nil
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "contestant"}
}

func TestRegistryRecord(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	keys := newFakeKeyStore()
	reg := NewRegistry(store, keys)
	ctx := context.Background()

	user := testUser()
	if err := reg.Record(ctx, user, "key-1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !user.HasSessionKey("key-1") {
		t.Error("key not reflected on the in-memory user")
	}
	if got := keys.keys[user.ID]; len(got) != 1 || got[0] != "key-1" {
		t.Errorf("persisted keys = %v", got)
	}

	// Recording a known key is a no-op and hits the store zero times.
	if err := reg.Record(ctx, user, "key-1"); err != nil {
		t.Fatalf("Record (repeat): %v", err)
	}
	if keys.appendCalls != 1 {
		t.Errorf("append calls = %d, want 1", keys.appendCalls)
	}
}

func TestRegistryListPrunesDeadKeys(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	keys := newFakeKeyStore()
	reg := NewRegistry(store, keys)
	ctx := context.Background()

	// Two live sessions, one dead identifier in between.
	id1, err := store.Create(ctx, httptest.NewRecorder(), &Data{
		IP: "192.0.2.1", UserAgent: "agent-1", LastActivity: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id2, err := store.Create(ctx, httptest.NewRecorder(), &Data{
		IP: "192.0.2.2", UserAgent: "agent-2", LastActivity: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user := testUser()
	user.SessionKeys = []string{id1, "expired-key", id2}
	keys.keys[user.ID] = append([]string(nil), user.SessionKeys...)

	entries, err := reg.List(ctx, user, id2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].SessionKey != id1 || entries[0].CurrentSession {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].SessionKey != id2 || !entries[1].CurrentSession {
		t.Errorf("entry 1 = %+v", entries[1])
	}

	// The dead key is gone from both the user and the persisted set.
	if user.HasSessionKey("expired-key") {
		t.Error("dead key still on user after List")
	}
	if got := keys.keys[user.ID]; len(got) != 2 {
		t.Errorf("persisted keys after prune = %v", got)
	}
	if keys.setCalls != 1 {
		t.Errorf("set calls = %d, want 1", keys.setCalls)
	}

	// A second listing finds nothing to prune.
	if _, err := reg.List(ctx, user, id2); err != nil {
		t.Fatalf("List (repeat): %v", err)
	}
	if keys.setCalls != 1 {
		t.Errorf("set calls after clean listing = %d, want 1", keys.setCalls)
	}
}

func TestRegistryRevoke(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	keys := newFakeKeyStore()
	reg := NewRegistry(store, keys)
	ctx := context.Background()

	id, err := store.Create(ctx, httptest.NewRecorder(), &Data{Username: "contestant"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user := testUser()
	user.SessionKeys = []string{id}
	keys.keys[user.ID] = []string{id}

	if err := reg.Revoke(ctx, user, id); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if data, _ := store.GetByID(ctx, id); data != nil {
		t.Error("revoked session still readable")
	}
	if user.HasSessionKey(id) {
		t.Error("revoked key still on user")
	}
	if got := keys.keys[user.ID]; len(got) != 0 {
		t.Errorf("persisted keys after revoke = %v", got)
	}
}

func TestRegistryRevokeForeignKey(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	keys := newFakeKeyStore()
	reg := NewRegistry(store, keys)
	ctx := context.Background()

	// A session the user does not own must not be deletable through them.
	id, err := store.Create(ctx, httptest.NewRecorder(), &Data{Username: "other"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user := testUser()
	err = reg.Revoke(ctx, user, id)
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if got := err.Error(); got != "Invalid session_key" {
		t.Errorf("message = %q", got)
	}
	if data, _ := store.GetByID(ctx, id); data == nil {
		t.Error("foreign session was deleted")
	}
}
