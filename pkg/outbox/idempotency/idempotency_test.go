package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "ts:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func newTestManager(t *testing.T, store *fakeStore, ttl time.Duration) *Manager {
	t.Helper()
	manager, err := NewManager(store, ttl)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager
}

func TestCheckAndMarkProcessedClaimsKey(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager := newTestManager(t, store, 24*time.Hour)
	eventID := uuid.New()

	seen, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", eventID)
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if seen {
		t.Fatal("first claim should report the event as new")
	}

	wantKey := "ts:idempotency:evt:processed:analytics:" + eventID.String()
	if store.lastKey != wantKey {
		t.Fatalf("key = %q, want %q", store.lastKey, wantKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("ttl = %v, want 24h", store.lastTTL)
	}
}

func TestCheckAndMarkProcessedDetectsDuplicate(t *testing.T) {
	manager := newTestManager(t, &fakeStore{setNXResult: false}, 12*time.Hour)

	seen, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", uuid.New())
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !seen {
		t.Fatal("held key should report the event as already processed")
	}
}

func TestCheckAndMarkProcessedPropagatesStoreError(t *testing.T) {
	manager := newTestManager(t, &fakeStore{setNXError: errors.New("redis down")}, time.Hour)

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", uuid.New()); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestCheckAndMarkProcessedRejectsBadInput(t *testing.T) {
	manager := newTestManager(t, &fakeStore{setNXResult: true}, time.Hour)

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected error for empty consumer")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", uuid.Nil); err == nil {
		t.Fatal("expected error for nil event id")
	}
}

func TestDeleteReleasesClaim(t *testing.T) {
	store := &fakeStore{}
	manager := newTestManager(t, store, time.Hour)
	eventID := uuid.New()

	if err := manager.Delete(context.Background(), "analytics", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := "ts:idempotency:evt:processed:analytics:" + eventID.String()
	if store.lastDeleted != want {
		t.Fatalf("deleted key = %q, want %q", store.lastDeleted, want)
	}
}
