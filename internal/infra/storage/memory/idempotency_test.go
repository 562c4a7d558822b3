package memory

import (
	"context"
	"testing"
	"time"

	"meytle/internal/app/middleware"
)

func TestIdempotencyStoreReturnsSavedRecord(t *testing.T) {
	store := NewIdempotencyStore(time.Hour)
	ctx := context.Background()

	rec := middleware.IdempotencyRecord{
		Key:        "key-1",
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		OccurredAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Get(ctx, "key-1")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(got.Payload) != string(rec.Payload) {
		t.Fatalf("payload = %s", got.Payload)
	}
}

func TestIdempotencyStoreEvictsExpiredRecords(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, middleware.IdempotencyRecord{
		Key:        "key-1",
		OccurredAt: time.Now().Add(-2 * time.Minute),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok, err := store.Get(ctx, "key-1"); err != nil || ok {
		t.Fatalf("expired record still returned: ok=%v err=%v", ok, err)
	}
}

func TestIdempotencyStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewIdempotencyStore(0)
	ctx := context.Background()

	if err := store.Save(ctx, middleware.IdempotencyRecord{
		Key:        "key-1",
		OccurredAt: time.Now().Add(-240 * time.Hour),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok, err := store.Get(ctx, "key-1"); err != nil || !ok {
		t.Fatalf("record missing with zero ttl: ok=%v err=%v", ok, err)
	}
}
