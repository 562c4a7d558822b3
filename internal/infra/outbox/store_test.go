package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	appoutbox "meytle/internal/app/outbox"
)

func record(id, name string) appoutbox.EventRecord {
	return appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Aggregate:  "agg-1",
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		OccurredAt: time.Now().UTC(),
	}
}

func TestEnqueueStoresPendingDocuments(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Enqueue(ctx, []appoutbox.EventRecord{
		record("evt-1", "booking.requested"),
		record("evt-2", "booking.confirmed"),
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if store.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", store.Pending())
	}
}

func TestClaimIsExclusive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Enqueue(ctx, []appoutbox.EventRecord{record("evt-1", "booking.requested")}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	doc, err := store.Claim(ctx, "worker-a")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if doc == nil || doc.ID != "evt-1" || doc.ClaimedBy != "worker-a" {
		t.Fatalf("doc = %+v", doc)
	}

	other, err := store.Claim(ctx, "worker-b")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if other != nil {
		t.Fatalf("claimed document handed out twice: %+v", other)
	}
}

func TestMarkFailedSchedulesRetry(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Enqueue(ctx, []appoutbox.EventRecord{record("evt-1", "booking.requested")}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	doc, _ := store.Claim(ctx, "worker-a")

	// A future retry time keeps the document out of reach.
	if err := store.MarkFailed(ctx, doc.ID, time.Now().Add(time.Hour), "broker down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if again, _ := store.Claim(ctx, "worker-a"); again != nil {
		t.Fatalf("claimed before backoff elapsed: %+v", again)
	}

	// Once due, the document comes back with the attempt recorded.
	if err := store.MarkFailed(ctx, doc.ID, time.Now().Add(-time.Second), "broker down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	again, err := store.Claim(ctx, "worker-b")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if again == nil {
		t.Fatal("document not reclaimable after backoff")
	}
	if again.Attempts != 2 || again.LastError != "broker down" {
		t.Fatalf("attempts = %d lastError = %q", again.Attempts, again.LastError)
	}
}

func TestMarkSentRemovesDocument(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Enqueue(ctx, []appoutbox.EventRecord{record("evt-1", "booking.requested")}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	doc, _ := store.Claim(ctx, "worker-a")
	if err := store.MarkSent(ctx, doc.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if store.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", store.Pending())
	}
	if again, _ := store.Claim(ctx, "worker-a"); again != nil {
		t.Fatalf("sent document still claimable: %+v", again)
	}
}

type capturingProducer struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
	fail    bool
}

func (p *capturingProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail {
		return errors.New("broker unreachable")
	}
	p.topic = topic
	p.key = key
	p.payload = payload
	p.headers = headers
	return nil
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Enqueue(ctx, []appoutbox.EventRecord{record("evt-1", "booking.requested")}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	producer := &capturingProducer{}
	worker := &Worker{Store: store, Producer: producer, TopicPrefix: "dev."}
	if err := worker.processOnce(ctx); err != nil {
		t.Fatalf("processOnce: %v", err)
	}

	if producer.topic != "dev.booking.events.v1" {
		t.Fatalf("topic = %q", producer.topic)
	}
	if producer.key != "agg-1" {
		t.Fatalf("key = %q", producer.key)
	}
	if producer.headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("headers = %v", producer.headers)
	}

	var evt struct {
		SpecVersion string         `json:"specversion"`
		Type        string         `json:"type"`
		Source      string         `json:"source"`
		Data        map[string]any `json:"data"`
	}
	if err := json.Unmarshal(producer.payload, &evt); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if evt.SpecVersion != "1.0" || evt.Type != "booking.requested.v1" || evt.Source != "app://meytle" {
		t.Fatalf("envelope = %+v", evt)
	}
	if evt.Data["booking_id"] != "bk-1" {
		t.Fatalf("data = %v", evt.Data)
	}
	if store.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", store.Pending())
	}
}

func TestWorkerRetriesOnPublishFailure(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Enqueue(ctx, []appoutbox.EventRecord{record("evt-1", "booking.requested")}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	producer := &capturingProducer{fail: true}
	worker := &Worker{Store: store, Producer: producer, Backoff: []time.Duration{-time.Second}}
	if err := worker.processOnce(ctx); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if store.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", store.Pending())
	}

	doc, err := store.Claim(ctx, "worker-a")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if doc == nil || doc.Attempts != 1 {
		t.Fatalf("doc = %+v, want attempts 1", doc)
	}
}
