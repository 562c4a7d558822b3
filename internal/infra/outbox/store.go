package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	appoutbox "meytle/internal/app/outbox"
)

type documentStatus string

const (
	statusPending documentStatus = "pending"
	statusClaimed documentStatus = "claimed"
	statusSent    documentStatus = "sent"
)

// EventDocument is a staged event awaiting delivery to the broker.
type EventDocument struct {
	ID            string
	Name          string
	Aggregate     string
	Payload       json.RawMessage
	Headers       map[string]string
	OccurredAt    time.Time
	Attempts      int
	Status        documentStatus
	NextAttemptAt time.Time
	ClaimedBy     string
	LastError     string
}

// Store holds staged events until the worker delivers them. Claims are
// exclusive; a failed delivery is retried after its backoff elapses.
type Store struct {
	mu   sync.Mutex
	docs []*EventDocument
}

func NewStore() *Store {
	return &Store{}
}

// Enqueue appends flushed command events as pending documents.
func (s *Store) Enqueue(ctx context.Context, records []appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		s.docs = append(s.docs, &EventDocument{
			ID:         record.ID,
			Name:       record.Name,
			Aggregate:  record.Aggregate,
			Payload:    append(json.RawMessage(nil), record.Payload...),
			Headers:    record.Headers,
			OccurredAt: record.OccurredAt,
			Status:     statusPending,
		})
	}
	return nil
}

// Claim hands the oldest due pending document to a worker, or nil.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, doc := range s.docs {
		if doc.Status != statusPending || doc.NextAttemptAt.After(now) {
			continue
		}
		doc.Status = statusClaimed
		doc.ClaimedBy = workerID
		copyDoc := *doc
		return &copyDoc, nil
	}
	return nil, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.docs {
		if doc.ID != id {
			continue
		}
		doc.Status = statusSent
		s.docs = append(s.docs[:i], s.docs[i+1:]...)
		return nil
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextAttempt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID != id {
			continue
		}
		doc.Status = statusPending
		doc.ClaimedBy = ""
		doc.Attempts++
		doc.NextAttemptAt = nextAttempt
		doc.LastError = reason
		return nil
	}
	return nil
}

// Pending reports how many documents still await delivery.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, doc := range s.docs {
		if doc.Status != statusSent {
			count++
		}
	}
	return count
}

var _ appoutbox.Sink = (*Store)(nil)
