package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"meytle/internal/domain/shared/events"
)

// EventRecord is a serialized domain event staged for post-commit publication.
type EventRecord struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
}

// Outbox collects event records during a command. Records reach the outbox
// store only for committed commands; delivery to the broker is the outbox
// worker's job, and a delivery failure never reaches the command caller.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
}

// Sink receives the staged records of one committed command.
type Sink interface {
	Enqueue(ctx context.Context, records []EventRecord) error
}

// Scope is a per-command staging area. The flush middleware binds a fresh
// Scope to each command's context, the same way the unit of work travels, so
// concurrent commands never see each other's records and a failed command's
// records are dropped with its scope.
type Scope struct {
	mu      sync.Mutex
	records []EventRecord
}

func NewScope() *Scope { return &Scope{} }

func (s *Scope) Add(ctx context.Context, record EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Drain returns the staged records and empties the scope.
func (s *Scope) Drain() []EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records
	s.records = nil
	return records
}

type scopeKey struct{}

func ContextWithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(*Scope)
	return scope, ok
}

// EventEncoder turns a domain event into a transportable record.
type EventEncoder interface {
	Encode(event events.Event) (EventRecord, error)
}

// JSONEventEncoder marshals the event struct as-is.
type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(event events.Event) (EventRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{
		ID:         uuid.NewString(),
		Name:       event.EventName(),
		Aggregate:  event.AggregateID(),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}, nil
}

// Stage encodes and adds every pending event of a recorder, then clears it.
// A command-scoped staging area in the context takes precedence over the
// handler's own outbox.
func Stage(ctx context.Context, box Outbox, encoder EventEncoder, recorder *events.EventRecorder) error {
	if scope, ok := ScopeFromContext(ctx); ok {
		box = scope
	}
	if box == nil || encoder == nil || recorder == nil {
		return nil
	}
	for _, event := range recorder.Events() {
		record, err := encoder.Encode(event)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	recorder.ClearEvents()
	return nil
}
