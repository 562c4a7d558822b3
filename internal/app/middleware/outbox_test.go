package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/outbox"
)

type testCommand string

func (c testCommand) Key() string { return string(c) }

type stubSink struct {
	mu      sync.Mutex
	records []outbox.EventRecord
}

func (s *stubSink) Enqueue(ctx context.Context, records []outbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *stubSink) all() []outbox.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]outbox.EventRecord, len(s.records))
	copy(out, s.records)
	return out
}

func stagedRecord(id string) outbox.EventRecord {
	return outbox.EventRecord{ID: id, Name: "booking.requested", Aggregate: "bk-1", OccurredAt: time.Now().UTC()}
}

func TestOutboxFlushEnqueuesAfterSuccess(t *testing.T) {
	sink := &stubSink{}
	inner := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		scope, ok := outbox.ScopeFromContext(ctx)
		if !ok {
			t.Fatal("no staging scope bound to the command context")
		}
		if err := scope.Add(ctx, stagedRecord("evt-1")); err != nil {
			return nil, err
		}
		if len(sink.all()) != 0 {
			t.Fatal("records reached the sink before the command finished")
		}
		return "ok", nil
	})

	bus := ChainCommands(inner, OutboxFlush(sink))
	if _, err := bus.Dispatch(context.Background(), testCommand("cmd-a")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	records := sink.all()
	if len(records) != 1 || records[0].ID != "evt-1" {
		t.Fatalf("sink records = %+v, want [evt-1]", records)
	}
}

func TestOutboxFlushDropsFailedCommandRecords(t *testing.T) {
	sink := &stubSink{}
	inner := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		scope, _ := outbox.ScopeFromContext(ctx)
		_ = scope.Add(ctx, stagedRecord("evt-1"))
		return nil, errors.New("handler failed")
	})

	bus := ChainCommands(inner, OutboxFlush(sink))
	if _, err := bus.Dispatch(context.Background(), testCommand("cmd-a")); err == nil {
		t.Fatal("expected dispatch error")
	}
	if records := sink.all(); len(records) != 0 {
		t.Fatalf("sink records = %+v, want none for a failed command", records)
	}
}

// Two in-flight commands stage into separate scopes: one failing never drags
// the other's records down with it, and the survivor flushes only its own.
func TestOutboxFlushScopesRecordsPerCommand(t *testing.T) {
	sink := &stubSink{}
	aStaged := make(chan struct{})
	bFailed := make(chan struct{})
	inner := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		scope, ok := outbox.ScopeFromContext(ctx)
		if !ok {
			return nil, errors.New("no staging scope")
		}
		switch cmd.Key() {
		case "cmd-a":
			if err := scope.Add(ctx, stagedRecord("evt-a")); err != nil {
				return nil, err
			}
			close(aStaged)
			<-bFailed
			return "ok", nil
		default:
			<-aStaged
			_ = scope.Add(ctx, stagedRecord("evt-b"))
			return nil, errors.New("command failed")
		}
	})

	bus := ChainCommands(inner, OutboxFlush(sink))
	done := make(chan error, 1)
	go func() {
		_, err := bus.Dispatch(context.Background(), testCommand("cmd-a"))
		done <- err
	}()
	if _, err := bus.Dispatch(context.Background(), testCommand("cmd-b")); err == nil {
		t.Fatal("expected cmd-b to fail")
	}
	close(bFailed)
	if err := <-done; err != nil {
		t.Fatalf("cmd-a: %v", err)
	}

	records := sink.all()
	if len(records) != 1 || records[0].ID != "evt-a" {
		t.Fatalf("sink records = %+v, want only evt-a", records)
	}
}
