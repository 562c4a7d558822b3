package audit

import (
	"context"
	"encoding/json"
	"time"

	"meytle/internal/domain/user"
)

// Kind names the audited action.
type Kind string

const (
	KindAvailabilityReplaced Kind = "availability_replaced"
	KindUserBlockChanged     Kind = "user_block_changed"
)

// Record captures a before/after snapshot of a sensitive mutation. Writes are
// best-effort: a failed audit append is logged, never propagated to the caller
// and never rolls back the primary operation.
type Record struct {
	ID          string
	Kind        Kind
	ActorID     user.ID
	SubjectID   user.ID
	Origin      string
	OldSnapshot json.RawMessage
	NewSnapshot json.RawMessage
	CreatedAt   time.Time
}

type Repository interface {
	Append(ctx context.Context, record Record) error
	ListBySubject(ctx context.Context, subjectID user.ID, limit int) ([]Record, error)
}
