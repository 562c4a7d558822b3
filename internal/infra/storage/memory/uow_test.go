package memory

import (
	"context"
	"testing"
	"time"

	"meytle/internal/app/uow"
)

func newFactory() *Factory {
	return &Factory{
		AvailabilityRepo: NewAvailabilityRepository(),
		BookingRepo:      NewBookingRepository(),
		CompanionRepo:    NewCompanionRepository(),
		CatalogRepo:      NewCatalogRepository(),
		ReviewsRepo:      NewReviewsRepository(),
		UsersRepo:        NewUserRepository(),
		AuditRepo:        NewAuditRepository(),
	}
}

func TestBeginRequiresRepositories(t *testing.T) {
	factory := &Factory{}
	if _, err := factory.Begin(context.Background(), uow.TxOptions{}); err != ErrFactoryMisconfigured {
		t.Fatalf("err = %v, want ErrFactoryMisconfigured", err)
	}
}

func TestWriterUnitsAreExclusive(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()

	first, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	acquired := make(chan uow.UnitOfWork)
	go func() {
		second, err := factory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			panic(err)
		}
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("second writer acquired before first committed")
	case <-time.After(50 * time.Millisecond):
	}

	if err := first.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	select {
	case second := <-acquired:
		if err := second.Rollback(ctx); err != nil {
			t.Fatalf("Rollback: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second writer never acquired after commit")
	}
}

func TestReadOnlyUnitsRunConcurrently(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()

	writer, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin writer: %v", err)
	}
	defer writer.Rollback(ctx)

	done := make(chan struct{})
	go func() {
		reader, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			panic(err)
		}
		_ = reader.Commit(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read-only unit blocked behind a writer")
	}
}

func TestCommitIsIdempotent(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := unit.Rollback(ctx); err != nil {
		t.Fatalf("Rollback after Commit: %v", err)
	}

	// The lock must be free again.
	next, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin after release: %v", err)
	}
	_ = next.Commit(ctx)
}
