package user

import (
	"context"
	"errors"
	"testing"
	"time"

	domainaudit "meytle/internal/domain/audit"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/infra/storage/memory"
)

const testUser = "user-1"

func newTestFactory(t *testing.T) *memory.Factory {
	t.Helper()
	factory := &memory.Factory{
		AvailabilityRepo: memory.NewAvailabilityRepository(),
		BookingRepo:      memory.NewBookingRepository(),
		CompanionRepo:    memory.NewCompanionRepository(),
		CatalogRepo:      memory.NewCatalogRepository(),
		ReviewsRepo:      memory.NewReviewsRepository(),
		UsersRepo:        memory.NewUserRepository(),
		AuditRepo:        memory.NewAuditRepository(),
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           testUser,
		Email:        "jordan@example.com",
		Name:         "Jordan",
		PasswordHash: "hash",
		Roles:        []domainuser.Role{domainuser.RoleClient},
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if err := factory.UsersRepo.Save(context.Background(), user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return factory
}

func TestSetBlockedTogglesAccess(t *testing.T) {
	factory := newTestFactory(t)
	handler := &SetBlockedHandler{UoWFactory: factory, Audit: factory.AuditRepo}
	ctx := context.Background()

	profile, err := handler.Handle(ctx, SetBlockedCommand{
		UserID:  testUser,
		ActorID: "admin-1",
		Blocked: true,
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !profile.Blocked {
		t.Fatal("profile not reported as blocked")
	}
	stored, err := factory.UsersRepo.ByID(ctx, testUser)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if !stored.Blocked {
		t.Fatal("stored user not blocked")
	}

	records, err := factory.AuditRepo.ListBySubject(ctx, testUser, 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(records) != 1 || records[0].Kind != domainaudit.KindUserBlockChanged {
		t.Fatalf("audit records = %+v, want one block change", records)
	}

	profile, err = handler.Handle(ctx, SetBlockedCommand{
		UserID:  testUser,
		ActorID: "admin-1",
		Blocked: false,
	})
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if profile.Blocked {
		t.Fatal("profile still blocked after unblock")
	}
}

func TestSetBlockedIsIdempotentOnState(t *testing.T) {
	factory := newTestFactory(t)
	handler := &SetBlockedHandler{UoWFactory: factory, Audit: factory.AuditRepo}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := handler.Handle(ctx, SetBlockedCommand{UserID: testUser, ActorID: "admin-1", Blocked: true}); err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
	}
	records, err := factory.AuditRepo.ListBySubject(ctx, testUser, 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	// The second call changed nothing, so it leaves no audit trace.
	if len(records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(records))
	}
}

func TestSetBlockedUnknownUser(t *testing.T) {
	factory := newTestFactory(t)
	handler := &SetBlockedHandler{UoWFactory: factory}

	_, err := handler.Handle(context.Background(), SetBlockedCommand{UserID: "ghost", ActorID: "admin-1", Blocked: true})
	if !errors.Is(err, domainuser.ErrNotFound) {
		t.Fatalf("err = %v, want user not found", err)
	}
}
