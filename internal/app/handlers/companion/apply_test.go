package companion

import (
	"context"
	"testing"
	"time"

	domaincompanion "meytle/internal/domain/companion"
	"meytle/internal/domain/shared/fault"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/infra/storage/memory"
)

const testApplicant = "user-1"

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
		ID:           testApplicant,
		Email:        "applicant@example.com",
		Name:         "Jordan",
		PasswordHash: "hash",
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

func applyCmd() ApplyCommand {
	return ApplyCommand{
		ApplicantID: testApplicant,
		DisplayName: "Jordan K.",
		Bio:         "city walks and gallery visits",
		City:        "Lisbon",
		Services:    []string{"dinner", "walk"},
		Languages:   []string{"en", "pt"},
	}
}

func TestApplyCreatesPendingProfile(t *testing.T) {
	factory := newTestFactory(t)
	handler := &ApplyHandler{UoWFactory: factory}

	profile, err := handler.Handle(context.Background(), applyCmd())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if profile.State != string(domaincompanion.StatePending) {
		t.Fatalf("state = %q, want pending", profile.State)
	}
	if !profile.Active {
		t.Fatal("new applications should start active")
	}
}

func TestApplyDuplicate(t *testing.T) {
	factory := newTestFactory(t)
	handler := &ApplyHandler{UoWFactory: factory}
	ctx := context.Background()

	if _, err := handler.Handle(ctx, applyCmd()); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	_, err := handler.Handle(ctx, applyCmd())
	if !fault.IsConflict(err) {
		t.Fatalf("duplicate apply error = %v, want conflict", err)
	}
}

func TestApplyRequiresExistingUser(t *testing.T) {
	factory := newTestFactory(t)
	handler := &ApplyHandler{UoWFactory: factory}

	cmd := applyCmd()
	cmd.ApplicantID = "ghost"
	if _, err := handler.Handle(context.Background(), cmd); err == nil {
		t.Fatal("expected error for unknown applicant")
	}
}

func TestDecideApproveGrantsRole(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	if _, err := (&ApplyHandler{UoWFactory: factory}).Handle(ctx, applyCmd()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	handler := &DecideApplicationHandler{UoWFactory: factory}
	profile, err := handler.Handle(ctx, DecideApplicationCommand{CompanionID: testApplicant, Approve: true})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if profile.State != string(domaincompanion.StateApproved) {
		t.Fatalf("state = %q, want approved", profile.State)
	}

	user, err := factory.UsersRepo.ByID(ctx, domainuser.ID(testApplicant))
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if !user.HasRole(domainuser.RoleCompanion) {
		t.Fatalf("roles = %v, want companion granted", user.Roles)
	}
}

func TestDecideReject(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	if _, err := (&ApplyHandler{UoWFactory: factory}).Handle(ctx, applyCmd()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	handler := &DecideApplicationHandler{UoWFactory: factory}
	profile, err := handler.Handle(ctx, DecideApplicationCommand{CompanionID: testApplicant, Reason: "incomplete profile"})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if profile.State != string(domaincompanion.StateRejected) {
		t.Fatalf("state = %q, want rejected", profile.State)
	}

	user, err := factory.UsersRepo.ByID(ctx, domainuser.ID(testApplicant))
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if user.HasRole(domainuser.RoleCompanion) {
		t.Fatal("rejected applicant must not gain the companion role")
	}
}
