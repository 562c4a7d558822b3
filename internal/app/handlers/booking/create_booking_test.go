package booking

import (
	"context"
	"testing"
	"time"

	domainavailability "meytle/internal/domain/availability"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domaincompanion "meytle/internal/domain/companion"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
	"meytle/internal/infra/storage/memory"
)

// testDate is a future Monday so both the schedule lookup and the
// booking-in-the-past check behave deterministically.
var testDate = nextMonday().Format("2006-01-02")

func nextMonday() time.Time {
	date := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	for date.Weekday() != time.Monday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

const (
	testCompanion = "companion-1"
	testClient    = "client-1"
	testCategory  = "cat-dinner"
)

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
	ctx := context.Background()
	now := time.Now().UTC()

	profile, err := domaincompanion.Apply(domaincompanion.ApplyParams{
		ID:          testCompanion,
		DisplayName: "Jordan",
		City:        "Lisbon",
		Now:         now,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := profile.Approve(now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	profile.ClearEvents()
	if err := factory.CompanionRepo.Save(ctx, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	slots := []domainavailability.WeeklySlot{{
		CompanionID: testCompanion,
		Day:         domainavailability.Monday,
		Start:       mustClock(t, "09:00"),
		End:         mustClock(t, "17:00"),
		Active:      true,
	}}
	if err := factory.AvailabilityRepo.ReplaceWeekly(ctx, testCompanion, slots); err != nil {
		t.Fatalf("replace weekly: %v", err)
	}

	category, err := domaincatalog.NewCategory(domaincatalog.CreateParams{
		ID:             testCategory,
		Name:           "Dinner Date",
		BaseHourlyRate: money.Must(6000, "USD"),
		Now:            now,
	})
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	if err := factory.CatalogRepo.Save(ctx, category); err != nil {
		t.Fatalf("save category: %v", err)
	}
	return factory
}

func mustClock(t *testing.T, value string) timeofday.Time {
	t.Helper()
	parsed, err := timeofday.Parse(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func createCmd(id, start, end string) CreateBookingCommand {
	return CreateBookingCommand{
		CommandID:   id,
		ClientID:    testClient,
		CompanionID: testCompanion,
		Date:        testDate,
		StartTime:   start,
		EndTime:     end,
		CategoryID:  testCategory,
		MeetingType: "virtual",
	}
}

func TestCreateBookingSucceeds(t *testing.T) {
	factory := newTestFactory(t)
	staged := memory.NewOutbox()
	handler := &CreateBookingHandler{UoWFactory: factory, Outbox: staged}

	result, err := handler.Handle(context.Background(), createCmd("bk-1", "10:00", "12:00"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Status != string(domainbooking.StatusPending) {
		t.Fatalf("status = %s, want pending", result.Status)
	}
	// 2h at $60/h.
	if result.Total != 12000 || result.Currency != "USD" {
		t.Fatalf("total = %d %s, want 12000 USD", result.Total, result.Currency)
	}

	stored, err := factory.BookingRepo.ByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Status != domainbooking.StatusPending {
		t.Fatalf("stored status = %s", stored.Status)
	}

	records := staged.Records()
	if len(records) != 1 || records[0].Name != "booking.requested" {
		t.Fatalf("staged events = %+v, want one booking.requested", records)
	}
}

func TestCreateBookingOverlapConflict(t *testing.T) {
	factory := newTestFactory(t)
	handler := &CreateBookingHandler{UoWFactory: factory}
	ctx := context.Background()

	if _, err := handler.Handle(ctx, createCmd("bk-1", "10:00", "12:00")); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := handler.Handle(ctx, createCmd("bk-2", "11:00", "13:00"))
	if !fault.IsConflict(err) {
		t.Fatalf("overlapping booking error = %v, want conflict", err)
	}

	// Back-to-back bookings share only the boundary instant and must pass.
	if _, err := handler.Handle(ctx, createCmd("bk-3", "12:00", "13:00")); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

// The weekly schedule only drives slot suggestions; a conflict-free request
// outside it is still accepted.
func TestCreateBookingOutsideScheduleSucceeds(t *testing.T) {
	factory := newTestFactory(t)
	handler := &CreateBookingHandler{UoWFactory: factory}

	result, err := handler.Handle(context.Background(), createCmd("bk-1", "17:00", "18:00"))
	if err != nil {
		t.Fatalf("booking outside schedule: %v", err)
	}
	if result.Status != string(domainbooking.StatusPending) {
		t.Fatalf("status = %s, want pending", result.Status)
	}
}

func TestCreateBookingWithoutConfiguredSchedule(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	if err := factory.AvailabilityRepo.ReplaceWeekly(ctx, testCompanion, nil); err != nil {
		t.Fatalf("clear weekly: %v", err)
	}

	handler := &CreateBookingHandler{UoWFactory: factory}
	if _, err := handler.Handle(ctx, createCmd("bk-1", "10:00", "12:00")); err != nil {
		t.Fatalf("booking with no schedule: %v", err)
	}
}

func TestCreateBookingConcurrentOverlap(t *testing.T) {
	factory := newTestFactory(t)
	handler := &CreateBookingHandler{UoWFactory: factory}
	ctx := context.Background()

	results := make(chan error, 2)
	go func() {
		_, err := handler.Handle(ctx, createCmd("bk-a", "10:00", "12:00"))
		results <- err
	}()
	go func() {
		_, err := handler.Handle(ctx, createCmd("bk-b", "11:00", "13:00"))
		results <- err
	}()

	var succeeded, conflicted int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case fault.IsConflict(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("succeeded = %d, conflicted = %d, want exactly one of each", succeeded, conflicted)
	}
}

// lockingBookingRepo records companion-day lock requests the way a
// transactional store would serialize them.
type lockingBookingRepo struct {
	domainbooking.Repository
	locked []string
}

func (r *lockingBookingRepo) LockDate(ctx context.Context, companionID domainuser.ID, date time.Time) error {
	r.locked = append(r.locked, string(companionID)+":"+date.Format("2006-01-02"))
	return nil
}

func TestCreateBookingLocksCompanionDay(t *testing.T) {
	factory := newTestFactory(t)
	repo := &lockingBookingRepo{Repository: factory.BookingRepo}
	factory.BookingRepo = repo

	handler := &CreateBookingHandler{UoWFactory: factory}
	if _, err := handler.Handle(context.Background(), createCmd("bk-1", "10:00", "12:00")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	want := testCompanion + ":" + testDate
	if len(repo.locked) != 1 || repo.locked[0] != want {
		t.Fatalf("locked = %v, want [%s]", repo.locked, want)
	}
}

func TestCreateBookingRequiresApprovedCompanion(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	profile, err := factory.CompanionRepo.ByID(ctx, testCompanion)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	profile.SetActive(false, time.Now())
	if err := factory.CompanionRepo.Save(ctx, profile); err != nil {
		t.Fatalf("save: %v", err)
	}

	handler := &CreateBookingHandler{UoWFactory: factory}
	_, err = handler.Handle(ctx, createCmd("bk-1", "10:00", "12:00"))
	if !fault.IsConflict(err) {
		t.Fatalf("inactive companion error = %v, want conflict", err)
	}
}

func TestCreateBookingUnknownCategory(t *testing.T) {
	factory := newTestFactory(t)
	handler := &CreateBookingHandler{UoWFactory: factory}

	cmd := createCmd("bk-1", "10:00", "12:00")
	cmd.CategoryID = "cat-missing"
	if _, err := handler.Handle(context.Background(), cmd); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestCreateBookingCustomServiceUsesDefaultRate(t *testing.T) {
	factory := newTestFactory(t)
	handler := &CreateBookingHandler{UoWFactory: factory}

	cmd := createCmd("bk-1", "10:00", "11:00")
	cmd.CategoryID = ""
	cmd.CustomService = "museum tour"
	result, err := handler.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Total != defaultHourlyRate.Amount {
		t.Fatalf("total = %d, want %d", result.Total, defaultHourlyRate.Amount)
	}
}

func TestCreateBookingCustomServiceConfiguredRate(t *testing.T) {
	factory := newTestFactory(t)
	handler := &CreateBookingHandler{
		UoWFactory:  factory,
		DefaultRate: money.Must(7500, "USD"),
	}

	cmd := createCmd("bk-1", "10:00", "12:00")
	cmd.CategoryID = ""
	cmd.CustomService = "museum tour"
	result, err := handler.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Total != 15000 {
		t.Fatalf("total = %d, want 15000", result.Total)
	}
}

func seedBooking(t *testing.T, factory *memory.Factory, id, start, end string, status domainbooking.Status) *domainbooking.Booking {
	t.Helper()
	ctx := context.Background()
	date, err := time.ParseInLocation("2006-01-02", testDate, time.UTC)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(id),
		ClientID:    domainuser.ID(testClient + "-" + id),
		CompanionID: testCompanion,
		Date:        date,
		Start:       mustClock(t, start),
		End:         mustClock(t, end),
		Total:       money.Must(6000, "USD"),
		CategoryID:  testCategory,
		MeetingType: domainbooking.MeetingVirtual,
	})
	if err != nil {
		t.Fatalf("new booking %s: %v", id, err)
	}
	booking.ClearEvents()
	if status != domainbooking.StatusPending {
		if err := booking.TransitionTo(status, domainbooking.PartyCompanion, time.Now()); err != nil {
			t.Fatalf("transition %s: %v", id, err)
		}
		booking.ClearEvents()
	}
	if err := factory.BookingRepo.Save(ctx, booking); err != nil {
		t.Fatalf("save booking %s: %v", id, err)
	}
	return booking
}

func TestUpdateStatusConfirmCancelsOverlappingPending(t *testing.T) {
	factory := newTestFactory(t)
	seedBooking(t, factory, "bk-1", "10:00", "12:00", domainbooking.StatusPending)
	seedBooking(t, factory, "bk-2", "11:00", "13:00", domainbooking.StatusPending)
	seedBooking(t, factory, "bk-3", "14:00", "15:00", domainbooking.StatusPending)

	handler := &UpdateStatusHandler{UoWFactory: factory}
	result, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bk-1",
		ActorID:   testCompanion,
		Status:    "confirmed",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Status != "confirmed" {
		t.Fatalf("status = %s", result.Status)
	}
	if len(result.Cancelled) != 1 || result.Cancelled[0] != "bk-2" {
		t.Fatalf("cancelled = %v, want [bk-2]", result.Cancelled)
	}

	ctx := context.Background()
	other, err := factory.BookingRepo.ByID(ctx, "bk-2")
	if err != nil {
		t.Fatalf("ByID bk-2: %v", err)
	}
	if other.Status != domainbooking.StatusCancelled {
		t.Fatalf("bk-2 status = %s, want cancelled", other.Status)
	}
	untouched, err := factory.BookingRepo.ByID(ctx, "bk-3")
	if err != nil {
		t.Fatalf("ByID bk-3: %v", err)
	}
	if untouched.Status != domainbooking.StatusPending {
		t.Fatalf("bk-3 status = %s, want pending", untouched.Status)
	}
}

func TestUpdateStatusRejectsOutsiders(t *testing.T) {
	factory := newTestFactory(t)
	seedBooking(t, factory, "bk-1", "10:00", "12:00", domainbooking.StatusPending)

	handler := &UpdateStatusHandler{UoWFactory: factory}
	_, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bk-1",
		ActorID:   "someone-else",
		Status:    "cancelled",
	})
	if !fault.IsAuthorization(err) {
		t.Fatalf("outsider error = %v, want authorization", err)
	}
}

func TestUpdateStatusClientCannotConfirm(t *testing.T) {
	factory := newTestFactory(t)
	booking := seedBooking(t, factory, "bk-1", "10:00", "12:00", domainbooking.StatusPending)

	handler := &UpdateStatusHandler{UoWFactory: factory}
	_, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bk-1",
		ActorID:   string(booking.ClientID),
		Status:    "confirmed",
	})
	if !fault.IsAuthorization(err) {
		t.Fatalf("client confirm error = %v, want authorization", err)
	}
}
