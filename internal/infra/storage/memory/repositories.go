package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainaudit "meytle/internal/domain/audit"
	domainavailability "meytle/internal/domain/availability"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domaincompanion "meytle/internal/domain/companion"
	domainreviews "meytle/internal/domain/reviews"
	"meytle/internal/domain/shared/events"
	domainuser "meytle/internal/domain/user"
)

// AvailabilityRepository keeps weekly patterns in memory.
type AvailabilityRepository struct {
	mu    sync.RWMutex
	slots map[domainuser.ID][]domainavailability.WeeklySlot
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{
		slots: make(map[domainuser.ID][]domainavailability.WeeklySlot),
	}
}

func (r *AvailabilityRepository) WeeklyByCompanion(ctx context.Context, companionID domainuser.ID) ([]domainavailability.WeeklySlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.slots[companionID]
	out := make([]domainavailability.WeeklySlot, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *AvailabilityRepository) ReplaceWeekly(ctx context.Context, companionID domainuser.ID, slots []domainavailability.WeeklySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]domainavailability.WeeklySlot, len(slots))
	copy(stored, slots)
	for i := range stored {
		stored[i].CompanionID = companionID
	}
	r.slots[companionID] = stored
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneBooking(booking)
	stored.Version = booking.Version + 1
	r.items[stored.ID] = stored
	booking.Version = stored.Version
	return nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.ClientID == clientID })
}

func (r *BookingRepository) ListByCompanion(ctx context.Context, companionID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.CompanionID == companionID })
}

func (r *BookingRepository) ListActiveOnDate(ctx context.Context, companionID domainuser.ID, date time.Time) ([]*domainbooking.Booking, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	return r.list(func(b *domainbooking.Booking) bool {
		return b.CompanionID == companionID && b.Active() && b.Date.Equal(day)
	})
}

func (r *BookingRepository) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if match(booking) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	copyBooking.EventRecorder = events.EventRecorder{}
	return &copyBooking
}

// CompanionRepository stores companion profiles in memory.
type CompanionRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]*domaincompanion.Profile
}

func NewCompanionRepository() *CompanionRepository {
	return &CompanionRepository{items: make(map[domainuser.ID]*domaincompanion.Profile)}
}

func (r *CompanionRepository) ByID(ctx context.Context, id domainuser.ID) (*domaincompanion.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.items[id]
	if !ok {
		return nil, domaincompanion.ErrNotFound
	}
	return cloneProfile(profile), nil
}

func (r *CompanionRepository) Save(ctx context.Context, profile *domaincompanion.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneProfile(profile)
	stored.Version = profile.Version + 1
	r.items[stored.ID] = stored
	profile.Version = stored.Version
	return nil
}

func (r *CompanionRepository) List(ctx context.Context, onlyBookable bool, limit, offset int) ([]*domaincompanion.Profile, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domaincompanion.Profile, 0, len(r.items))
	for _, profile := range r.items {
		if onlyBookable && !profile.Bookable() {
			continue
		}
		matches = append(matches, cloneProfile(profile))
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := len(matches)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matches[offset:end], total, nil
}

func cloneProfile(p *domaincompanion.Profile) *domaincompanion.Profile {
	if p == nil {
		return nil
	}
	copyProfile := *p
	copyProfile.Services = append([]string(nil), p.Services...)
	copyProfile.Languages = append([]string(nil), p.Languages...)
	copyProfile.EventRecorder = events.EventRecorder{}
	return &copyProfile
}

// CatalogRepository stores service categories in memory.
type CatalogRepository struct {
	mu    sync.RWMutex
	items map[domaincatalog.CategoryID]*domaincatalog.Category
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{items: make(map[domaincatalog.CategoryID]*domaincatalog.Category)}
}

func (r *CatalogRepository) ByID(ctx context.Context, id domaincatalog.CategoryID) (*domaincatalog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	category, ok := r.items[id]
	if !ok {
		return nil, domaincatalog.ErrNotFound
	}
	copyCategory := *category
	return &copyCategory, nil
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]*domaincatalog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domaincatalog.Category, 0, len(r.items))
	for _, category := range r.items {
		if !category.Active {
			continue
		}
		copyCategory := *category
		matches = append(matches, &copyCategory)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

func (r *CatalogRepository) Save(ctx context.Context, category *domaincatalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyCategory := *category
	r.items[copyCategory.ID] = &copyCategory
	return nil
}

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu        sync.RWMutex
	byBooking map[domainbooking.BookingID]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{byBooking: make(map[domainbooking.BookingID]*domainreviews.Review)}
}

func (r *ReviewsRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.byBooking[bookingID]; ok {
		copyReview := *review
		return &copyReview, nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewsRepository) ListByReviewee(ctx context.Context, revieweeID domainuser.ID, limit, offset int) ([]*domainreviews.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.byBooking {
		if review.RevieweeID != revieweeID {
			continue
		}
		copyReview := *review
		matches = append(matches, &copyReview)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := len(matches)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matches[offset:end], total, nil
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyReview := *review
	r.byBooking[copyReview.BookingID] = &copyReview
	return nil
}

// AuditRepository appends audit records in memory.
type AuditRepository struct {
	mu      sync.RWMutex
	records []domainaudit.Record
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(ctx context.Context, record domainaudit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID domainuser.ID, limit int) ([]domainaudit.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]domainaudit.Record, 0)
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].SubjectID != subjectID {
			continue
		}
		matches = append(matches, r.records[i])
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domaincompanion.Repository = (*CompanionRepository)(nil)
var _ domaincatalog.Repository = (*CatalogRepository)(nil)
var _ domainreviews.Repository = (*ReviewsRepository)(nil)
var _ domainaudit.Repository = (*AuditRepository)(nil)
