package companion

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"meytle/internal/domain/shared/events"
	"meytle/internal/domain/user"
)

var (
	ErrIDRequired          = errors.New("companion: id is required")
	ErrDisplayNameRequired = errors.New("companion: display name is required")
	ErrInvalidState        = errors.New("companion: invalid state transition")
	ErrNotFound            = errors.New("companion: not found")
)

// State tracks the admin review of a companion application. Only approved
// companions are bookable.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
)

// Profile is a companion's public face plus the moderation state. The profile
// ID equals the owning user's ID.
type Profile struct {
	ID          user.ID
	DisplayName string
	Bio         string
	City        string
	Services    []string
	Languages   []string
	PhotoURL    string
	State       State
	// Active is the companion's own "accepting new requests" toggle,
	// independent of moderation.
	Active      bool
	AvgRating   float64
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id user.ID) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
	// List returns profiles, optionally restricted to bookable ones,
	// newest-first, together with the unpaged total.
	List(ctx context.Context, onlyBookable bool, limit, offset int) ([]*Profile, int, error)
}

type ApplyParams struct {
	ID          user.ID
	DisplayName string
	Bio         string
	City        string
	Services    []string
	Languages   []string
	Now         time.Time
}

// Apply opens a new companion application in the pending state.
func Apply(params ApplyParams) (*Profile, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		return nil, ErrDisplayNameRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	p := &Profile{
		ID:          params.ID,
		DisplayName: name,
		Bio:         strings.TrimSpace(params.Bio),
		City:        strings.TrimSpace(params.City),
		Services:    cleanLabels(params.Services),
		Languages:   cleanLabels(params.Languages),
		State:       StatePending,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(ApplicationSubmitted{CompanionID: p.ID, At: now})
	return p, nil
}

// Approve moves a pending application to approved.
func (p *Profile) Approve(now time.Time) error {
	if p.State != StatePending {
		return ErrInvalidState
	}
	p.State = StateApproved
	p.touch(now)
	p.Record(ApplicationApproved{CompanionID: p.ID, At: p.UpdatedAt})
	return nil
}

// Reject closes a pending application.
func (p *Profile) Reject(reason string, now time.Time) error {
	if p.State != StatePending {
		return ErrInvalidState
	}
	p.State = StateRejected
	p.touch(now)
	p.Record(ApplicationRejected{CompanionID: p.ID, Reason: reason, At: p.UpdatedAt})
	return nil
}

// Bookable reports whether new bookings may target this companion.
func (p *Profile) Bookable() bool {
	return p.State == StateApproved && p.Active
}

func (p *Profile) SetActive(active bool, now time.Time) {
	p.Active = active
	p.touch(now)
}

func (p *Profile) SetPhotoURL(url string, now time.Time) {
	p.PhotoURL = strings.TrimSpace(url)
	p.touch(now)
}

func (p *Profile) UpdateDetails(bio, city string, services, languages []string, now time.Time) {
	p.Bio = strings.TrimSpace(bio)
	p.City = strings.TrimSpace(city)
	p.Services = cleanLabels(services)
	p.Languages = cleanLabels(languages)
	p.touch(now)
}

// UpdateRating stores the recomputed running average (one decimal) and count.
func (p *Profile) UpdateRating(average float64, count int, now time.Time) {
	p.AvgRating = math.Round(average*10) / 10
	p.ReviewCount = count
	p.touch(now)
}

func (p *Profile) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	p.UpdatedAt = now.UTC()
}

func cleanLabels(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		cleaned = append(cleaned, value)
	}
	return cleaned
}
