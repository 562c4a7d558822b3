package dto

import (
	"time"

	domaincompanion "meytle/internal/domain/companion"
)

type CompanionProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	City        string    `json:"city,omitempty"`
	Services    []string  `json:"services,omitempty"`
	Languages   []string  `json:"languages,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	State       string    `json:"state"`
	Active      bool      `json:"active"`
	AvgRating   float64   `json:"avg_rating"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CompanionCollection struct {
	Items []CompanionProfile `json:"items"`
	Total int                `json:"total"`
}

func MapCompanionProfile(profile *domaincompanion.Profile) CompanionProfile {
	if profile == nil {
		return CompanionProfile{}
	}
	return CompanionProfile{
		ID:          string(profile.ID),
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		City:        profile.City,
		Services:    profile.Services,
		Languages:   profile.Languages,
		PhotoURL:    profile.PhotoURL,
		State:       string(profile.State),
		Active:      profile.Active,
		AvgRating:   profile.AvgRating,
		ReviewCount: profile.ReviewCount,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}

func MapCompanionCollection(profiles []*domaincompanion.Profile, total int) CompanionCollection {
	items := make([]CompanionProfile, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, MapCompanionProfile(profile))
	}
	return CompanionCollection{Items: items, Total: total}
}
