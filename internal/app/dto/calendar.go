package dto

import (
	"meytle/internal/domain/availability"
)

type Calendar struct {
	CompanionID string            `json:"companion_id"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Days        []DayAvailability `json:"days"`
}

func MapCalendar(companionID string, summaries []availability.DaySummary) Calendar {
	cal := Calendar{
		CompanionID: companionID,
		Days:        make([]DayAvailability, 0, len(summaries)),
	}
	for _, summary := range summaries {
		cal.Days = append(cal.Days, MapDayAvailability(summary))
	}
	if len(summaries) > 0 {
		cal.From = summaries[0].Date.Format("2006-01-02")
		cal.To = summaries[len(summaries)-1].Date.Format("2006-01-02")
	}
	return cal
}
