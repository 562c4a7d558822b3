package dto

import (
	"meytle/internal/domain/availability"
)

type WeeklySlot struct {
	DayOfWeek string   `json:"day_of_week"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Active    bool     `json:"active"`
	Services  []string `json:"services,omitempty"`
}

type WeeklySchedule struct {
	CompanionID string       `json:"companion_id"`
	Slots       []WeeklySlot `json:"slots"`
}

type OpenSlot struct {
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Services  []string `json:"services,omitempty"`
}

type DayAvailability struct {
	Date           string     `json:"date"`
	DayOfWeek      string     `json:"day_of_week"`
	Slots          []OpenSlot `json:"slots"`
	TotalSlots     int        `json:"total_slots"`
	AvailableSlots int        `json:"available_slots"`
	BookedSlots    int        `json:"booked_slots"`
	IsAvailable    bool       `json:"is_available"`
}

func MapWeeklySlot(slot availability.WeeklySlot) WeeklySlot {
	return WeeklySlot{
		DayOfWeek: string(slot.Day),
		StartTime: slot.Start.String(),
		EndTime:   slot.End.String(),
		Active:    slot.Active,
		Services:  slot.Services,
	}
}

func MapWeeklySchedule(companionID string, slots []availability.WeeklySlot) WeeklySchedule {
	mapped := make([]WeeklySlot, 0, len(slots))
	for _, slot := range slots {
		mapped = append(mapped, MapWeeklySlot(slot))
	}
	return WeeklySchedule{CompanionID: companionID, Slots: mapped}
}

func MapOpenSlots(slots []availability.OpenSlot) []OpenSlot {
	mapped := make([]OpenSlot, 0, len(slots))
	for _, slot := range slots {
		mapped = append(mapped, OpenSlot{
			StartTime: slot.Start.String(),
			EndTime:   slot.End.String(),
			Services:  slot.Services,
		})
	}
	return mapped
}

func MapDayAvailability(summary availability.DaySummary) DayAvailability {
	return DayAvailability{
		Date:           summary.Date.Format("2006-01-02"),
		DayOfWeek:      string(summary.Day),
		Slots:          MapOpenSlots(summary.Open),
		TotalSlots:     summary.TotalSlots,
		AvailableSlots: summary.AvailableSlots,
		BookedSlots:    summary.BookedSlots,
		IsAvailable:    summary.IsAvailable,
	}
}
