package model

import (
	"math"
	"time"
)

type DoseStatus string

const (
	StatusAll     DoseStatus = "all"
	StatusTaken   DoseStatus = "taken"
	StatusSkipped DoseStatus = "skipped"
)

type TimeOfDay string

const (
	AnyTime   TimeOfDay = "all"
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// Hours returns the half-open local-hour range [start, end) of the bucket.
// Night wraps around midnight, so its start is greater than its end.
func (t TimeOfDay) Hours() (start, end int) {
	switch t {
	case Morning:
		return 5, 12
	case Afternoon:
		return 12, 17
	case Evening:
		return 17, 21
	case Night:
		return 21, 5
	}
	return 0, 24
}

// Contains reports whether a local hour of day falls in the bucket.
func (t TimeOfDay) Contains(hour int) bool {
	start, end := t.Hours()
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// TimeOfDayOf returns the bucket a local hour belongs to.
func TimeOfDayOf(hour int) TimeOfDay {
	for _, t := range []TimeOfDay{Morning, Afternoon, Evening} {
		if t.Contains(hour) {
			return t
		}
	}
	return Night
}

type SortField string

const (
	SortTimestamp      SortField = "timestamp"
	SortMedicationName SortField = "medicationName"
	SortDosage         SortField = "dosage"
	SortStatus         SortField = "status"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// HistoryFilter selects dose records for a history page. StartDate and
// EndDate are inclusive. Empty MedicationIDs / GroupIDs mean no filter.
type HistoryFilter struct {
	StartDate     time.Time
	EndDate       time.Time
	MedicationIDs []string
	GroupIDs      []string
	Status        DoseStatus
	TimeOfDay     TimeOfDay
	Search        string
	SortField     SortField
	SortDirection SortDirection
	Page          int
	Limit         int

	// Location is the zone time-of-day buckets are evaluated in.
	Location *time.Location
}

func (f *HistoryFilter) Offset() int { return (f.Page - 1) * f.Limit }

type HistoryPage struct {
	Records    []DoseEntry
	Total      int
	Page       int
	TotalPages int
}

func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
