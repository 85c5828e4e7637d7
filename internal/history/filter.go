package history

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// defaultRange is the window queried when no start date is given.
	defaultRange = 30 * 24 * time.Hour

	// openEndStep rounds a missing end date up so that repeated open-ended
	// queries share a cache key. Writes still invalidate through the epoch.
	openEndStep = time.Minute
)

// Normalize fills defaults into f and rejects values outside the allowed
// sets. A missing end date is now, rounded up to the next minute.
func Normalize(f model.HistoryFilter, now time.Time) (model.HistoryFilter, error) {
	if f.EndDate.IsZero() {
		f.EndDate = now.Truncate(openEndStep).Add(openEndStep)
	}
	if f.StartDate.IsZero() {
		f.StartDate = f.EndDate.Add(-defaultRange)
	}
	if f.StartDate.After(f.EndDate) {
		return f, apperr.Validationf("start date must not be after end date")
	}

	switch f.Status {
	case "":
		f.Status = model.StatusAll
	case model.StatusAll, model.StatusTaken, model.StatusSkipped:
	default:
		return f, apperr.Validationf("invalid status %q", f.Status)
	}

	switch f.TimeOfDay {
	case "":
		f.TimeOfDay = model.AnyTime
	case model.AnyTime, model.Morning, model.Afternoon, model.Evening, model.Night:
	default:
		return f, apperr.Validationf("invalid time of day %q", f.TimeOfDay)
	}

	switch f.SortField {
	case "":
		f.SortField = model.SortTimestamp
	case model.SortTimestamp, model.SortMedicationName, model.SortDosage, model.SortStatus:
	default:
		return f, apperr.Validationf("invalid sort field %q", f.SortField)
	}

	switch f.SortDirection {
	case "":
		f.SortDirection = model.Desc
	case model.Asc, model.Desc:
	default:
		return f, apperr.Validationf("invalid sort direction %q", f.SortDirection)
	}

	switch {
	case f.Page < 0:
		return f, apperr.Validationf("page must be positive")
	case f.Page == 0:
		f.Page = 1
	}
	switch {
	case f.Limit < 0 || f.Limit > MaxLimit:
		return f, apperr.Validationf("limit must be between 1 and %d", MaxLimit)
	case f.Limit == 0:
		f.Limit = DefaultLimit
	}

	f.Search = strings.TrimSpace(f.Search)
	f.MedicationIDs = sortedIDs(f.MedicationIDs)
	f.GroupIDs = sortedIDs(f.GroupIDs)
	if f.Location == nil {
		f.Location = time.UTC
	}
	return f, nil
}

func sortedIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// canonical renders a normalized filter so that equal filters give equal
// strings.
func canonical(f model.HistoryFilter) string {
	v := url.Values{}
	v.Set("from", f.StartDate.UTC().Format(time.RFC3339Nano))
	v.Set("to", f.EndDate.UTC().Format(time.RFC3339Nano))
	v.Set("meds", strings.Join(f.MedicationIDs, ","))
	v.Set("groups", strings.Join(f.GroupIDs, ","))
	v.Set("status", string(f.Status))
	v.Set("tod", string(f.TimeOfDay))
	v.Set("q", strings.ToLower(f.Search))
	v.Set("sort", string(f.SortField))
	v.Set("dir", string(f.SortDirection))
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("limit", strconv.Itoa(f.Limit))
	v.Set("tz", f.Location.String())
	return v.Encode()
}
