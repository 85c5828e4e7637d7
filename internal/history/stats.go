package history

import (
	"context"
	"time"

	"medtrack-api/internal/access"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// StatsDays is the length of the adherence window.
const StatsDays = 7

// Stats counts taken and skipped doses per calendar day of the user's zone
// over the last StatsDays days, today included, oldest first.
func (s *Service) Stats(ctx context.Context, userID string) ([]model.DayStats, error) {
	var out []model.DayStats
	err := s.db.ReadTx(ctx, func(q store.Queries) error {
		loc, err := userLocation(ctx, q, userID)
		if err != nil {
			return err
		}
		v, err := access.Resolve(ctx, q, userID)
		if err != nil {
			return err
		}

		days := dayBuckets(s.now().In(loc), StatsDays)
		from, to := days[0].Date, days[len(days)-1].Date.AddDate(0, 0, 1).Add(-time.Nanosecond)
		doses, err := q.DosesInRange(ctx, v.GroupIDs(), from, to)
		if err != nil {
			return err
		}
		out = tally(days, doses, loc)
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "stats query failed")
	}
	return out, nil
}

// dayBuckets returns n empty days ending with the day of now, each starting
// at local midnight.
func dayBuckets(now time.Time, n int) []model.DayStats {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]model.DayStats, n)
	for i := range out {
		out[i].Date = today.AddDate(0, 0, i-n+1)
	}
	return out
}

func tally(days []model.DayStats, doses []model.DoseRecord, loc *time.Location) []model.DayStats {
	idx := make(map[string]int, len(days))
	for i, d := range days {
		idx[d.Date.Format(time.DateOnly)] = i
	}
	for _, d := range doses {
		i, ok := idx[d.Timestamp.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		if d.Skipped {
			days[i].Skipped++
		} else {
			days[i].Taken++
		}
	}
	return days
}
