package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

func dates(days []model.DayStats) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Date.Format(time.DateOnly)
	}
	return out
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.dose(t, "aspirin", day.Add(23*time.Hour), false) // May 10, before the window
	f.dose(t, "aspirin", day.Add(32*time.Hour), false)
	f.dose(t, "aspirin", day.Add(33*time.Hour), true)
	f.dose(t, "melatonin", day.Add(5*24*time.Hour+22*time.Hour), false)
	f.dose(t, "aspirin", day.Add(7*24*time.Hour), false)

	days, err := f.svc.Stats(context.Background(), "owner")
	require.NoError(t, err)
	require.Len(t, days, StatsDays)
	assert.Equal(t, []string{
		"2024-05-11", "2024-05-12", "2024-05-13", "2024-05-14", "2024-05-15", "2024-05-16", "2024-05-17",
	}, dates(days))

	assert.Equal(t, model.DayStats{Date: days[0].Date, Taken: 1, Skipped: 1}, days[0])
	assert.Equal(t, 1, days[4].Taken)
	assert.Equal(t, 1, days[6].Taken)
	for _, i := range []int{1, 2, 3, 5} {
		assert.Zero(t, days[i].Taken+days[i].Skipped, days[i].Date)
	}
}

func TestStatsUsesViewerZoneAndScope(t *testing.T) {
	f := newFixture(t)
	f.dose(t, "aspirin", day.Add(23*time.Hour), false) // May 11 08:00 in Tokyo
	f.dose(t, "aspirin", day.Add(32*time.Hour), false)
	f.dose(t, "melatonin", day.Add(32*time.Hour), false)

	require.NoError(t, f.db.WithTx(context.Background(), func(q store.Queries) error {
		p := model.DefaultPreferences("carer")
		p.Timezone = "Asia/Tokyo"
		return q.UpsertPreferences(context.Background(), p)
	}))

	days, err := f.svc.Stats(context.Background(), "carer")
	require.NoError(t, err)
	require.Len(t, days, StatsDays)
	assert.Equal(t, "2024-05-11", days[0].Date.Format(time.DateOnly))
	assert.Equal(t, "Asia/Tokyo", days[0].Date.Location().String())
	// melatonin is in a group the carer cannot see
	assert.Equal(t, 2, days[0].Taken)

	days, err = f.svc.Stats(context.Background(), "stranger")
	require.NoError(t, err)
	for _, d := range days {
		assert.Zero(t, d.Taken+d.Skipped)
	}
}

func TestDayBucketsAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST started on 2024-03-10
	days := dayBuckets(time.Date(2024, 3, 12, 15, 0, 0, 0, loc), 4)
	assert.Equal(t, []string{"2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"}, dates(days))
	for _, d := range days {
		assert.Zero(t, d.Date.Hour())
	}
}
