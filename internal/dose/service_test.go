package dose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db    *store.Memory
	svc   *Service
	clock time.Time
}

func newFixture(t *testing.T, interval *int) *fixture {
	t.Helper()
	f := &fixture{db: store.NewMemory(), clock: t0}
	f.svc = NewService(f.db, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }

	ctx := context.Background()
	require.NoError(t, f.db.WithTx(ctx, func(q store.Queries) error {
		for _, u := range []string{"owner", "viewer", "editor", "stranger"} {
			if err := q.CreateUser(ctx, &model.User{ID: u, Email: u + "@example.com", PasswordHash: "x"}); err != nil {
				return err
			}
		}
		if err := q.CreateGroup(ctx, &model.MedicationGroup{ID: "g1", UserID: "owner", Name: "Pain"}); err != nil {
			return err
		}
		if err := q.CreateMedication(ctx, &model.Medication{
			ID: "ibu", GroupID: "g1", Name: "Ibuprofen", Dosage: "400", Unit: "mg",
			Frequency: "as needed", IsAsNeeded: true, MinTimeBetweenDoses: interval,
		}); err != nil {
			return err
		}
		if err := q.CreateAccessGrant(ctx, &model.AccessGrant{ID: "a1", GrantedByID: "owner", GrantedToID: "viewer", GroupID: "g1"}); err != nil {
			return err
		}
		return q.CreateAccessGrant(ctx, &model.AccessGrant{ID: "a2", GrantedByID: "owner", GrantedToID: "editor", GroupID: "g1", CanEdit: true})
	}))
	return f
}

func (f *fixture) record(userID string, skipped bool) (*model.DoseRecord, error) {
	return f.svc.RecordDose(context.Background(), userID, RecordInput{MedicationID: "ibu", Skipped: skipped})
}

func minutes(m int) *int { return &m }

func TestRecordDoseRespectsInterval(t *testing.T) {
	f := newFixture(t, minutes(240))

	_, err := f.record("owner", false)
	require.NoError(t, err)

	f.clock = t0.Add(180 * time.Minute)
	_, err = f.record("owner", false)
	require.Error(t, err)

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.NotEligible, ae.Code)
	require.NotNil(t, ae.NextEligibleAt)
	assert.True(t, ae.NextEligibleAt.Equal(t0.Add(240*time.Minute)))

	f.clock = t0.Add(240 * time.Minute)
	_, err = f.record("owner", false)
	require.NoError(t, err)

	doses, err := f.svc.ListDoses(context.Background(), "owner", "ibu")
	require.NoError(t, err)
	assert.Len(t, doses, 2)
}

func TestSkippedDosesDoNotResetInterval(t *testing.T) {
	f := newFixture(t, minutes(240))

	_, err := f.record("owner", false)
	require.NoError(t, err)

	f.clock = t0.Add(60 * time.Minute)
	_, err = f.record("owner", true)
	require.NoError(t, err, "skipped doses bypass the check")

	f.clock = t0.Add(240 * time.Minute)
	e, err := f.svc.CanRecordDose(context.Background(), "owner", "ibu")
	require.NoError(t, err)
	assert.True(t, e.Eligible)
}

func TestNoIntervalAlwaysEligible(t *testing.T) {
	for _, interval := range []*int{nil, minutes(0)} {
		f := newFixture(t, interval)
		for range 3 {
			_, err := f.record("owner", false)
			require.NoError(t, err)
		}
	}
}

func TestRecordDoseAuthorization(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.record("editor", false)
	require.NoError(t, err)

	_, err = f.record("viewer", false)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.record("stranger", false)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	doses, err := f.svc.ListDoses(context.Background(), "viewer", "ibu")
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, "editor", doses[0].RecordedByUserID)

	_, err = f.svc.ListDoses(context.Background(), "stranger", "ibu")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestRecordDoseTimestamp(t *testing.T) {
	f := newFixture(t, nil)

	earlier := t0.Add(-2 * time.Hour)
	rec, err := f.svc.RecordDose(context.Background(), "owner", RecordInput{MedicationID: "ibu", Timestamp: &earlier})
	require.NoError(t, err)
	assert.True(t, rec.Timestamp.Equal(earlier))

	future := t0.Add(10 * time.Minute)
	_, err = f.svc.RecordDose(context.Background(), "owner", RecordInput{MedicationID: "ibu", Timestamp: &future})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = f.svc.RecordDose(context.Background(), "owner", RecordInput{})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = f.svc.RecordDose(context.Background(), "owner", RecordInput{MedicationID: "missing"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestBackdatedDoseDoesNotBypassServerClock(t *testing.T) {
	f := newFixture(t, minutes(240))

	_, err := f.record("owner", false)
	require.NoError(t, err)

	f.clock = t0.Add(time.Hour)
	old := t0.Add(-10 * time.Hour)
	_, err = f.svc.RecordDose(context.Background(), "owner", RecordInput{MedicationID: "ibu", Timestamp: &old})
	assert.True(t, apperr.Is(err, apperr.NotEligible))
}

func TestDeleteDose(t *testing.T) {
	f := newFixture(t, nil)

	rec, err := f.record("owner", false)
	require.NoError(t, err)

	err = f.svc.DeleteDose(context.Background(), "viewer", rec.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	require.NoError(t, f.svc.DeleteDose(context.Background(), "editor", rec.ID))

	err = f.svc.DeleteDose(context.Background(), "owner", rec.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
