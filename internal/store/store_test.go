package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// backends returns the in-memory backend, plus Postgres when DATABASE_URL
// is set.
func backends(t *testing.T) map[string]store.Backend {
	t.Helper()
	out := map[string]store.Backend{"memory": store.NewMemory()}

	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return out
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = store.Migrate(context.Background(), pool, "../../db/migrations")
	require.NoError(t, err)
	out["postgres"] = store.New(pool)
	return out
}

func id() string { return uuid.New().String() }

type seeded struct {
	owner, carer string
	group        string
	med          string
}

func seed(t *testing.T, db store.Backend) seeded {
	t.Helper()
	ctx := context.Background()
	s := seeded{owner: id(), carer: id(), group: id(), med: id()}
	require.NoError(t, db.WithTx(ctx, func(q store.Queries) error {
		if err := q.CreateUser(ctx, &model.User{ID: s.owner, Email: s.owner + "@example.com", PasswordHash: "h"}); err != nil {
			return err
		}
		if err := q.CreateUser(ctx, &model.User{ID: s.carer, Email: s.carer + "@example.com"}); err != nil {
			return err
		}
		if err := q.CreateGroup(ctx, &model.MedicationGroup{ID: s.group, UserID: s.owner, Name: "Heart", Color: "#f00"}); err != nil {
			return err
		}
		interval := 240
		return q.CreateMedication(ctx, &model.Medication{
			ID: s.med, GroupID: s.group, Name: "Aspirin", Dosage: "100", Unit: "mg",
			Frequency: "daily", MinTimeBetweenDoses: &interval,
		})
	}))
	return s
}

func TestRollbackOnError(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := seed(t, db)
			boom := errors.New("boom")

			err := db.WithTx(ctx, func(q store.Queries) error {
				if err := q.CreateAccessGrant(ctx, &model.AccessGrant{
					ID: id(), GrantedByID: s.owner, GrantedToID: s.carer, GroupID: s.group,
				}); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			require.NoError(t, db.ReadTx(ctx, func(q store.Queries) error {
				grants, err := q.ListAccessGrants(ctx, s.owner)
				require.NoError(t, err)
				assert.Empty(t, grants)
				return nil
			}))
		})
	}
}

func TestUsersAndClaims(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := seed(t, db)

			err := db.WithTx(ctx, func(q store.Queries) error {
				return q.CreateUser(ctx, &model.User{ID: id(), Email: s.owner + "@EXAMPLE.com"})
			})
			assert.ErrorIs(t, err, store.ErrDuplicate)

			require.NoError(t, db.WithTx(ctx, func(q store.Queries) error {
				u, err := q.UserByEmail(ctx, s.carer+"@Example.COM")
				require.NoError(t, err)
				assert.True(t, u.Stub())

				require.NoError(t, q.ClaimUser(ctx, s.carer, "hash", "Carer"))
				assert.ErrorIs(t, q.ClaimUser(ctx, s.carer, "other", "Again"), store.ErrNotFound)

				u, err = q.UserByID(ctx, s.carer)
				require.NoError(t, err)
				assert.Equal(t, "Carer", u.Name)
				assert.False(t, u.Stub())
				return nil
			}))
		})
	}
}

func TestGroupsAndPermissions(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := seed(t, db)

			require.NoError(t, db.WithTx(ctx, func(q store.Queries) error {
				second := &model.MedicationGroup{ID: id(), UserID: s.owner, Name: "Sleep"}
				require.NoError(t, q.CreateGroup(ctx, second))
				assert.Equal(t, 1, second.DisplayOrder)

				owned, err := q.OwnedGroupIDs(ctx, s.owner, []string{s.group, "nope"})
				require.NoError(t, err)
				assert.Equal(t, []string{s.group}, owned)

				require.NoError(t, q.CreateAccessGrant(ctx, &model.AccessGrant{
					ID: id(), GrantedByID: s.owner, GrantedToID: s.carer, GroupID: s.group,
				}))
				require.NoError(t, q.CreateAccessGrant(ctx, &model.AccessGrant{
					ID: id(), GrantedByID: s.owner, GrantedToID: s.carer, GroupID: s.group, CanEdit: true,
				}))

				perms, err := q.GroupPermissions(ctx, s.carer)
				require.NoError(t, err)
				assert.Equal(t, map[string]bool{s.group: true}, perms)

				perms, err = q.GroupPermissions(ctx, s.owner)
				require.NoError(t, err)
				assert.Equal(t, map[string]bool{s.group: true, second.ID: true}, perms)

				views, err := q.ListAccessGrants(ctx, s.carer)
				require.NoError(t, err)
				require.Len(t, views, 2)
				assert.Equal(t, "Heart", views[0].GroupName)
				assert.Equal(t, s.owner+"@example.com", views[0].GrantedByEmail)
				return nil
			}))
		})
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := seed(t, db)
			doseID := id()

			require.NoError(t, db.WithTx(ctx, func(q store.Queries) error {
				if err := q.CreateDose(ctx, &model.DoseRecord{ID: doseID, MedicationID: s.med, Timestamp: time.Now()}); err != nil {
					return err
				}
				if err := q.CreateAccessGrant(ctx, &model.AccessGrant{
					ID: id(), GrantedByID: s.owner, GrantedToID: s.carer, GroupID: s.group,
				}); err != nil {
					return err
				}
				return q.DeleteGroup(ctx, s.group)
			}))

			require.NoError(t, db.ReadTx(ctx, func(q store.Queries) error {
				_, err := q.MedicationByID(ctx, s.med)
				assert.ErrorIs(t, err, store.ErrNotFound)
				_, err = q.DoseByID(ctx, doseID)
				assert.ErrorIs(t, err, store.ErrNotFound)
				perms, err := q.GroupPermissions(ctx, s.carer)
				require.NoError(t, err)
				assert.Empty(t, perms)
				return nil
			}))
		})
	}
}

func TestLatestDoseSkipsSkipped(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := seed(t, db)
			t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

			require.NoError(t, db.WithTx(ctx, func(q store.Queries) error {
				require.NoError(t, q.CreateDose(ctx, &model.DoseRecord{ID: id(), MedicationID: s.med, Timestamp: t0}))
				require.NoError(t, q.CreateDose(ctx, &model.DoseRecord{ID: id(), MedicationID: s.med, Timestamp: t0.Add(time.Hour), Skipped: true}))

				last, err := q.LatestDose(ctx, s.med, true)
				require.NoError(t, err)
				assert.True(t, last.Timestamp.Equal(t0))

				last, err = q.LatestDose(ctx, s.med, false)
				require.NoError(t, err)
				assert.True(t, last.Skipped)

				doses, err := q.DosesInRange(ctx, []string{s.group}, t0, t0.Add(time.Hour))
				require.NoError(t, err)
				assert.Len(t, doses, 2)
				return nil
			}))
		})
	}
}

func TestHistoryPageAgainstBackends(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := seed(t, db)
			t0 := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

			require.NoError(t, db.WithTx(ctx, func(q store.Queries) error {
				for _, h := range []time.Duration{23*time.Hour + 30*time.Minute, 26 * time.Hour, 30 * time.Hour} {
					if err := q.CreateDose(ctx, &model.DoseRecord{ID: id(), MedicationID: s.med, Timestamp: t0.Add(h)}); err != nil {
						return err
					}
				}
				return nil
			}))

			require.NoError(t, db.ReadTx(ctx, func(q store.Queries) error {
				page, err := q.HistoryPage(ctx, []string{s.group}, model.HistoryFilter{
					StartDate: t0, EndDate: t0.Add(48 * time.Hour),
					TimeOfDay: model.Night, Search: "aspi",
					SortField: model.SortTimestamp, SortDirection: model.Asc,
					Page: 1, Limit: 10, Location: time.UTC,
				})
				require.NoError(t, err)
				assert.Equal(t, 2, page.Total)
				assert.Equal(t, 1, page.TotalPages)
				require.Len(t, page.Records, 2)
				assert.True(t, page.Records[0].Timestamp.Equal(t0.Add(23*time.Hour+30*time.Minute)))
				assert.Equal(t, "Heart", page.Records[0].GroupName)

				empty, err := q.HistoryPage(ctx, nil, model.HistoryFilter{Page: 1, Limit: 10})
				require.NoError(t, err)
				assert.NotNil(t, empty.Records)
				assert.Zero(t, empty.Total)
				return nil
			}))
		})
	}
}
