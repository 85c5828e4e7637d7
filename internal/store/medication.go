package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"medtrack-api/internal/model"
)

const medicationColumns = `id, group_id, name, dosage, unit, frequency, is_as_needed,
	min_time_between_doses, created_at, updated_at`

func scanMedication(row pgx.Row, m *model.Medication) error {
	return row.Scan(&m.ID, &m.GroupID, &m.Name, &m.Dosage, &m.Unit, &m.Frequency,
		&m.IsAsNeeded, &m.MinTimeBetweenDoses, &m.CreatedAt, &m.UpdatedAt)
}

func (q *pgQueries) CreateMedication(ctx context.Context, m *model.Medication) error {
	return q.db.QueryRow(ctx,
		`INSERT INTO medications
		   (id, group_id, name, dosage, unit, frequency, is_as_needed, min_time_between_doses)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at, updated_at`,
		m.ID, m.GroupID, m.Name, m.Dosage, m.Unit, m.Frequency, m.IsAsNeeded, m.MinTimeBetweenDoses,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (q *pgQueries) MedicationByID(ctx context.Context, id string) (*model.Medication, error) {
	m := &model.Medication{}
	err := scanMedication(q.db.QueryRow(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id), m)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (q *pgQueries) MedicationsByGroups(ctx context.Context, groupIDs []string) ([]model.Medication, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+medicationColumns+` FROM medications
		 WHERE group_id = ANY($1)
		 ORDER BY created_at, id`, groupIDs)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows, m *model.Medication) error { return scanMedication(r, m) })
}

func (q *pgQueries) UpdateMedication(ctx context.Context, m *model.Medication) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE medications
		 SET name=$1, dosage=$2, unit=$3, frequency=$4, is_as_needed=$5,
		     min_time_between_doses=$6, updated_at=NOW()
		 WHERE id=$7`,
		m.Name, m.Dosage, m.Unit, m.Frequency, m.IsAsNeeded, m.MinTimeBetweenDoses, m.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMedication cascades to its dose records.
func (q *pgQueries) DeleteMedication(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM medications WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
