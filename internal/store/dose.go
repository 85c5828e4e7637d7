package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"medtrack-api/internal/model"
)

const doseColumns = `d.id, d.medication_id, d.timestamp, d.notes, d.skipped,
	COALESCE(d.recorded_by_user_id, ''), d.created_at`

func scanDose(row pgx.Row, d *model.DoseRecord) error {
	if err := row.Scan(&d.ID, &d.MedicationID, &d.Timestamp, &d.Notes, &d.Skipped, &d.RecordedByUserID, &d.CreatedAt); err != nil {
		return err
	}
	inUTC(d)
	return nil
}

// inUTC drops the session zone pgx attaches to timestamptz values so dose
// times read the same whatever zone the server runs in.
func inUTC(d *model.DoseRecord) {
	d.Timestamp = d.Timestamp.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
}

func (q *pgQueries) CreateDose(ctx context.Context, d *model.DoseRecord) error {
	var recordedBy *string
	if d.RecordedByUserID != "" {
		recordedBy = &d.RecordedByUserID
	}
	if err := q.db.QueryRow(ctx,
		`INSERT INTO dose_records (id, medication_id, timestamp, notes, skipped, recorded_by_user_id)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		d.ID, d.MedicationID, d.Timestamp, d.Notes, d.Skipped, recordedBy,
	).Scan(&d.CreatedAt); err != nil {
		return err
	}
	inUTC(d)
	return nil
}

func (q *pgQueries) DoseByID(ctx context.Context, id string) (*model.DoseRecord, error) {
	d := &model.DoseRecord{}
	err := scanDose(q.db.QueryRow(ctx,
		`SELECT `+doseColumns+` FROM dose_records d WHERE d.id = $1`, id), d)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (q *pgQueries) DeleteDose(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM dose_records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) LatestDose(ctx context.Context, medicationID string, takenOnly bool) (*model.DoseRecord, error) {
	sql := `SELECT ` + doseColumns + ` FROM dose_records d WHERE d.medication_id = $1`
	if takenOnly {
		sql += ` AND d.skipped = false`
	}
	sql += ` ORDER BY d.timestamp DESC, d.id DESC LIMIT 1`

	d := &model.DoseRecord{}
	if err := scanDose(q.db.QueryRow(ctx, sql, medicationID), d); err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (q *pgQueries) DosesByMedication(ctx context.Context, medicationID string) ([]model.DoseRecord, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+doseColumns+` FROM dose_records d
		 WHERE d.medication_id = $1
		 ORDER BY d.timestamp DESC, d.id DESC`, medicationID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows, d *model.DoseRecord) error { return scanDose(r, d) })
}

func (q *pgQueries) DosesInRange(ctx context.Context, groupIDs []string, from, to time.Time) ([]model.DoseRecord, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+doseColumns+` FROM dose_records d
		 JOIN medications m ON m.id = d.medication_id
		 WHERE m.group_id = ANY($1) AND d.timestamp >= $2 AND d.timestamp <= $3
		 ORDER BY d.timestamp, d.id`, groupIDs, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows, d *model.DoseRecord) error { return scanDose(r, d) })
}
