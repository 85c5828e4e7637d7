package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"medtrack-api/internal/model"
)

const historyFrom = `
	FROM dose_records d
	JOIN medications m ON m.id = d.medication_id
	JOIN medication_groups g ON g.id = m.group_id`

var sortColumns = map[model.SortField]string{
	model.SortTimestamp:      "d.timestamp",
	model.SortMedicationName: "m.name",
	model.SortDosage:         "m.dosage",
	model.SortStatus:         "d.skipped",
}

// historyQuery is the WHERE clause and ORDER BY of a history filter with
// its positional args.
type historyQuery struct {
	where   string
	orderBy string
	args    []any
}

func (h *historyQuery) arg(v any) string {
	h.args = append(h.args, v)
	return fmt.Sprintf("$%d", len(h.args))
}

// buildHistoryQuery expects f to be validated: sort field, direction, status
// and bucket are interpolated from fixed tables, everything else is bound.
func buildHistoryQuery(scope []string, f model.HistoryFilter) historyQuery {
	h := historyQuery{}
	conds := []string{
		"g.id = ANY(" + h.arg(scope) + ")",
		"d.timestamp >= " + h.arg(f.StartDate),
		"d.timestamp <= " + h.arg(f.EndDate),
	}

	if len(f.GroupIDs) > 0 {
		conds = append(conds, "g.id = ANY("+h.arg(f.GroupIDs)+")")
	}
	if len(f.MedicationIDs) > 0 {
		conds = append(conds, "m.id = ANY("+h.arg(f.MedicationIDs)+")")
	}

	switch f.Status {
	case model.StatusTaken:
		conds = append(conds, "d.skipped = false")
	case model.StatusSkipped:
		conds = append(conds, "d.skipped = true")
	}

	if f.TimeOfDay != "" && f.TimeOfDay != model.AnyTime {
		loc := "UTC"
		if f.Location != nil {
			loc = f.Location.String()
		}
		hour := "EXTRACT(HOUR FROM d.timestamp AT TIME ZONE " + h.arg(loc) + "::text)"
		start, end := f.TimeOfDay.Hours()
		if start <= end {
			conds = append(conds, fmt.Sprintf("(%s >= %d AND %s < %d)", hour, start, hour, end))
		} else {
			conds = append(conds, fmt.Sprintf("(%s >= %d OR %s < %d)", hour, start, hour, end))
		}
	}

	if f.Search != "" {
		p := h.arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, "(m.name ILIKE "+p+" OR g.name ILIKE "+p+")")
	}

	col, ok := sortColumns[f.SortField]
	if !ok {
		col = sortColumns[model.SortTimestamp]
	}
	dir := "DESC"
	if f.SortDirection == model.Asc {
		dir = "ASC"
	}

	h.where = strings.Join(conds, " AND ")
	// id keeps equal sort keys in a stable order across identical queries
	h.orderBy = fmt.Sprintf("%s %s, d.id %s", col, dir, dir)
	return h
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (q *pgQueries) HistoryPage(ctx context.Context, scope []string, f model.HistoryFilter) (*model.HistoryPage, error) {
	page := &model.HistoryPage{Page: f.Page, Records: []model.DoseEntry{}}
	if len(scope) == 0 {
		return page, nil
	}

	h := buildHistoryQuery(scope, f)

	if err := q.db.QueryRow(ctx, `SELECT COUNT(*)`+historyFrom+` WHERE `+h.where, h.args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("while counting history: %w", err)
	}
	page.TotalPages = model.TotalPages(page.Total, f.Limit)

	args := append(h.args, f.Limit, f.Offset())
	rows, err := q.db.Query(ctx,
		`SELECT `+doseColumns+`, m.name, m.dosage, m.unit, g.id, g.name, g.color`+
			historyFrom+
			` WHERE `+h.where+
			` ORDER BY `+h.orderBy+
			fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(h.args)+1, len(h.args)+2),
		args...)
	if err != nil {
		return nil, fmt.Errorf("while querying history: %w", err)
	}
	records, err := collect(rows, func(r pgx.Rows, e *model.DoseEntry) error {
		if err := r.Scan(&e.ID, &e.MedicationID, &e.Timestamp, &e.Notes, &e.Skipped, &e.RecordedByUserID, &e.CreatedAt,
			&e.MedicationName, &e.Dosage, &e.Unit, &e.GroupID, &e.GroupName, &e.GroupColor); err != nil {
			return err
		}
		inUTC(&e.DoseRecord)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while scanning history: %w", err)
	}
	if records != nil {
		page.Records = records
	}
	return page, nil
}
