package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"medtrack-api/internal/model"
)

const groupColumns = `id, user_id, name, color, icon, display_order, created_at, updated_at`

func scanGroup(row pgx.Row, g *model.MedicationGroup) error {
	return row.Scan(&g.ID, &g.UserID, &g.Name, &g.Color, &g.Icon, &g.DisplayOrder, &g.CreatedAt, &g.UpdatedAt)
}

// CreateGroup appends the group after the owner's last group.
func (q *pgQueries) CreateGroup(ctx context.Context, g *model.MedicationGroup) error {
	return q.db.QueryRow(ctx,
		`INSERT INTO medication_groups (id, user_id, name, color, icon, display_order)
		 SELECT $1, $2, $3, $4, $5, COALESCE(MAX(display_order) + 1, 0)
		 FROM medication_groups WHERE user_id = $2
		 RETURNING display_order, created_at, updated_at`,
		g.ID, g.UserID, g.Name, g.Color, g.Icon,
	).Scan(&g.DisplayOrder, &g.CreatedAt, &g.UpdatedAt)
}

func (q *pgQueries) GroupByID(ctx context.Context, id string) (*model.MedicationGroup, error) {
	g := &model.MedicationGroup{}
	err := scanGroup(q.db.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM medication_groups WHERE id = $1`, id), g)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (q *pgQueries) GroupsByIDs(ctx context.Context, ids []string) ([]model.MedicationGroup, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+groupColumns+` FROM medication_groups
		 WHERE id = ANY($1)
		 ORDER BY display_order, created_at, id`, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows, g *model.MedicationGroup) error { return scanGroup(r, g) })
}

func (q *pgQueries) OwnedGroupIDs(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id FROM medication_groups WHERE user_id = $1 AND id = ANY($2)`,
		ownerID, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows, id *string) error { return r.Scan(id) })
}

func (q *pgQueries) UpdateGroup(ctx context.Context, g *model.MedicationGroup) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE medication_groups
		 SET name=$1, color=$2, icon=$3, display_order=$4, updated_at=NOW()
		 WHERE id=$5`,
		g.Name, g.Color, g.Icon, g.DisplayOrder, g.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGroup cascades to the group's medications, their doses and any
// access grants on it.
func (q *pgQueries) DeleteGroup(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM medication_groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) GroupPermissions(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, true FROM medication_groups WHERE user_id = $1
		 UNION ALL
		 SELECT group_id, can_edit FROM access_grants WHERE granted_to_id = $1`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make(map[string]bool)
	for rows.Next() {
		var id string
		var canEdit bool
		if err := rows.Scan(&id, &canEdit); err != nil {
			return nil, err
		}
		// duplicate grants merge: any editable grant wins
		perms[id] = perms[id] || canEdit
	}
	return perms, rows.Err()
}
