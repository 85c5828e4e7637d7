package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"medtrack-api/internal/model"
)

func (q *pgQueries) CreateAccessGrant(ctx context.Context, g *model.AccessGrant) error {
	return q.db.QueryRow(ctx,
		`INSERT INTO access_grants (id, granted_by_id, granted_to_id, group_id, can_edit)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at`,
		g.ID, g.GrantedByID, g.GrantedToID, g.GroupID, g.CanEdit,
	).Scan(&g.CreatedAt)
}

func (q *pgQueries) AccessGrantByID(ctx context.Context, id string) (*model.AccessGrant, error) {
	g := &model.AccessGrant{}
	err := q.db.QueryRow(ctx,
		`SELECT id, granted_by_id, granted_to_id, group_id, can_edit, created_at
		 FROM access_grants WHERE id = $1`, id,
	).Scan(&g.ID, &g.GrantedByID, &g.GrantedToID, &g.GroupID, &g.CanEdit, &g.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (q *pgQueries) DeleteAccessGrant(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM access_grants WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) ListAccessGrants(ctx context.Context, userID string) ([]model.AccessGrantView, error) {
	rows, err := q.db.Query(ctx,
		`SELECT a.id, a.granted_by_id, a.granted_to_id, a.group_id, a.can_edit, a.created_at,
		        ub.email, ut.email, g.name, g.color
		 FROM access_grants a
		 JOIN users ub ON ub.id = a.granted_by_id
		 JOIN users ut ON ut.id = a.granted_to_id
		 JOIN medication_groups g ON g.id = a.group_id
		 WHERE a.granted_by_id = $1 OR a.granted_to_id = $1
		 ORDER BY a.created_at DESC, a.id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows, v *model.AccessGrantView) error {
		return r.Scan(&v.ID, &v.GrantedByID, &v.GrantedToID, &v.GroupID, &v.CanEdit, &v.CreatedAt,
			&v.GrantedByEmail, &v.GrantedToEmail, &v.GroupName, &v.GroupColor)
	})
}
