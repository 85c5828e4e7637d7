package store

import (
	"context"

	"medtrack-api/internal/model"
)

func (q *pgQueries) CreateUser(ctx context.Context, u *model.User) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Email, u.PasswordHash, u.Name,
	)
	return duplicate(err)
}

func (q *pgQueries) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return q.user(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (q *pgQueries) UserByID(ctx context.Context, id string) (*model.User, error) {
	return q.user(ctx, `WHERE id = $1`, id)
}

func (q *pgQueries) user(ctx context.Context, where string, arg any) (*model.User, error) {
	u := &model.User{}
	err := q.db.QueryRow(ctx,
		`SELECT id, email, password_hash, name, created_at, updated_at
		 FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// ClaimUser sets the credential of an invited stub user. It fails with
// ErrNotFound when the user already has one.
func (q *pgQueries) ClaimUser(ctx context.Context, id, passwordHash, name string) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET password_hash=$1, name=$2, updated_at=NOW()
		 WHERE id=$3 AND password_hash=''`,
		passwordHash, name, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
