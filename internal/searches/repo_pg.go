package searches

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, s Search) error {
	const query = `
INSERT INTO searches (
    id,
    principal,
    query,
    profile,
    provider,
    model,
    fallback_used,
    recommendations,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		s.ID,
		s.Principal,
		s.Query,
		s.Profile,
		s.Provider,
		s.Model,
		s.FallbackUsed,
		[]byte(s.Recommendations),
		s.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, principal, id string) (Search, error) {
	const query = `
SELECT id, principal, query, profile, provider, model, fallback_used, recommendations, created_at
FROM searches
WHERE id = $1 AND principal = $2`

	s, err := scanSearch(r.DB.QueryRowContext(ctx, query, id, principal))
	if errors.Is(err, sql.ErrNoRows) {
		return Search{}, ErrNotFound
	}
	return s, err
}

func (r *PGRepo) ListByPrincipal(ctx context.Context, principal string, limit, offset int) ([]Search, error) {
	const query = `
SELECT id, principal, query, profile, provider, model, fallback_used, recommendations, created_at
FROM searches
WHERE principal = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, principal, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Search{}
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (Search, error) {
	var s Search
	var recs []byte
	err := row.Scan(
		&s.ID,
		&s.Principal,
		&s.Query,
		&s.Profile,
		&s.Provider,
		&s.Model,
		&s.FallbackUsed,
		&recs,
		&s.CreatedAt,
	)
	if err != nil {
		return Search{}, err
	}
	s.Recommendations = recs
	return s, nil
}
