// Package likes persists per-image like counters in a Postgres key-value table.
package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles all like-counter database operations.
type Repository struct {
	db *pgxpool.Pool

	getSQL       string
	incrementSQL string
}

// NewRepository creates a Repository reading and writing the given counter
// table. The table name comes from configuration, so it is quoted once here;
// every query uses the prebuilt statements.
func NewRepository(db *pgxpool.Pool, table string) *Repository {
	t := pgx.Identifier{table}.Sanitize()
	return &Repository{
		db:     db,
		getSQL: fmt.Sprintf(`SELECT count FROM %s WHERE item_key = $1`, t),
		// The upsert increments inside a single statement, so concurrent
		// likes on the same key never read a stale base count.
		incrementSQL: fmt.Sprintf(
			`INSERT INTO %s AS l (item_key, count) VALUES ($1, 1)
			 ON CONFLICT (item_key) DO UPDATE SET count = l.count + 1
			 RETURNING count`, t),
	}
}

// GetCount returns the like count for key. A key with no counter record is
// count 0, not an error.
func (r *Repository) GetCount(ctx context.Context, key string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, r.getSQL, key).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get count %q: %w", key, err)
	}
	return count, nil
}

// Increment adds one like to key and returns the new count. The first like
// creates the counter at 1.
func (r *Repository) Increment(ctx context.Context, key string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, r.incrementSQL, key).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment count %q: %w", key, err)
	}
	return count, nil
}
