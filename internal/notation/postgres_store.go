package notation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/hinglishflow/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notations (
	id         BIGSERIAL PRIMARY KEY,
	short_form TEXT NOT NULL,
	long_form  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS notations_short_form_lower_idx ON notations (LOWER(short_form));
`

// The lowest id wins when a short form was inserted more than once.
const lookupSQL = `SELECT long_form FROM notations WHERE LOWER(short_form) = $1 ORDER BY id LIMIT 1`

// PostgresStore queries the notations table. Every lookup borrows a pooled
// connection for the duration of the query only.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("[Postgres] migrate notations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, shortForm string) (string, bool, error) {
	var longForm string
	err := s.pool.QueryRow(ctx, lookupSQL, strings.ToLower(shortForm)).Scan(&longForm)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[Postgres] lookup %q: %w", shortForm, err)
	}
	return longForm, true, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertEntries bulk-loads entries with COPY, preserving their order in ids.
func (s *PostgresStore) InsertEntries(ctx context.Context, entries []models.NotationEntry) (int64, error) {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.ShortForm) == "" {
			continue
		}
		rows = append(rows, []any{strings.TrimSpace(e.ShortForm), e.LongForm})
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"notations"},
		[]string{"short_form", "long_form"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("[Postgres] copy notations: %w", err)
	}
	return n, nil
}
