package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-cli/internal/db"
	"github.com/sells-group/intel-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     clock
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"get_report":     `SELECT body FROM reports WHERE key = $1 AND expires_at > $2`,
	"delete_expired": `DELETE FROM reports WHERE expires_at <= $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, poolCfg, preparedStatements)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	key          TEXT PRIMARY KEY,
	id           TEXT NOT NULL,
	company      TEXT NOT NULL,
	body         JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_expires_at ON reports(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, key string) (*model.Report, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, preparedStatements["get_report"], key, s.now.now()).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get report")
	}
	return decodeReport(body)
}

func (s *PostgresStore) SaveReport(ctx context.Context, r *model.Report) error {
	body, err := encodeReport(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (key, id, company, body, generated_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (key) DO UPDATE SET
		   id = EXCLUDED.id,
		   company = EXCLUDED.company,
		   body = EXCLUDED.body,
		   generated_at = EXCLUDED.generated_at,
		   expires_at = EXCLUDED.expires_at`,
		r.Key, r.ID, r.Company, body, r.GeneratedAt.UTC(), r.ExpiresAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save report")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, preparedStatements["delete_expired"], s.now.now())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired reports")
	}
	return int(tag.RowsAffected()), nil
}
