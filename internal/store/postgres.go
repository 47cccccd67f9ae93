package store

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/KevinSGarrett/DebtCollect/internal/db"
)

// PostgresStore implements Store on a JSONB document table.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_records_collection_seq ON records(collection, seq);
CREATE INDEX IF NOT EXISTS idx_records_data ON records USING GIN (data jsonb_path_ops);
`

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

func (s *PostgresStore) Create(ctx context.Context, collection string, record any) (string, error) {
	id, data, err := document(record)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (id, collection, data) VALUES ($1, $2, $3)`,
		id, collection, data,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert %s", collection)
	}
	return id, nil
}

// CreateMany inserts records with the COPY protocol.
func (s *PostgresStore) CreateMany(ctx context.Context, collection string, records []any) ([]string, error) {
	ids := make([]string, 0, len(records))
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		id, data, err := document(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		rows = append(rows, []any{id, collection, data})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "records", []string{"id", "collection", "data"}, rows); err != nil {
		return nil, eris.Wrapf(err, "postgres: bulk insert %s", collection)
	}
	return ids, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch any) error {
	data, err := patchDocument(patch)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET data = data || $1::jsonb, updated_at = now() WHERE collection = $2 AND id = $3`,
		data, collection, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update %s %s", collection, id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", collection, id)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, collection string, filter Filter, limit int) ([]json.RawMessage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = Filter{}
	}
	contains, err := json.Marshal(filter)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal filter")
	}
	if limit <= 0 {
		limit = math.MaxInt32
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM records WHERE collection = $1 AND data @> $2::jsonb ORDER BY seq LIMIT $3`,
		collection, contains, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", collection)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", collection)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, eris.Wrapf(rows.Err(), "postgres: list %s iterate", collection)
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete %s %s", collection, id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", collection, id)
	}
	return nil
}

// Count returns the number of records in collection.
func (s *PostgresStore) Count(ctx context.Context, collection string) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM records WHERE collection = $1`, collection).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "postgres: count %s", collection)
	}
	return int(n), nil
}
