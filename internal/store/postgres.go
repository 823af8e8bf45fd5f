package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mandi-setu/parchi-cli/internal/db"
	"github.com/mandi-setu/parchi-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot store operations.
var preparedStatements = map[string]string{
	"insert_parchi": `INSERT INTO parchis (id, trade_data, vendor_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_parchi":    `SELECT id, trade_data, vendor_id, status, created_at, updated_at FROM parchis WHERE id = $1`,
	"delete_parchi": `DELETE FROM parchis WHERE id = $1`,
	"count_parchis": `SELECT COUNT(*) FROM parchis`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
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

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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
CREATE TABLE IF NOT EXISTS parchis (
	id         TEXT PRIMARY KEY,
	trade_data JSONB NOT NULL,
	vendor_id  TEXT,
	status     TEXT NOT NULL DEFAULT 'DRAFT',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parchis_status ON parchis(status);
CREATE INDEX IF NOT EXISTS idx_parchis_created_at ON parchis(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_parchis_vendor_id ON parchis(vendor_id);
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

func (s *PostgresStore) SaveParchi(ctx context.Context, parchi *model.DigitalParchi) (string, error) {
	tradeJSON, err := json.Marshal(parchi.TradeData)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal trade data")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO parchis (id, trade_data, vendor_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		parchi.ID, tradeJSON, textOrNil(parchi.VendorID), string(parchi.Status), parchi.CreatedAt, parchi.UpdatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert parchi %s", parchi.ID)
	}
	return parchi.ID, nil
}

func (s *PostgresStore) GetParchi(ctx context.Context, id string) (*model.DigitalParchi, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, trade_data, vendor_id, status, created_at, updated_at FROM parchis WHERE id = $1`,
		id,
	)
	p, err := scanPgParchi(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *PostgresStore) ListParchis(ctx context.Context, filter ParchiFilter) ([]model.DigitalParchi, error) {
	query := `SELECT id, trade_data, vendor_id, status, created_at, updated_at FROM parchis WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + placeholder(len(args))
	}
	if filter.Since != nil {
		args = append(args, filter.Since.UTC())
		query += ` AND created_at >= ` + placeholder(len(args))
	}
	if filter.Until != nil {
		args = append(args, filter.Until.UTC())
		query += ` AND created_at < ` + placeholder(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT ` + placeholder(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list parchis")
	}
	defer rows.Close()

	var parchis []model.DigitalParchi
	for rows.Next() {
		p, err := scanPgParchi(rows)
		if err != nil {
			return nil, err
		}
		parchis = append(parchis, *p)
	}
	return parchis, eris.Wrap(rows.Err(), "postgres: list parchis iterate")
}

func (s *PostgresStore) UpdateParchi(ctx context.Context, id string, update ParchiUpdate) (bool, error) {
	query := `UPDATE parchis SET updated_at = $1`
	args := []any{time.Now().UTC()}

	if update.Status != nil {
		args = append(args, string(*update.Status))
		query += `, status = ` + placeholder(len(args))
	}
	if update.VendorID != nil {
		args = append(args, textOrNil(*update.VendorID))
		query += `, vendor_id = ` + placeholder(len(args))
	}
	args = append(args, id)
	query += ` WHERE id = ` + placeholder(len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: update parchi %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) DeleteParchi(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM parchis WHERE id = $1`, id)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: delete parchi %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CountParchis(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM parchis`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count parchis")
}

// helpers

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanPgParchi(row pgx.Row) (*model.DigitalParchi, error) {
	var p model.DigitalParchi
	var tradeJSON []byte
	var vendorID *string
	var status string

	err := row.Scan(&p.ID, &tradeJSON, &vendorID, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan parchi")
	}

	if err := json.Unmarshal(tradeJSON, &p.TradeData); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal trade data")
	}
	if vendorID != nil {
		p.VendorID = *vendorID
	}
	p.Status = model.ParchiStatus(status)
	return &p, nil
}

var _ Store = (*PostgresStore)(nil)
