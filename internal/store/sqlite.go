package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mandi-setu/parchi-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS parchis (
	id         TEXT PRIMARY KEY,
	trade_data TEXT NOT NULL,
	vendor_id  TEXT,
	status     TEXT NOT NULL DEFAULT 'DRAFT',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_parchis_status ON parchis(status);
CREATE INDEX IF NOT EXISTS idx_parchis_created_at ON parchis(created_at);
CREATE INDEX IF NOT EXISTS idx_parchis_vendor_id ON parchis(vendor_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveParchi(ctx context.Context, parchi *model.DigitalParchi) (string, error) {
	tradeJSON, err := json.Marshal(parchi.TradeData)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal trade data")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO parchis (id, trade_data, vendor_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		parchi.ID, string(tradeJSON), nullString(parchi.VendorID), string(parchi.Status), parchi.CreatedAt, parchi.UpdatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert parchi %s", parchi.ID)
	}
	return parchi.ID, nil
}

func (s *SQLiteStore) GetParchi(ctx context.Context, id string) (*model.DigitalParchi, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, trade_data, vendor_id, status, created_at, updated_at FROM parchis WHERE id = ?`,
		id,
	)
	p, err := scanParchi(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s *SQLiteStore) ListParchis(ctx context.Context, filter ParchiFilter) ([]model.DigitalParchi, error) {
	query := `SELECT id, trade_data, vendor_id, status, created_at, updated_at FROM parchis WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		query += ` AND created_at < ?`
		args = append(args, filter.Until.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list parchis")
	}
	defer rows.Close()

	var parchis []model.DigitalParchi
	for rows.Next() {
		p, err := scanParchi(rows)
		if err != nil {
			return nil, err
		}
		parchis = append(parchis, *p)
	}
	return parchis, eris.Wrap(rows.Err(), "sqlite: list parchis iterate")
}

func (s *SQLiteStore) UpdateParchi(ctx context.Context, id string, update ParchiUpdate) (bool, error) {
	query := `UPDATE parchis SET updated_at = ?`
	args := []any{time.Now().UTC()}

	if update.Status != nil {
		query += `, status = ?`
		args = append(args, string(*update.Status))
	}
	if update.VendorID != nil {
		query += `, vendor_id = ?`
		args = append(args, nullString(*update.VendorID))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: update parchi %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) DeleteParchi(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parchis WHERE id = ?`, id)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: delete parchi %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) CountParchis(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parchis`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count parchis")
}

// helpers

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanParchi(row scannable) (*model.DigitalParchi, error) {
	var p model.DigitalParchi
	var tradeJSON string
	var vendorID sql.NullString
	var status string

	err := row.Scan(&p.ID, &tradeJSON, &vendorID, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan parchi")
	}

	if err := json.Unmarshal([]byte(tradeJSON), &p.TradeData); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal trade data")
	}
	p.VendorID = vendorID.String
	p.Status = model.ParchiStatus(status)
	return &p, nil
}

var _ Store = (*SQLiteStore)(nil)
