// Package store persists rounds, audit records and simulation runs.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/MJE43/pf-casino-engine/internal/session"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite implements session.RoundStore and session.AuditSink on one database.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLite opens the database at path. Call Migrate before use.
func NewSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: usable.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLite{db: db, log: logger}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded goose migrations.
func (s *SQLite) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		s.log.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// SchemaVersion returns the latest applied migration.
func (s *SQLite) SchemaVersion(ctx context.Context) (int64, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return 0, err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

// Ping checks the connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Create(ctx context.Context, r *session.Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds (id, account, variant, state, commitment, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Account, string(r.Variant), string(r.State), r.Commitment.String(), string(data),
		r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", session.ErrRoundExists, r.ID)
		}
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, r *session.Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET state = ?, data = ?, updated_at = ? WHERE id = ?`,
		string(r.State), string(data), r.UpdatedAt.UTC(), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", session.ErrRoundNotFound, r.ID)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*session.Round, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rounds WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", session.ErrRoundNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select round: %w", err)
	}
	return decodeRound(data)
}

func (s *SQLite) ListByAccount(ctx context.Context, account string) ([]*session.Round, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM rounds WHERE account = ? ORDER BY created_at DESC, id DESC`, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var out []*session.Round
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		r, err := decodeRound(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Append writes an audit record. The table rejects updates and deletes.
func (s *SQLite) Append(ctx context.Context, e session.AuditEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	var seed, payout, defect sql.NullString
	if e.Seed != nil {
		seed = sql.NullString{String: e.Seed.String(), Valid: true}
	}
	if e.Payout != nil {
		payout = sql.NullString{String: e.Payout.String(), Valid: true}
	}
	if e.Defect != "" {
		defect = sql.NullString{String: e.Defect, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (round_id, event, commitment, seed, variant, payout, defect, entry, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RoundID, string(e.Event), e.Commitment.String(), seed, string(e.Variant), payout, defect,
		string(data), e.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AuditTrail returns the audit records of a round in append order.
func (s *SQLite) AuditTrail(ctx context.Context, roundID string) ([]session.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry FROM audit_log WHERE round_id = ? ORDER BY id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []session.AuditEntry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		var e session.AuditEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func decodeRound(data string) (*session.Round, error) {
	var r session.Round
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decode round: %w", err)
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
