package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/pf-casino-engine/internal/scan"
)

// ErrRunNotFound is returned for an unknown simulation run.
var ErrRunNotFound = errors.New("run not found")

// Run represents a stored simulation run
type Run struct {
	ID             string    `json:"id"`
	Variant        string    `json:"variant"`
	BaseSeedHash   string    `json:"base_seed_hash"`
	Start          uint64    `json:"start"`
	Count          uint64    `json:"count"`
	ParamsJSON     string    `json:"params_json"`
	WagersJSON     string    `json:"wagers_json"`
	TargetOp       string    `json:"target_op"`
	TargetVal      float64   `json:"target_val"`
	HitCount       int       `json:"hit_count"`
	TotalEvaluated uint64    `json:"total_evaluated"`
	TotalStake     string    `json:"total_stake"`
	TotalPayout    string    `json:"total_payout"`
	RTP            float64   `json:"rtp"`
	TimedOut       bool      `json:"timed_out"`
	EngineVersion  string    `json:"engine_version"`
	CreatedAt      time.Time `json:"created_at"`
}

// Hit represents a single stored matching round
type Hit struct {
	ID       int64   `json:"id"`
	RunID    string  `json:"run_id"`
	Index    uint64  `json:"index"`
	Metric   float64 `json:"metric"`
	Multiple float64 `json:"multiple"`
	Payout   string  `json:"payout"`
}

// SaveRun stores a scan result and its hits in one transaction. The base
// seed itself is not stored, only its SHA-256.
func (s *SQLite) SaveRun(ctx context.Context, res *scan.Result) (*Run, error) {
	params, err := json.Marshal(res.Echo.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	if res.Echo.Params == nil {
		params = []byte("{}")
	}
	wagers, err := json.Marshal(res.Echo.Wagers)
	if err != nil {
		return nil, fmt.Errorf("encode wagers: %w", err)
	}
	hash := sha256.Sum256(res.Echo.BaseSeed[:])

	run := &Run{
		ID:             uuid.New().String(),
		Variant:        string(res.Echo.Variant),
		BaseSeedHash:   hex.EncodeToString(hash[:]),
		Start:          res.Echo.Start,
		Count:          res.Echo.Count,
		ParamsJSON:     string(params),
		WagersJSON:     string(wagers),
		TargetOp:       string(res.Echo.TargetOp),
		TargetVal:      res.Echo.TargetVal,
		HitCount:       res.Summary.HitsFound,
		TotalEvaluated: res.Summary.TotalEvaluated,
		TotalStake:     res.Summary.TotalStake.String(),
		TotalPayout:    res.Summary.TotalPayout.String(),
		RTP:            res.Summary.RTP,
		TimedOut:       res.Summary.TimedOut,
		EngineVersion:  res.EngineVersion,
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	timedOutInt := 0
	if run.TimedOut {
		timedOutInt = 1
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		id, variant, base_seed_hash, start_index, round_count, params_json, wagers_json,
		target_op, target_val, hit_count, total_evaluated, total_stake, total_payout,
		rtp, timed_out, engine_version, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Variant, run.BaseSeedHash, run.Start, run.Count, run.ParamsJSON, run.WagersJSON,
		run.TargetOp, run.TargetVal, run.HitCount, run.TotalEvaluated, run.TotalStake, run.TotalPayout,
		run.RTP, timedOutInt, run.EngineVersion, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	if len(res.Hits) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO hits (run_id, round_index, metric, multiple, payout) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return nil, err
		}
		defer stmt.Close()

		for _, hit := range res.Hits {
			if _, err := stmt.ExecContext(ctx, run.ID, hit.Index, hit.Metric, hit.Multiple, hit.Payout.String()); err != nil {
				return nil, fmt.Errorf("insert hit: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun retrieves a run by ID
func (s *SQLite) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var timedOutInt int

	err := s.db.QueryRowContext(ctx, `SELECT
		id, variant, base_seed_hash, start_index, round_count, params_json, wagers_json,
		target_op, target_val, hit_count, total_evaluated, total_stake, total_payout,
		rtp, timed_out, engine_version, created_at
		FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.Variant, &run.BaseSeedHash, &run.Start, &run.Count, &run.ParamsJSON, &run.WagersJSON,
		&run.TargetOp, &run.TargetVal, &run.HitCount, &run.TotalEvaluated, &run.TotalStake, &run.TotalPayout,
		&run.RTP, &timedOutInt, &run.EngineVersion, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run.TimedOut = timedOutInt == 1
	return &run, nil
}

// GetHits retrieves hits for a run with pagination
func (s *SQLite) GetHits(ctx context.Context, runID string, limit, offset int) ([]Hit, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, round_index, metric, multiple, payout
		FROM hits WHERE run_id = ?
		ORDER BY round_index LIMIT ? OFFSET ?`, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.ID, &hit.RunID, &hit.Index, &hit.Metric, &hit.Multiple, &hit.Payout); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
