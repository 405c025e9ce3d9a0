package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/scan"
	"github.com/MJE43/pf-casino-engine/internal/session"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "casino.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func testRound(id, account string, created time.Time) *session.Round {
	seed := engine.DeriveSeed(engine.Seed{1}, uint64(created.Unix()))
	wagers, _ := bets.ParseWagers([]bets.WagerSpec{
		{Shape: bets.KindStraight, Number: lo.ToPtr(17), Amount: decimal.RequireFromString("2.50")},
	})
	return &session.Round{
		ID:         id,
		Account:    account,
		Variant:    games.VariantRoulette,
		Wagers:     wagers,
		Stake:      decimal.RequireFromString("2.50"),
		Commitment: engine.HashSeed(seed),
		Seed:       &seed,
		State:      session.StateCreated,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestMigrationIdempotency(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Failed to migrate again: %v", err)
		}
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 3 {
		t.Errorf("expected schema version 3, got %d", version)
	}
}

func TestRoundRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := testRound("r1", "alice", created)
	if err := db.Create(ctx, r); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := db.Create(ctx, r); !errors.Is(err, session.ErrRoundExists) {
		t.Errorf("expected ErrRoundExists, got %v", err)
	}

	got, err := db.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Commitment != r.Commitment || got.Seed == nil || *got.Seed != *r.Seed {
		t.Error("commitment or seed did not survive storage")
	}
	if len(got.Wagers) != 1 || got.Wagers[0].Shape.Kind() != bets.KindStraight {
		t.Fatalf("wagers did not survive storage: %+v", got.Wagers)
	}
	if !got.Stake.Equal(r.Stake) {
		t.Errorf("stake %s, want %s", got.Stake, r.Stake)
	}

	payout := decimal.NewFromInt(90)
	got.State = session.StateClosed
	got.Payout = &payout
	got.UpdatedAt = created.Add(time.Minute)
	if err := db.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	again, err := db.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.State != session.StateClosed || again.Payout == nil || !again.Payout.Equal(payout) {
		t.Errorf("update not persisted: state %s payout %v", again.State, again.Payout)
	}

	if _, err := db.Get(ctx, "missing"); !errors.Is(err, session.ErrRoundNotFound) {
		t.Errorf("expected ErrRoundNotFound, got %v", err)
	}
	if err := db.Update(ctx, testRound("missing", "alice", created)); !errors.Is(err, session.ErrRoundNotFound) {
		t.Errorf("expected ErrRoundNotFound on update, got %v", err)
	}
}

func TestListByAccountNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := db.Create(ctx, testRound(id, "alice", base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	if err := db.Create(ctx, testRound("z", "bob", base)); err != nil {
		t.Fatalf("Create(z) error = %v", err)
	}

	rounds, err := db.ListByAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	ids := lo.Map(rounds, func(r *session.Round, _ int) string { return r.ID })
	want := []string{"c", "b", "a"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
			break
		}
	}
}

func TestAuditLogAppendOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := testRound("r1", "alice", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	payout := decimal.NewFromInt(90)

	entries := []session.AuditEntry{
		{RoundID: r.ID, Account: r.Account, Event: session.AuditCommitted, Commitment: r.Commitment, Variant: r.Variant, Wagers: r.Wagers, RecordedAt: r.CreatedAt},
		{RoundID: r.ID, Account: r.Account, Event: session.AuditClosed, Commitment: r.Commitment, Seed: r.Seed, Variant: r.Variant, Payout: &payout, RecordedAt: r.CreatedAt},
	}
	for _, e := range entries {
		if err := db.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	trail, err := db.AuditTrail(ctx, r.ID)
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	if len(trail) != 2 || trail[0].Event != session.AuditCommitted || trail[1].Event != session.AuditClosed {
		t.Fatalf("unexpected trail: %+v", trail)
	}
	if trail[0].Seed != nil {
		t.Error("commit record must not carry the seed")
	}
	if trail[1].Seed == nil || !engine.Verify(*trail[1].Seed, trail[1].Commitment) {
		t.Error("close record must carry a seed matching the commitment")
	}

	if _, err := db.db.ExecContext(ctx, "UPDATE audit_log SET event = 'closed'"); err == nil {
		t.Error("expected audit_log update to be rejected")
	}
	if _, err := db.db.ExecContext(ctx, "DELETE FROM audit_log"); err == nil {
		t.Error("expected audit_log delete to be rejected")
	}
}

func TestSaveRunAndHits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	result, err := scan.NewScanner(scan.Config{Workers: 2, EngineVersion: "test"}).Scan(ctx, scan.Request{
		Variant:   games.VariantRoulette,
		Wagers:    []bets.WagerSpec{{Shape: bets.KindStraight, Number: lo.ToPtr(7), Amount: decimal.NewFromInt(1)}},
		BaseSeed:  engine.Seed{9},
		Count:     3700,
		TargetOp:  scan.OpEqual,
		TargetVal: 36,
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	run, err := db.SaveRun(ctx, result)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.HitCount != result.Summary.HitsFound || got.TotalEvaluated != 3700 || got.EngineVersion != "test" {
		t.Errorf("stored run mismatch: %+v", got)
	}
	if got.BaseSeedHash == (engine.Seed{9}).String() {
		t.Error("base seed must be stored hashed")
	}

	hits, err := db.GetHits(ctx, run.ID, 5, 0)
	if err != nil {
		t.Fatalf("GetHits() error = %v", err)
	}
	if len(hits) != min(5, len(result.Hits)) {
		t.Fatalf("expected %d hits, got %d", min(5, len(result.Hits)), len(hits))
	}
	for i, h := range hits {
		if h.Index != result.Hits[i].Index || h.Metric != 7 {
			t.Errorf("hit %d mismatch: %+v", i, h)
		}
	}

	if _, err := db.GetRun(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
