package store

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/ledger"
	"github.com/MJE43/pf-casino-engine/internal/replay"
	"github.com/MJE43/pf-casino-engine/internal/session"
)

func TestManagerOnSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	wallet := ledger.NewMemory(map[string]decimal.Decimal{"alice": decimal.NewFromInt(50)})
	mgr := session.NewManager(db, wallet, db)

	r, err := mgr.StartRound(ctx, "alice", games.VariantMines, map[string]any{"totalCells": 25, "mineCount": 3})
	if err != nil {
		t.Fatalf("StartRound() error = %v", err)
	}
	if _, err := mgr.PlaceWagers(ctx, r.ID, []bets.WagerSpec{
		{Shape: bets.KindMinesPick, Cells: []int{0, 6, 12}, Amount: decimal.NewFromInt(10)},
	}); err != nil {
		t.Fatalf("PlaceWagers() error = %v", err)
	}

	rev, err := mgr.Reveal(ctx, r.ID)
	if err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}

	stored, err := db.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.State != session.StateClosed {
		t.Fatalf("expected closed round, got %s", stored.State)
	}
	res, ok, err := replay.Check(stored.ReplayInput(), rev.Payout)
	if err != nil || !ok {
		t.Fatalf("stored round does not replay: ok=%v err=%v payout=%s", ok, err, res.Payout)
	}

	trail, err := db.AuditTrail(ctx, r.ID)
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	events := lo.Map(trail, func(e session.AuditEntry, _ int) session.AuditEvent { return e.Event })
	if len(events) != 2 || events[0] != session.AuditCommitted || events[1] != session.AuditClosed {
		t.Errorf("unexpected audit events %v", events)
	}

	want := decimal.NewFromInt(40).Add(rev.Payout)
	if !wallet.Balance("alice").Equal(want) {
		t.Errorf("balance %s, want %s", wallet.Balance("alice"), want)
	}
}
