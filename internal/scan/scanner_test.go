package scan

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
)

func baseSeed(label string) engine.Seed {
	var s engine.Seed
	copy(s[:], label)
	return s
}

func TestTargetEvaluator(t *testing.T) {
	tests := []struct {
		op     TargetOp
		v1, v2 float64
		metric float64
		want   bool
	}{
		{OpEqual, 36, 0, 36, true},
		{OpEqual, 36, 0, 35.9, false},
		{OpGreater, 2, 0, 2, false},
		{OpGreaterEqual, 2, 0, 2, true},
		{OpLess, 1, 0, 0, true},
		{OpLessEqual, 1, 0, 1, true},
		{OpBetween, 1, 3, 2, true},
		{OpOutside, 1, 3, 2, false},
		{OpOutside, 1, 3, 4, true},
		{"nope", 1, 3, 4, false},
	}

	for _, tt := range tests {
		te := NewTargetEvaluator(tt.op, tt.v1, tt.v2, 1e-9)
		if got := te.Matches(tt.metric); got != tt.want {
			t.Errorf("%s(%v,%v).Matches(%v) = %v, want %v", tt.op, tt.v1, tt.v2, tt.metric, got, tt.want)
		}
	}
}

func TestScanRouletteStraightRTP(t *testing.T) {
	scanner := NewScanner(Config{Workers: 4, BatchSize: 500})
	req := Request{
		Variant:   games.VariantRoulette,
		Wagers:    []bets.WagerSpec{{Shape: bets.KindStraight, Number: lo.ToPtr(17), Amount: decimal.NewFromInt(1)}},
		BaseSeed:  baseSeed("rtp"),
		Count:     37_000,
		TargetOp:  OpEqual,
		TargetVal: 36,
		Limit:     25,
	}

	result, err := scanner.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.Summary.TotalEvaluated != req.Count {
		t.Fatalf("expected %d rounds, got %d", req.Count, result.Summary.TotalEvaluated)
	}
	// A single-zero straight returns 36/37.
	if math.Abs(result.Summary.RTP-36.0/37.0) > 0.15 {
		t.Errorf("RTP %.4f too far from 0.973", result.Summary.RTP)
	}
	if uint64(result.Summary.HitsFound) != result.Summary.Wins {
		t.Errorf("every win is a 36x hit: hits %d, wins %d", result.Summary.HitsFound, result.Summary.Wins)
	}
	if len(result.Hits) != req.Limit {
		t.Fatalf("expected %d hits, got %d", req.Limit, len(result.Hits))
	}
	for i, hit := range result.Hits {
		if i > 0 && hit.Index <= result.Hits[i-1].Index {
			t.Errorf("hits not ordered by index at %d", i)
		}
		if hit.Metric != 17 {
			t.Errorf("hit %d landed on %v, want 17", hit.Index, hit.Metric)
		}
	}

	var pockets uint64
	for _, n := range result.Summary.Frequency {
		pockets += n
	}
	if pockets != req.Count {
		t.Errorf("frequency counts %d rounds, want %d", pockets, req.Count)
	}
}

func TestScanDeterministicAcrossWorkers(t *testing.T) {
	req := Request{
		Variant:   games.VariantPlinko,
		Params:    map[string]any{"rows": 12, "risk": "high"},
		Wagers:    []bets.WagerSpec{{Shape: bets.KindPlinkoDrop, Amount: decimal.RequireFromString("0.50")}},
		BaseSeed:  baseSeed("determinism"),
		Start:     1000,
		Count:     5000,
		TargetOp:  OpGreaterEqual,
		TargetVal: 9,
	}

	one, err := NewScanner(Config{Workers: 1}).Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	many, err := NewScanner(Config{Workers: 8, BatchSize: 64}).Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if !one.Summary.TotalPayout.Equal(many.Summary.TotalPayout) {
		t.Errorf("payout differs: %s vs %s", one.Summary.TotalPayout, many.Summary.TotalPayout)
	}
	if !reflect.DeepEqual(one.Summary.Frequency, many.Summary.Frequency) {
		t.Error("bin frequency differs between worker counts")
	}
	if len(one.Hits) != len(many.Hits) {
		t.Fatalf("hit count differs: %d vs %d", len(one.Hits), len(many.Hits))
	}
	for i := range one.Hits {
		if one.Hits[i].Index != many.Hits[i].Index {
			t.Errorf("hit %d differs: %d vs %d", i, one.Hits[i].Index, many.Hits[i].Index)
		}
	}
}

func TestScanMatchesSingleRounds(t *testing.T) {
	req := Request{
		Variant:  games.VariantMines,
		Params:   map[string]any{"totalCells": 25, "mineCount": 5},
		Wagers:   []bets.WagerSpec{{Shape: bets.KindMinesPick, Cells: []int{0, 1, 2, 3}, Amount: decimal.NewFromInt(2)}},
		BaseSeed: baseSeed("mines"),
		Count:    200,
	}
	result, err := NewScanner(Config{}).Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	wagers, err := bets.ParseWagers(req.Wagers)
	if err != nil {
		t.Fatalf("ParseWagers() error = %v", err)
	}
	total := decimal.Zero
	for i := uint64(0); i < req.Count; i++ {
		outcome, err := games.Generate(req.Variant, engine.DeriveSeed(req.BaseSeed, i), req.Params)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		eval, err := bets.Evaluate(outcome, wagers)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		total = total.Add(eval.TotalPayout)
	}
	if !total.Equal(result.Summary.TotalPayout) {
		t.Errorf("scan payout %s, single rounds %s", result.Summary.TotalPayout, total)
	}
}

func TestScanRejects(t *testing.T) {
	scanner := NewScanner(Config{Workers: 2})
	straight := []bets.WagerSpec{{Shape: bets.KindStraight, Number: lo.ToPtr(1), Amount: decimal.NewFromInt(1)}}

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown game", Request{Variant: "keno", Wagers: straight, Count: 1}, ErrGameNotFound},
		{"zero count", Request{Variant: games.VariantRoulette, Wagers: straight}, ErrInvalidRange},
		{"too many rounds", Request{Variant: games.VariantRoulette, Wagers: straight, Count: MaxCount + 1}, ErrInvalidRange},
		{"bad op", Request{Variant: games.VariantRoulette, Wagers: straight, Count: 1, TargetOp: "approx"}, ErrInvalidRequest},
		{"no wagers", Request{Variant: games.VariantRoulette, Count: 1}, ErrInvalidRequest},
		{"wrong shape", Request{Variant: games.VariantWheel, Wagers: straight, Count: 1}, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := scanner.Scan(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewScanner(Config{Workers: 2}).Scan(ctx, Request{
		Variant: games.VariantRoulette,
		Wagers:  []bets.WagerSpec{{Shape: bets.KindColor, Color: "red", Amount: decimal.NewFromInt(1)}},
		Count:   1_000_000,
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !result.Summary.TimedOut {
		t.Error("expected a cancelled scan to report TimedOut")
	}
	if result.Summary.TotalEvaluated == 1_000_000 {
		t.Error("expected a cancelled scan to stop early")
	}
}
