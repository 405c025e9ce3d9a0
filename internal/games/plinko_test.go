package games

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

func TestPlinkoTablesShape(t *testing.T) {
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		for rows := plinkoMinRows; rows <= plinkoMaxRows; rows++ {
			table, err := PlinkoTable(risk, rows)
			if err != nil {
				t.Fatalf("PlinkoTable(%s, %d): %v", risk, rows, err)
			}
			if len(table) != rows+1 {
				t.Errorf("risk %s rows %d: %d bins, want %d", risk, rows, len(table), rows+1)
			}
			for i := range table {
				if !table[i].Equal(table[len(table)-1-i]) {
					t.Errorf("risk %s rows %d is not symmetric at bin %d", risk, rows, i)
				}
				if table[i].IsNegative() {
					t.Errorf("risk %s rows %d bin %d is negative", risk, rows, i)
				}
			}
		}
	}
}

func TestPlinkoCenterBin(t *testing.T) {
	var seed engine.Seed
	seed[0], seed[1] = 0xAA, 0xAA // 1010... alternates right/left

	out, err := (&PlinkoGame{}).Generate(seed, map[string]any{"rows": float64(16), "risk": "medium"})
	if err != nil {
		t.Fatal(err)
	}

	res := out.Plinko
	if res.FinalBinIndex != 8 {
		t.Fatalf("final bin = %d, want 8", res.FinalBinIndex)
	}

	table, _ := PlinkoTable(RiskMedium, 16)
	if !res.Multiplier.Equal(table[8]) {
		t.Errorf("multiplier = %s, want %s", res.Multiplier, table[8])
	}
	if !res.Multiplier.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("medium/16 center multiplier = %s, want 0.3", res.Multiplier)
	}
	if len(res.Path) != 16 || res.Path[0] != DirectionRight || res.Path[1] != DirectionLeft {
		t.Errorf("unexpected path %v", res.Path)
	}
}

func TestPlinkoClampsToEdges(t *testing.T) {
	var ones engine.Seed
	for i := range ones {
		ones[i] = 0xFF
	}

	out, err := (&PlinkoGame{}).Generate(ones, map[string]any{"rows": 8, "risk": "high"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Plinko.FinalBinIndex != 8 {
		t.Errorf("all-right walk landed in bin %d, want 8", out.Plinko.FinalBinIndex)
	}

	out, err = (&PlinkoGame{}).Generate(engine.Seed{}, map[string]any{"rows": 8, "risk": "high"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Plinko.FinalBinIndex != 0 {
		t.Errorf("all-left walk landed in bin %d, want 0", out.Plinko.FinalBinIndex)
	}
}

func TestPlinkoBinsInRange(t *testing.T) {
	base := fixtureSeed("plinko-range")
	for rows := plinkoMinRows; rows <= plinkoMaxRows; rows++ {
		for i := 0; i < 200; i++ {
			out, err := (&PlinkoGame{}).Generate(engine.DeriveSeed(base, uint64(rows*1000+i)), map[string]any{"rows": rows})
			if err != nil {
				t.Fatal(err)
			}
			if bin := out.Plinko.FinalBinIndex; bin < 0 || bin > rows {
				t.Fatalf("rows %d: bin %d out of range", rows, bin)
			}
		}
	}
}
