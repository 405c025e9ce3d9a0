package bets

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/lo"

	"github.com/MJE43/pf-casino-engine/internal/games"
)

func TestParseWagerRejects(t *testing.T) {
	tests := []struct {
		name  string
		spec  WagerSpec
		field string
	}{
		{"zero amount", WagerSpec{Shape: KindStraight, Number: lo.ToPtr(1), Amount: dec("0")}, "amount"},
		{"negative amount", WagerSpec{Shape: KindStraight, Number: lo.ToPtr(1), Amount: dec("-1")}, "amount"},
		{"sub-cent amount", WagerSpec{Shape: KindStraight, Number: lo.ToPtr(1), Amount: dec("0.001")}, "amount"},
		{"unknown shape", WagerSpec{Shape: "basket", Amount: dec("1")}, "shape"},
		{"straight out of range", WagerSpec{Shape: KindStraight, Number: lo.ToPtr(37), Amount: dec("1")}, "number"},
		{"straight missing number", WagerSpec{Shape: KindStraight, Amount: dec("1")}, "number"},
		{"split not adjacent", WagerSpec{Shape: KindSplit, Numbers: []int{3, 4}, Amount: dec("1")}, "numbers"},
		{"split duplicate", WagerSpec{Shape: KindSplit, Numbers: []int{4, 4}, Amount: dec("1")}, "numbers"},
		{"street across rows", WagerSpec{Shape: KindStreet, Numbers: []int{2, 3, 4}, Amount: dec("1")}, "numbers"},
		{"corner not square", WagerSpec{Shape: KindCorner, Numbers: []int{2, 3, 4, 5}, Amount: dec("1")}, "numbers"},
		{"corner on zero", WagerSpec{Shape: KindCorner, Numbers: []int{0, 1, 2, 3}, Amount: dec("1")}, "numbers"},
		{"line too short", WagerSpec{Shape: KindLine, Numbers: []int{1, 2, 3}, Amount: dec("1")}, "numbers"},
		{"dozen index", WagerSpec{Shape: KindDozen, Index: lo.ToPtr(3), Amount: dec("1")}, "index"},
		{"green color", WagerSpec{Shape: KindColor, Color: "green", Amount: dec("1")}, "color"},
		{"parity", WagerSpec{Shape: KindParity, Parity: "zero", Amount: dec("1")}, "parity"},
		{"range", WagerSpec{Shape: KindRange, Range: "middle", Amount: dec("1")}, "range"},
		{"mines duplicate", WagerSpec{Shape: KindMinesPick, Cells: []int{1, 1}, Amount: dec("1")}, "cells"},
		{"mines empty", WagerSpec{Shape: KindMinesPick, Amount: dec("1")}, "cells"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWager(4, tt.spec)
			var werr *InvalidWagerError
			if !errors.As(err, &werr) {
				t.Fatalf("expected *InvalidWagerError, got %v", err)
			}
			if werr.Field != tt.field || werr.Index != 4 {
				t.Errorf("got field %q index %d, want %q index 4", werr.Field, werr.Index, tt.field)
			}
			if !errors.Is(err, ErrInvalidWager) {
				t.Error("expected error to wrap ErrInvalidWager")
			}
		})
	}
}

func TestParseWagersEmpty(t *testing.T) {
	if _, err := ParseWagers(nil); !errors.Is(err, ErrNoWagers) {
		t.Errorf("expected ErrNoWagers, got %v", err)
	}
}

func TestWagerJSONCanonical(t *testing.T) {
	w, err := ParseWager(0, WagerSpec{Shape: KindSplit, Numbers: []int{5, 2}, Amount: dec("2.50")})
	if err != nil {
		t.Fatalf("ParseWager() error = %v", err)
	}

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back Wager
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	split, ok := back.Shape.(Split)
	if !ok || split.Numbers != [2]int{2, 5} {
		t.Errorf("expected split {2,5}, got %#v", back.Shape)
	}
	if !back.Amount.Equal(dec("2.5")) {
		t.Errorf("expected amount 2.5, got %s", back.Amount)
	}
}

func TestValidateFor(t *testing.T) {
	roulette := mustWagers(t, WagerSpec{Shape: KindStraight, Number: lo.ToPtr(0), Amount: dec("1")})
	if err := ValidateFor(games.VariantRoulette, nil, roulette); err != nil {
		t.Errorf("roulette wager rejected: %v", err)
	}
	if err := ValidateFor(games.VariantPlinko, nil, roulette); !errors.Is(err, ErrInvalidWager) {
		t.Errorf("expected straight on plinko to be rejected, got %v", err)
	}

	params := map[string]any{"totalCells": 9, "mineCount": 6}
	ok := mustWagers(t, WagerSpec{Shape: KindMinesPick, Cells: []int{0, 4, 8}, Amount: dec("1")})
	if err := ValidateFor(games.VariantMines, params, ok); err != nil {
		t.Errorf("expected 3 picks on 3 safe cells to pass, got %v", err)
	}

	tooMany := mustWagers(t, WagerSpec{Shape: KindMinesPick, Cells: []int{0, 1, 2, 3}, Amount: dec("1")})
	if err := ValidateFor(games.VariantMines, params, tooMany); !errors.Is(err, ErrInvalidWager) {
		t.Errorf("expected too many picks to be rejected, got %v", err)
	}

	offBoard := mustWagers(t, WagerSpec{Shape: KindMinesPick, Cells: []int{9}, Amount: dec("1")})
	if err := ValidateFor(games.VariantMines, params, offBoard); !errors.Is(err, ErrInvalidWager) {
		t.Errorf("expected off-board pick to be rejected, got %v", err)
	}
}
