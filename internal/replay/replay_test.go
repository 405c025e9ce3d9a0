package replay

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
)

func committedSeed(t *testing.T, fill byte) (engine.Seed, engine.Commitment) {
	t.Helper()
	seed, commitment, err := engine.Commit(bytes.NewReader(bytes.Repeat([]byte{fill}, engine.SeedSize)))
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return seed, commitment
}

func TestReplayReproducesPayout(t *testing.T) {
	seed, commitment := committedSeed(t, 0x42)
	wagers, err := bets.ParseWagers([]bets.WagerSpec{
		{Shape: bets.KindMinesPick, Cells: []int{0, 1, 2}, Amount: decimal.NewFromInt(4)},
	})
	if err != nil {
		t.Fatalf("ParseWagers() error = %v", err)
	}
	in := Input{
		Seed:       seed,
		Commitment: commitment,
		Variant:    games.VariantMines,
		Params:     map[string]any{"totalCells": 25, "mineCount": 3},
		Wagers:     wagers,
	}

	first, err := Replay(in)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	// A record that went through JSON must replay to the same payout.
	data, err := json.Marshal(struct {
		Params map[string]any `json:"params"`
		Wagers []bets.Wager   `json:"wagers"`
	}{in.Params, in.Wagers})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded struct {
		Params map[string]any `json:"params"`
		Wagers []bets.Wager   `json:"wagers"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	in.Params, in.Wagers = decoded.Params, decoded.Wagers

	_, ok, err := Check(in, first.Payout)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("expected decoded record to reproduce the payout")
	}
	if first.Proof.Seed != seed || first.Proof.Commitment != commitment {
		t.Error("expected proof to carry the seed and commitment")
	}
}

func TestReplayRejectsTamperedSeed(t *testing.T) {
	seed, commitment := committedSeed(t, 0x01)
	seed[31] ^= 0xff

	_, err := Replay(Input{Seed: seed, Commitment: commitment, Variant: games.VariantRoulette})
	if !errors.Is(err, ErrCommitmentMismatch) {
		t.Errorf("expected ErrCommitmentMismatch, got %v", err)
	}
}

func TestReplayUnknownVariant(t *testing.T) {
	seed, commitment := committedSeed(t, 0x02)
	_, err := Replay(Input{Seed: seed, Commitment: commitment, Variant: "crash"})
	if !errors.Is(err, games.ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}
