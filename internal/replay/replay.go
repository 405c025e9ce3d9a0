// Package replay recomputes a round from its published record alone.
package replay

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
)

// ErrCommitmentMismatch means SHA256(seed) differs from the published commitment.
var ErrCommitmentMismatch = errors.New("seed does not match commitment")

// Proof is everything a player needs to check a round offline.
type Proof struct {
	Commitment engine.Commitment `json:"commitment"`
	Seed       engine.Seed       `json:"seed"`
	Variant    games.Variant     `json:"variant"`
	Params     map[string]any    `json:"params,omitempty"`
}

// Input is a round's public record.
type Input struct {
	Seed       engine.Seed
	Commitment engine.Commitment
	Variant    games.Variant
	Params     map[string]any
	Wagers     []bets.Wager
}

// Result is the recomputed round.
type Result struct {
	Outcome    games.Outcome   `json:"outcome"`
	Evaluation bets.Evaluation `json:"evaluation"`
	Payout     decimal.Decimal `json:"payout"`
	Proof      Proof           `json:"proof"`
}

// Replay verifies the seed, generates the outcome and evaluates the wagers.
// It is the only settlement path, online or offline.
func Replay(in Input) (Result, error) {
	if !engine.Verify(in.Seed, in.Commitment) {
		return Result{}, fmt.Errorf("%w: commitment %s", ErrCommitmentMismatch, in.Commitment)
	}

	outcome, err := games.Generate(in.Variant, in.Seed, in.Params)
	if err != nil {
		return Result{}, fmt.Errorf("generate %s outcome: %w", in.Variant, err)
	}

	eval, err := bets.Evaluate(outcome, in.Wagers)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate wagers: %w", err)
	}

	return Result{
		Outcome:    outcome,
		Evaluation: eval,
		Payout:     eval.TotalPayout,
		Proof: Proof{
			Commitment: in.Commitment,
			Seed:       in.Seed,
			Variant:    in.Variant,
			Params:     in.Params,
		},
	}, nil
}

// Check replays in and reports whether it reproduces payout exactly.
func Check(in Input, payout decimal.Decimal) (Result, bool, error) {
	res, err := Replay(in)
	if err != nil {
		return Result{}, false, err
	}
	return res, res.Payout.Equal(payout), nil
}
