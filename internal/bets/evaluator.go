package bets

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/games"
)

var (
	// ErrShapeMismatch means a wager's shape does not belong to the outcome's game.
	ErrShapeMismatch = errors.New("bet shape does not match outcome")
	// ErrNegativePayout is a programming error; the round must abort.
	ErrNegativePayout = errors.New("negative payout")
	// ErrMissingOutcome means the outcome carries no result for its variant.
	ErrMissingOutcome = errors.New("outcome has no result")
)

// WagerResult is the settled state of one wager.
type WagerResult struct {
	Index  int             `json:"index"`
	Wager  Wager           `json:"wager"`
	Won    bool            `json:"won"`
	Ratio  decimal.Decimal `json:"ratio"`
	Payout decimal.Decimal `json:"payout"`
}

// Evaluation is the payout for a full wager list.
type Evaluation struct {
	Results     []WagerResult   `json:"results"`
	TotalStake  decimal.Decimal `json:"total_stake"`
	TotalPayout decimal.Decimal `json:"total_payout"`
}

// Evaluate settles wagers against outcome. A winning wager pays
// amount*ratio (stake included), a losing one pays 0.
func Evaluate(outcome games.Outcome, wagers []Wager) (Evaluation, error) {
	eval := Evaluation{
		Results:     make([]WagerResult, 0, len(wagers)),
		TotalStake:  TotalStake(wagers),
		TotalPayout: decimal.Zero,
	}

	for i, w := range wagers {
		won, ratio, err := resolve(outcome, w.Shape)
		if err != nil {
			return Evaluation{}, fmt.Errorf("wager %d: %w", i, err)
		}

		payout := decimal.Zero
		if won {
			payout = w.Amount.Mul(ratio).Round(2)
		}
		if payout.IsNegative() {
			return Evaluation{}, fmt.Errorf("wager %d: %w: %s", i, ErrNegativePayout, payout)
		}
		// A zero multiplier bin or segment is a loss.
		won = won && payout.IsPositive()

		eval.Results = append(eval.Results, WagerResult{
			Index:  i,
			Wager:  w,
			Won:    won,
			Ratio:  ratio,
			Payout: payout,
		})
		eval.TotalPayout = eval.TotalPayout.Add(payout)
	}

	return eval, nil
}

// Wins reports how many wagers paid out.
func (e Evaluation) Wins() int {
	return lo.CountBy(e.Results, func(r WagerResult) bool { return r.Won })
}

func resolve(outcome games.Outcome, shape Shape) (bool, decimal.Decimal, error) {
	if shape == nil {
		return false, decimal.Zero, ErrShapeMismatch
	}
	if shape.Game() != outcome.Variant {
		return false, decimal.Zero, fmt.Errorf("%w: %s on %s", ErrShapeMismatch, shape.Kind(), outcome.Variant)
	}

	switch s := shape.(type) {
	case MinesPick:
		if outcome.Mines == nil {
			return false, decimal.Zero, ErrMissingOutcome
		}
		m := outcome.Mines
		ratio := games.MinesMultiplier(m.TotalCells, m.MineCount, len(s.Cells)-1)
		for _, c := range s.Cells {
			if m.IsMine(c) {
				return false, ratio, nil
			}
		}
		return true, ratio, nil

	case PlinkoDrop:
		if outcome.Plinko == nil {
			return false, decimal.Zero, ErrMissingOutcome
		}
		return true, outcome.Plinko.Multiplier, nil

	case WheelSpin:
		if outcome.Wheel == nil {
			return false, decimal.Zero, ErrMissingOutcome
		}
		return true, outcome.Wheel.Multiplier, nil
	}

	if outcome.Roulette == nil {
		return false, decimal.Zero, ErrMissingOutcome
	}
	ratio, ok := RouletteRatio(shape.Kind())
	if !ok {
		return false, decimal.Zero, fmt.Errorf("%w: no ratio for %s", ErrShapeMismatch, shape.Kind())
	}
	return lo.Contains(Covers(shape), outcome.Roulette.Number), ratio, nil
}
