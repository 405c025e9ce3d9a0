package games

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

const (
	plinkoMinRows     = 8
	plinkoMaxRows     = 16
	plinkoDefaultRows = 16
)

var plinkoDefaultRisk = RiskMedium

// Direction of a single peg bounce.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// PlinkoResult is the ball's path and landing bin. Any physics rendering on
// a client must snap to FinalBinIndex; it never decides the bin itself.
type PlinkoResult struct {
	Rows          int             `json:"rows"`
	Risk          Risk            `json:"risk"`
	Path          []Direction     `json:"path"`
	FinalBinIndex int             `json:"final_bin_index"`
	Multiplier    decimal.Decimal `json:"multiplier"`
}

// PlinkoGame implements the Plinko provably fair game.
type PlinkoGame struct{}

// Spec returns metadata about the Plinko game.
func (g *PlinkoGame) Spec() GameSpec {
	return GameSpec{
		ID:          VariantPlinko,
		Name:        "Plinko",
		MetricLabel: "bin",
		Defaults: map[string]any{
			"rows": plinkoDefaultRows,
			"risk": string(plinkoDefaultRisk),
		},
	}
}

// Validate checks rows and risk and that a payout table exists for them.
func (g *PlinkoGame) Validate(params map[string]any) error {
	rows, risk, err := plinkoParams(params)
	if err != nil {
		return err
	}
	if _, err := PlinkoTable(risk, rows); err != nil {
		return paramErr(VariantPlinko, "rows", "%v", err)
	}
	return nil
}

// Generate walks rows steps from the center bin. Bit i of the seed bitstream
// moves the ball right when set and left otherwise, clamped to [0, rows].
func (g *PlinkoGame) Generate(seed engine.Seed, params map[string]any) (Outcome, error) {
	rows, risk, err := plinkoParams(params)
	if err != nil {
		return Outcome{}, err
	}

	table, err := PlinkoTable(risk, rows)
	if err != nil {
		return Outcome{}, err
	}
	if len(table) != rows+1 {
		return Outcome{}, fmt.Errorf("plinko table for risk %s rows %d has %d bins", risk, rows, len(table))
	}

	bits := engine.NewBitStream(seed)
	position := rows / 2
	path := make([]Direction, rows)

	for i := 0; i < rows; i++ {
		if bits.Next() == 1 {
			path[i] = DirectionRight
			if position < rows {
				position++
			}
		} else {
			path[i] = DirectionLeft
			if position > 0 {
				position--
			}
		}
	}

	return Outcome{
		Variant: VariantPlinko,
		Plinko: &PlinkoResult{
			Rows:          rows,
			Risk:          risk,
			Path:          path,
			FinalBinIndex: position,
			Multiplier:    table[position],
		},
	}, nil
}

func plinkoParams(params map[string]any) (int, Risk, error) {
	rows, err := intParam(VariantPlinko, params, "rows", plinkoDefaultRows)
	if err != nil {
		return 0, "", err
	}
	if rows < plinkoMinRows || rows > plinkoMaxRows {
		return 0, "", paramErr(VariantPlinko, "rows", "must be between %d and %d, got %d", plinkoMinRows, plinkoMaxRows, rows)
	}

	risk, err := riskParam(VariantPlinko, params, plinkoDefaultRisk)
	if err != nil {
		return 0, "", err
	}

	return rows, risk, nil
}
