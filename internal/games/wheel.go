package games

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

const wheelDefaultSegments = 10

var wheelDefaultRisk = RiskLow

// Wheel payout tables, indexed segments -> risk -> per-segment multiplier.
var wheelPayoutFloats = map[int]map[Risk][]float64{
	10: {
		RiskLow:    {1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0},
		RiskMedium: {0, 1.9, 0, 1.5, 0, 2, 0, 1.5, 0, 3},
		RiskHigh:   {0, 0, 0, 0, 0, 0, 0, 0, 0, 9.9},
	},
	20: {
		RiskLow: {
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
		},
		RiskMedium: {
			1.5, 0, 2, 0, 2, 0, 2, 0, 1.5, 0,
			3, 0, 1.8, 0, 2, 0, 2, 0, 2, 0,
		},
		RiskHigh: {
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 19.8,
		},
	},
	30: {
		RiskLow: {
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
		},
		RiskMedium: {
			1.5, 0, 1.5, 0, 2, 0, 1.5, 0, 2, 0,
			2, 0, 1.5, 0, 3, 0, 1.5, 0, 2, 0,
			2, 0, 1.7, 0, 4, 0, 1.5, 0, 2, 0,
		},
		RiskHigh: {
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 29.7,
		},
	},
	40: {
		RiskLow: {
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
		},
		RiskMedium: {
			2, 0, 3, 0, 2, 0, 1.5, 0, 3, 0,
			1.5, 0, 1.5, 0, 2, 0, 1.5, 0, 3, 0,
			1.5, 0, 2, 0, 2, 0, 1.6, 0, 2, 0,
			1.5, 0, 3, 0, 1.5, 0, 2, 0, 1.5, 0,
		},
		RiskHigh: {
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 39.6,
		},
	},
	50: {
		RiskLow: {
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
			1.5, 1.2, 1.2, 1.2, 0, 1.2, 1.2, 1.2, 1.2, 0,
		},
		RiskMedium: {
			2, 0, 1.5, 0, 2, 0, 1.5, 0, 3, 0,
			1.5, 0, 1.5, 0, 2, 0, 1.5, 0, 3, 0,
			1.5, 0, 2, 0, 1.5, 0, 2, 0, 2, 0,
			1.5, 0, 3, 0, 1.5, 0, 2, 0, 1.5, 0,
			1.5, 0, 5, 0, 1.5, 0, 2, 0, 1.5, 0,
		},
		RiskHigh: {
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 49.5,
		},
	},
}

var wheelPayouts = convertWheelPayouts(wheelPayoutFloats)

func convertWheelPayouts(src map[int]map[Risk][]float64) map[int]map[Risk][]decimal.Decimal {
	out := make(map[int]map[Risk][]decimal.Decimal, len(src))
	for segments, risks := range src {
		out[segments] = make(map[Risk][]decimal.Decimal, len(risks))
		for risk, floats := range risks {
			table := make([]decimal.Decimal, len(floats))
			for i, f := range floats {
				table[i] = decimal.NewFromFloat(f)
			}
			out[segments][risk] = table
		}
	}
	return out
}

// WheelResult is the landed segment and its multiplier.
type WheelResult struct {
	Segments     int             `json:"segments"`
	Risk         Risk            `json:"risk"`
	SegmentIndex int             `json:"segment_index"`
	Multiplier   decimal.Decimal `json:"multiplier"`
}

// WheelGame implements the Wheel provably fair game.
type WheelGame struct{}

// Spec returns metadata about the Wheel game.
func (g *WheelGame) Spec() GameSpec {
	return GameSpec{
		ID:          VariantWheel,
		Name:        "Wheel",
		MetricLabel: "segment",
		Defaults: map[string]any{
			"segments": wheelDefaultSegments,
			"risk":     string(wheelDefaultRisk),
		},
	}
}

// Validate checks segments and risk.
func (g *WheelGame) Validate(params map[string]any) error {
	_, _, err := wheelParams(params)
	return err
}

// Generate lands on uint32(seed[0..4]) mod segments.
func (g *WheelGame) Generate(seed engine.Seed, params map[string]any) (Outcome, error) {
	segments, risk, err := wheelParams(params)
	if err != nil {
		return Outcome{}, err
	}

	table, err := wheelTable(segments, risk)
	if err != nil {
		return Outcome{}, err
	}

	index := int(seed.Uint32() % uint32(segments))

	return Outcome{
		Variant: VariantWheel,
		Wheel: &WheelResult{
			Segments:     segments,
			Risk:         risk,
			SegmentIndex: index,
			Multiplier:   table[index],
		},
	}, nil
}

func wheelTable(segments int, risk Risk) ([]decimal.Decimal, error) {
	riskTable, ok := wheelPayouts[segments]
	if !ok {
		return nil, paramErr(VariantWheel, "segments", "no payout table for %d segments", segments)
	}

	table, ok := riskTable[risk]
	if !ok {
		return nil, paramErr(VariantWheel, "risk", "no payout table for risk %q with %d segments", risk, segments)
	}

	if len(table) != segments {
		return nil, fmt.Errorf("%w: %d entries for %d segments", ErrSegmentCountMismatch, len(table), segments)
	}

	return table, nil
}

func wheelParams(params map[string]any) (int, Risk, error) {
	segments, err := intParam(VariantWheel, params, "segments", wheelDefaultSegments)
	if err != nil {
		return 0, "", err
	}
	if _, ok := wheelPayouts[segments]; !ok {
		return 0, "", paramErr(VariantWheel, "segments", "must be one of 10, 20, 30, 40, 50; got %d", segments)
	}

	risk, err := riskParam(VariantWheel, params, wheelDefaultRisk)
	if err != nil {
		return 0, "", err
	}

	return segments, risk, nil
}
