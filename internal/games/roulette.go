package games

import (
	"github.com/MJE43/pf-casino-engine/internal/engine"
)

// RoulettePockets is the number of pockets on a single-zero wheel.
const RoulettePockets = 37

// Color of a roulette pocket.
type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
	ColorBlack Color = "black"
)

// redNumbers is the fixed red set of the European layout.
var redNumbers = [RoulettePockets]bool{
	1: true, 3: true, 5: true, 7: true, 9: true,
	12: true, 14: true, 16: true, 18: true, 19: true,
	21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

// PocketColor returns the color of n, which must be in [0,36].
func PocketColor(n int) Color {
	if n == 0 {
		return ColorGreen
	}
	if n > 0 && n < RoulettePockets && redNumbers[n] {
		return ColorRed
	}
	return ColorBlack
}

// RouletteResult is the landed pocket with its derived properties.
type RouletteResult struct {
	Number int   `json:"number"`
	Color  Color `json:"color"`
	Even   bool  `json:"even"`
	Low    bool  `json:"low"`
}

// RouletteGame implements European Roulette (0-36).
type RouletteGame struct{}

// Spec returns metadata about the Roulette game
func (g *RouletteGame) Spec() GameSpec {
	return GameSpec{
		ID:          VariantRoulette,
		Name:        "Roulette",
		MetricLabel: "pocket",
	}
}

// Validate accepts any params; roulette has none.
func (g *RouletteGame) Validate(params map[string]any) error {
	return nil
}

// Generate picks the pocket as uint32(seed[0..4]) mod 37.
func (g *RouletteGame) Generate(seed engine.Seed, params map[string]any) (Outcome, error) {
	pocket := int(seed.Uint32() % RoulettePockets)

	return Outcome{
		Variant:  VariantRoulette,
		Roulette: newRouletteResult(pocket),
	}, nil
}

func newRouletteResult(pocket int) *RouletteResult {
	res := &RouletteResult{
		Number: pocket,
		Color:  PocketColor(pocket),
	}
	if pocket != 0 {
		res.Even = pocket%2 == 0
		res.Low = pocket <= 18
	}
	return res
}
