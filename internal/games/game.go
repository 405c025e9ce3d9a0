package games

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

// Variant identifies one of the supported games.
type Variant string

const (
	VariantRoulette Variant = "roulette"
	VariantMines    Variant = "mines"
	VariantPlinko   Variant = "plinko"
	VariantWheel    Variant = "wheel"
)

var (
	// ErrUnknownVariant is returned for a game id that is not registered.
	ErrUnknownVariant = errors.New("unknown game variant")
	// ErrInvalidParams wraps every rejected game parameter.
	ErrInvalidParams = errors.New("invalid game parameters")
	// ErrMineCountExceedsCells means the board cannot hold the requested mines.
	ErrMineCountExceedsCells = errors.New("mine count must be lower than total cells")
	// ErrSegmentCountMismatch means a wheel table does not cover every segment.
	ErrSegmentCountMismatch = errors.New("wheel table length does not match segment count")
)

// ParamError names the parameter that was rejected.
type ParamError struct {
	Game   Variant
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Game, e.Field, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParams }

func paramErr(game Variant, field, format string, args ...any) error {
	return &ParamError{Game: game, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err signals an engine defect rather than bad input.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMineCountExceedsCells) || errors.Is(err, ErrSegmentCountMismatch)
}

// GameSpec describes a registered game.
type GameSpec struct {
	ID          Variant        `json:"id"`
	Name        string         `json:"name"`
	MetricLabel string         `json:"metric_label"`
	Defaults    map[string]any `json:"defaults,omitempty"`
}

// Game is a pure outcome generator. Generate must depend on nothing but the
// seed and params: no clock, no shared state, no extra entropy.
type Game interface {
	Spec() GameSpec
	Validate(params map[string]any) error
	Generate(seed engine.Seed, params map[string]any) (Outcome, error)
}

// Outcome is a tagged result; exactly one of the variant fields is set.
type Outcome struct {
	Variant  Variant         `json:"variant"`
	Roulette *RouletteResult `json:"roulette,omitempty"`
	Mines    *MinesResult    `json:"mines,omitempty"`
	Plinko   *PlinkoResult   `json:"plinko,omitempty"`
	Wheel    *WheelResult    `json:"wheel,omitempty"`
}

// Metric returns a single number that summarizes the outcome: the pocket,
// the first mine position, the plinko bin, or the wheel segment.
func (o Outcome) Metric() float64 {
	switch {
	case o.Roulette != nil:
		return float64(o.Roulette.Number)
	case o.Mines != nil && len(o.Mines.MinePositions) > 0:
		return float64(o.Mines.MinePositions[0])
	case o.Plinko != nil:
		return float64(o.Plinko.FinalBinIndex)
	case o.Wheel != nil:
		return float64(o.Wheel.SegmentIndex)
	}
	return 0
}

var registry = map[Variant]Game{
	VariantRoulette: &RouletteGame{},
	VariantMines:    &MinesGame{},
	VariantPlinko:   &PlinkoGame{},
	VariantWheel:    &WheelGame{},
}

// Lookup returns the generator for a variant.
func Lookup(v Variant) (Game, error) {
	g, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return g, nil
}

// List returns the specs of all registered games ordered by id.
func List() []GameSpec {
	specs := make([]GameSpec, 0, len(registry))
	for _, g := range registry {
		specs = append(specs, g.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Generate looks up the variant and runs its generator.
func Generate(v Variant, seed engine.Seed, params map[string]any) (Outcome, error) {
	g, err := Lookup(v)
	if err != nil {
		return Outcome{}, err
	}
	return g.Generate(seed, params)
}
