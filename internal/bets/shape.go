package bets

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/games"
)

// Kind is the tag of a bet shape.
type Kind string

const (
	KindStraight Kind = "straight"
	KindSplit    Kind = "split"
	KindStreet   Kind = "street"
	KindCorner   Kind = "corner"
	KindLine     Kind = "line"
	KindColumn   Kind = "column"
	KindDozen    Kind = "dozen"
	KindColor    Kind = "color"
	KindParity   Kind = "parity"
	KindRange    Kind = "range"

	KindMinesPick  Kind = "mines_pick"
	KindPlinkoDrop Kind = "plinko_drop"
	KindWheelSpin  Kind = "wheel_spin"
)

// Shape is a closed union: only the types in this file implement it.
type Shape interface {
	Kind() Kind
	// Game is the only variant the shape can be placed on.
	Game() games.Variant
	sealed()
}

// Straight covers a single number 0-36.
type Straight struct{ Number int }

// Split covers two adjacent numbers, stored ascending.
type Split struct{ Numbers [2]int }

// Street covers a row, or one of the zero trios, stored ascending.
type Street struct{ Numbers [3]int }

// Corner covers a four-number square, stored ascending.
type Corner struct{ Numbers [4]int }

// Line covers two adjacent rows, stored ascending.
type Line struct{ Numbers [6]int }

// Column covers the numbers n with n mod 3 == Index.
type Column struct{ Index int }

// Dozen covers 12*Index+1 .. 12*Index+12.
type Dozen struct{ Index int }

// ColorBet wins when the pocket has Color. Zero always loses.
type ColorBet struct{ Color games.Color }

// Parity wins on odd or even numbers. Zero always loses.
type Parity struct{ Even bool }

// Range wins on 1-18 (low) or 19-36 (high).
type Range struct{ High bool }

// MinesPick opens Cells in order and cashes out after the last one.
type MinesPick struct{ Cells []int }

// PlinkoDrop pays the landing bin's multiplier.
type PlinkoDrop struct{}

// WheelSpin pays the landed segment's multiplier.
type WheelSpin struct{}

func (Straight) Kind() Kind   { return KindStraight }
func (Split) Kind() Kind      { return KindSplit }
func (Street) Kind() Kind     { return KindStreet }
func (Corner) Kind() Kind     { return KindCorner }
func (Line) Kind() Kind       { return KindLine }
func (Column) Kind() Kind     { return KindColumn }
func (Dozen) Kind() Kind      { return KindDozen }
func (ColorBet) Kind() Kind   { return KindColor }
func (Parity) Kind() Kind     { return KindParity }
func (Range) Kind() Kind      { return KindRange }
func (MinesPick) Kind() Kind  { return KindMinesPick }
func (PlinkoDrop) Kind() Kind { return KindPlinkoDrop }
func (WheelSpin) Kind() Kind  { return KindWheelSpin }

func (Straight) Game() games.Variant   { return games.VariantRoulette }
func (Split) Game() games.Variant      { return games.VariantRoulette }
func (Street) Game() games.Variant     { return games.VariantRoulette }
func (Corner) Game() games.Variant     { return games.VariantRoulette }
func (Line) Game() games.Variant       { return games.VariantRoulette }
func (Column) Game() games.Variant     { return games.VariantRoulette }
func (Dozen) Game() games.Variant      { return games.VariantRoulette }
func (ColorBet) Game() games.Variant   { return games.VariantRoulette }
func (Parity) Game() games.Variant     { return games.VariantRoulette }
func (Range) Game() games.Variant      { return games.VariantRoulette }
func (MinesPick) Game() games.Variant  { return games.VariantMines }
func (PlinkoDrop) Game() games.Variant { return games.VariantPlinko }
func (WheelSpin) Game() games.Variant  { return games.VariantWheel }

func (Straight) sealed()   {}
func (Split) sealed()      {}
func (Street) sealed()     {}
func (Corner) sealed()     {}
func (Line) sealed()       {}
func (Column) sealed()     {}
func (Dozen) sealed()      {}
func (ColorBet) sealed()   {}
func (Parity) sealed()     {}
func (Range) sealed()      {}
func (MinesPick) sealed()  {}
func (PlinkoDrop) sealed() {}
func (WheelSpin) sealed()  {}

// Roulette ratios include the returned stake.
var rouletteRatios = map[Kind]decimal.Decimal{
	KindStraight: decimal.NewFromInt(36),
	KindSplit:    decimal.NewFromInt(18),
	KindStreet:   decimal.NewFromInt(12),
	KindCorner:   decimal.NewFromInt(9),
	KindLine:     decimal.NewFromInt(6),
	KindDozen:    decimal.NewFromInt(3),
	KindColumn:   decimal.NewFromInt(3),
	KindColor:    decimal.NewFromInt(2),
	KindParity:   decimal.NewFromInt(2),
	KindRange:    decimal.NewFromInt(2),
}

// RouletteRatio returns the fixed payout ratio of a roulette shape kind.
func RouletteRatio(k Kind) (decimal.Decimal, bool) {
	r, ok := rouletteRatios[k]
	return r, ok
}

// Covers returns the numbers a roulette shape wins on, or nil for shapes of
// other games.
func Covers(s Shape) []int {
	switch v := s.(type) {
	case Straight:
		return []int{v.Number}
	case Split:
		return v.Numbers[:]
	case Street:
		return v.Numbers[:]
	case Corner:
		return v.Numbers[:]
	case Line:
		return v.Numbers[:]
	case Column:
		return Columns[v.Index]
	case Dozen:
		return Dozens[v.Index]
	case ColorBet:
		var out []int
		for n := 1; n <= maxNumber; n++ {
			if games.PocketColor(n) == v.Color {
				out = append(out, n)
			}
		}
		return out
	case Parity:
		var out []int
		for n := 1; n <= maxNumber; n++ {
			if (n%2 == 0) == v.Even {
				out = append(out, n)
			}
		}
		return out
	case Range:
		lo, hi := 1, 18
		if v.High {
			lo, hi = 19, 36
		}
		out := make([]int, 0, 18)
		for n := lo; n <= hi; n++ {
			out = append(out, n)
		}
		return out
	}
	return nil
}
