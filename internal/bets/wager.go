package bets

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/games"
)

var (
	// ErrInvalidWager is wrapped by every *InvalidWagerError.
	ErrInvalidWager = errors.New("invalid wager")
	// ErrNoWagers is returned when a wager list is empty.
	ErrNoWagers = errors.New("no wagers")
)

// InvalidWagerError names the rejected wager and field.
type InvalidWagerError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidWagerError) Error() string {
	return fmt.Sprintf("wager %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *InvalidWagerError) Unwrap() error { return ErrInvalidWager }

func invalid(index int, field, format string, args ...any) *InvalidWagerError {
	return &InvalidWagerError{Index: index, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Wager is a validated stake on one shape.
type Wager struct {
	Shape  Shape
	Amount decimal.Decimal
}

// WagerSpec is the wire form of a wager.
type WagerSpec struct {
	Shape   Kind            `json:"shape" validate:"required"`
	Number  *int            `json:"number,omitempty"`
	Numbers []int           `json:"numbers,omitempty"`
	Index   *int            `json:"index,omitempty"`
	Color   string          `json:"color,omitempty"`
	Parity  string          `json:"parity,omitempty"`
	Range   string          `json:"range,omitempty"`
	Cells   []int           `json:"cells,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// Spec returns the canonical wire form of w.
func (w Wager) Spec() WagerSpec {
	spec := WagerSpec{Shape: w.Shape.Kind(), Amount: w.Amount}
	switch s := w.Shape.(type) {
	case Straight:
		spec.Number = lo.ToPtr(s.Number)
	case Split:
		spec.Numbers = s.Numbers[:]
	case Street:
		spec.Numbers = s.Numbers[:]
	case Corner:
		spec.Numbers = s.Numbers[:]
	case Line:
		spec.Numbers = s.Numbers[:]
	case Column:
		spec.Index = lo.ToPtr(s.Index)
	case Dozen:
		spec.Index = lo.ToPtr(s.Index)
	case ColorBet:
		spec.Color = string(s.Color)
	case Parity:
		spec.Parity = lo.Ternary(s.Even, "even", "odd")
	case Range:
		spec.Range = lo.Ternary(s.High, "high", "low")
	case MinesPick:
		spec.Cells = append([]int(nil), s.Cells...)
	}
	return spec
}

func (w Wager) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Spec())
}

func (w *Wager) UnmarshalJSON(data []byte) error {
	var spec WagerSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return err
	}
	parsed, err := ParseWager(0, spec)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWagers parses a wager list. The list must not be empty.
func ParseWagers(specs []WagerSpec) ([]Wager, error) {
	if len(specs) == 0 {
		return nil, ErrNoWagers
	}
	out := make([]Wager, 0, len(specs))
	for i, spec := range specs {
		w, err := ParseWager(i, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// ParseWager validates spec and returns the canonical wager. Number sets are
// sorted, so {2,5,4,1} and {1,2,4,5} name the same corner.
func ParseWager(index int, spec WagerSpec) (Wager, error) {
	if !spec.Amount.IsPositive() {
		return Wager{}, invalid(index, "amount", "must be greater than 0, got %s", spec.Amount)
	}
	if !spec.Amount.Equal(spec.Amount.Round(2)) {
		return Wager{}, invalid(index, "amount", "must have at most 2 decimals, got %s", spec.Amount)
	}

	shape, err := parseShape(index, spec)
	if err != nil {
		return Wager{}, err
	}
	return Wager{Shape: shape, Amount: spec.Amount}, nil
}

func parseShape(index int, spec WagerSpec) (Shape, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(spec.Shape))))

	switch kind {
	case KindStraight:
		if spec.Number == nil {
			return nil, invalid(index, "number", "is required")
		}
		n := *spec.Number
		if n < 0 || n > maxNumber {
			return nil, invalid(index, "number", "must be between 0 and %d, got %d", maxNumber, n)
		}
		return Straight{Number: n}, nil

	case KindSplit:
		nums, err := numberSet(index, spec.Numbers, 2)
		if err != nil {
			return nil, err
		}
		if !IsSplit(nums[0], nums[1]) {
			return nil, invalid(index, "numbers", "%v are not adjacent", nums)
		}
		return Split{Numbers: [2]int(nums)}, nil

	case KindStreet:
		nums, err := numberSet(index, spec.Numbers, 3)
		if err != nil {
			return nil, err
		}
		if !streetIndex[setKey(nums)] {
			return nil, invalid(index, "numbers", "%v is not a street", nums)
		}
		return Street{Numbers: [3]int(nums)}, nil

	case KindCorner:
		nums, err := numberSet(index, spec.Numbers, 4)
		if err != nil {
			return nil, err
		}
		if !cornerIndex[setKey(nums)] {
			return nil, invalid(index, "numbers", "%v is not a corner", nums)
		}
		return Corner{Numbers: [4]int(nums)}, nil

	case KindLine:
		nums, err := numberSet(index, spec.Numbers, 6)
		if err != nil {
			return nil, err
		}
		if !lineIndex[setKey(nums)] {
			return nil, invalid(index, "numbers", "%v is not a line", nums)
		}
		return Line{Numbers: [6]int(nums)}, nil

	case KindColumn, KindDozen:
		if spec.Index == nil {
			return nil, invalid(index, "index", "is required")
		}
		i := *spec.Index
		if i < 0 || i > 2 {
			return nil, invalid(index, "index", "must be 0, 1 or 2, got %d", i)
		}
		if kind == KindColumn {
			return Column{Index: i}, nil
		}
		return Dozen{Index: i}, nil

	case KindColor:
		switch c := games.Color(strings.ToLower(spec.Color)); c {
		case games.ColorRed, games.ColorBlack:
			return ColorBet{Color: c}, nil
		default:
			return nil, invalid(index, "color", "must be red or black, got %q", spec.Color)
		}

	case KindParity:
		switch strings.ToLower(spec.Parity) {
		case "odd":
			return Parity{Even: false}, nil
		case "even":
			return Parity{Even: true}, nil
		default:
			return nil, invalid(index, "parity", "must be odd or even, got %q", spec.Parity)
		}

	case KindRange:
		switch strings.ToLower(spec.Range) {
		case "low":
			return Range{High: false}, nil
		case "high":
			return Range{High: true}, nil
		default:
			return nil, invalid(index, "range", "must be low or high, got %q", spec.Range)
		}

	case KindMinesPick:
		if len(spec.Cells) == 0 {
			return nil, invalid(index, "cells", "must pick at least one cell")
		}
		if len(lo.Uniq(spec.Cells)) != len(spec.Cells) {
			return nil, invalid(index, "cells", "must be distinct, got %v", spec.Cells)
		}
		for _, c := range spec.Cells {
			if c < 0 {
				return nil, invalid(index, "cells", "must not be negative, got %d", c)
			}
		}
		return MinesPick{Cells: append([]int(nil), spec.Cells...)}, nil

	case KindPlinkoDrop:
		return PlinkoDrop{}, nil

	case KindWheelSpin:
		return WheelSpin{}, nil
	}

	return nil, invalid(index, "shape", "unknown bet shape %q", spec.Shape)
}

func numberSet(index int, numbers []int, size int) ([]int, error) {
	if len(numbers) != size {
		return nil, invalid(index, "numbers", "must hold %d numbers, got %d", size, len(numbers))
	}
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	for i, n := range sorted {
		if n < 0 || n > maxNumber {
			return nil, invalid(index, "numbers", "%d is outside 0-%d", n, maxNumber)
		}
		if i > 0 && sorted[i-1] == n {
			return nil, invalid(index, "numbers", "%d appears twice", n)
		}
	}
	return sorted, nil
}

// ValidateFor checks that every wager can be placed on variant with params.
// Mines picks must stay on the board and leave a safe cell to open.
func ValidateFor(variant games.Variant, params map[string]any, wagers []Wager) error {
	if len(wagers) == 0 {
		return ErrNoWagers
	}

	var totalCells, mineCount int
	if variant == games.VariantMines {
		var err error
		totalCells, mineCount, err = games.MinesBoard(params)
		if err != nil {
			return err
		}
	}

	for i, w := range wagers {
		if w.Shape == nil {
			return invalid(i, "shape", "is required")
		}
		if w.Shape.Game() != variant {
			return invalid(i, "shape", "%s cannot be placed on %s", w.Shape.Kind(), variant)
		}
		pick, ok := w.Shape.(MinesPick)
		if !ok {
			continue
		}
		if len(pick.Cells) > totalCells-mineCount {
			return invalid(i, "cells", "picks %d cells but only %d are safe", len(pick.Cells), totalCells-mineCount)
		}
		for _, c := range pick.Cells {
			if c >= totalCells {
				return invalid(i, "cells", "%d is outside the %d-cell board", c, totalCells)
			}
		}
	}
	return nil
}

// TotalStake sums the wager amounts.
func TotalStake(wagers []Wager) decimal.Decimal {
	return lo.Reduce(wagers, func(acc decimal.Decimal, w Wager, _ int) decimal.Decimal {
		return acc.Add(w.Amount)
	}, decimal.Zero)
}
