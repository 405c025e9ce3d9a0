package games

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

const (
	minesDefaultCells = 25
	minesMinCells     = 2
	minesMaxCells     = 64
	minesDefaultCount = 3
	minesMinCount     = 1
)

// minesSingleSafeMultiplier is paid when a board has exactly one safe cell.
var minesSingleSafeMultiplier = decimal.RequireFromString("25.00")

// MinesResult holds the mine layout. MinePositions is sorted; DrawOrder keeps
// the order in which the cells were sampled.
type MinesResult struct {
	MinePositions []int `json:"mine_positions"`
	DrawOrder     []int `json:"draw_order"`
	TotalCells    int   `json:"total_cells"`
	MineCount     int   `json:"mine_count"`
}

// IsMine reports whether cell holds a mine.
func (r *MinesResult) IsMine(cell int) bool {
	i := sort.SearchInts(r.MinePositions, cell)
	return i < len(r.MinePositions) && r.MinePositions[i] == cell
}

// MinesGame implements the Mines provably fair game on a board of
// totalCells cells (a 5x5 grid by default).
type MinesGame struct{}

// Spec returns metadata about the Mines game.
func (g *MinesGame) Spec() GameSpec {
	return GameSpec{
		ID:          VariantMines,
		Name:        "Mines",
		MetricLabel: "first_mine",
		Defaults: map[string]any{
			"totalCells": minesDefaultCells,
			"mineCount":  minesDefaultCount,
		},
	}
}

// Validate rejects boards that could never be generated.
func (g *MinesGame) Validate(params map[string]any) error {
	_, _, err := minesParams(params)
	if errors.Is(err, ErrMineCountExceedsCells) {
		return paramErr(VariantMines, "mineCount", "%v", err)
	}
	return err
}

// Generate samples mineCount distinct cells without replacement. Draw i takes
// SubSeed(seed, i) modulo the number of cells still available.
func (g *MinesGame) Generate(seed engine.Seed, params map[string]any) (Outcome, error) {
	totalCells, mineCount, err := minesParams(params)
	if err != nil {
		return Outcome{}, err
	}

	pool := make([]int, totalCells)
	for i := range pool {
		pool[i] = i
	}

	order := make([]int, 0, mineCount)
	for i := 0; i < mineCount; i++ {
		if len(pool) == 0 {
			return Outcome{}, fmt.Errorf("%w: pool exhausted after %d draws", ErrMineCountExceedsCells, i)
		}

		sub := engine.SubSeed(seed, uint32(i))
		index := int(sub.Uint32() % uint32(len(pool)))

		order = append(order, pool[index])
		pool = append(pool[:index], pool[index+1:]...)
	}

	positions := make([]int, len(order))
	copy(positions, order)
	sort.Ints(positions)

	return Outcome{
		Variant: VariantMines,
		Mines: &MinesResult{
			MinePositions: positions,
			DrawOrder:     order,
			TotalCells:    totalCells,
			MineCount:     mineCount,
		},
	}, nil
}

// MinesBoard resolves totalCells and mineCount from params, applying defaults.
func MinesBoard(params map[string]any) (totalCells, mineCount int, err error) {
	totalCells, mineCount, err = minesParams(params)
	if errors.Is(err, ErrMineCountExceedsCells) {
		return 0, 0, paramErr(VariantMines, "mineCount", "%v", err)
	}
	return totalCells, mineCount, err
}

func minesParams(params map[string]any) (int, int, error) {
	totalCells, err := intParam(VariantMines, params, "totalCells", minesDefaultCells)
	if err != nil {
		return 0, 0, err
	}
	if totalCells < minesMinCells || totalCells > minesMaxCells {
		return 0, 0, paramErr(VariantMines, "totalCells", "must be between %d and %d, got %d", minesMinCells, minesMaxCells, totalCells)
	}

	mineCount, err := intParam(VariantMines, params, "mineCount", minesDefaultCount)
	if err != nil {
		return 0, 0, err
	}
	if mineCount < minesMinCount {
		return 0, 0, paramErr(VariantMines, "mineCount", "must be at least %d, got %d", minesMinCount, mineCount)
	}
	if mineCount >= totalCells {
		return 0, 0, fmt.Errorf("%w: %d mines on %d cells", ErrMineCountExceedsCells, mineCount, totalCells)
	}

	return totalCells, mineCount, nil
}

// MinesMultiplier is the payout multiplier for the next reveal once revealed
// safe cells are open: totalCells / (totalCells - mineCount - revealed),
// rounded half-up to 2 decimals. A board with a single safe cell pays the
// fixed 25.00. When no further reveal is possible the previous multiplier is
// returned unchanged.
func MinesMultiplier(totalCells, mineCount, revealed int) decimal.Decimal {
	safe := totalCells - mineCount
	if safe < 1 {
		return decimal.Zero
	}
	if revealed < 0 {
		revealed = 0
	}
	if revealed > safe-1 {
		revealed = safe - 1
	}
	if safe == 1 {
		return minesSingleSafeMultiplier
	}

	denominator := safe - revealed
	return decimal.NewFromInt(int64(totalCells)).
		Div(decimal.NewFromInt(int64(denominator))).
		Round(2)
}
