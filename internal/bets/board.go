package bets

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// The board is the canonical 3x12 table: row r holds 3r+1, 3r+2, 3r+3, and
// 0 sits above the first row touching 1, 2 and 3. All tables below are built
// once at init from that layout and are read-only afterwards.

const (
	boardRows    = 12
	boardColumns = 3
	maxNumber    = 36
)

var (
	// Dozens[i] is the block {12i+1 .. 12i+12}.
	Dozens = buildDozens()
	// Columns[i] holds the numbers n with n mod 3 == i.
	Columns = buildColumns()
	// Streets are the 12 rows plus the two zero trios {0,1,2} and {0,2,3}.
	Streets = buildStreets()
	// Corners are the 22 four-number squares of the layout.
	Corners = buildCorners()
	// Lines are the 11 pairs of adjacent rows.
	Lines = buildLines()

	splitAdjacency = buildSplits()
	cornersAt      = buildCornersAt()

	streetIndex = indexSets(Streets)
	cornerIndex = indexSets(Corners)
	lineIndex   = indexSets(Lines)
)

func boardRow(r int) []int {
	return []int{3*r + 1, 3*r + 2, 3*r + 3}
}

func buildDozens() [3][]int {
	var out [3][]int
	for i := range out {
		for n := 12*i + 1; n <= 12*i+12; n++ {
			out[i] = append(out[i], n)
		}
	}
	return out
}

func buildColumns() [3][]int {
	var out [3][]int
	for n := 1; n <= maxNumber; n++ {
		out[n%boardColumns] = append(out[n%boardColumns], n)
	}
	return out
}

func buildStreets() [][]int {
	out := [][]int{{0, 1, 2}, {0, 2, 3}}
	for r := 0; r < boardRows; r++ {
		out = append(out, boardRow(r))
	}
	return out
}

func buildCorners() [][]int {
	var out [][]int
	for n := 1; n <= maxNumber-4; n++ {
		if n%boardColumns == 0 {
			continue
		}
		out = append(out, []int{n, n + 1, n + 3, n + 4})
	}
	return out
}

func buildLines() [][]int {
	var out [][]int
	for r := 0; r < boardRows-1; r++ {
		out = append(out, append(boardRow(r), boardRow(r+1)...))
	}
	return out
}

func buildSplits() map[int][]int {
	adj := make(map[int][]int, maxNumber+1)
	link := func(a, b int) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	for _, n := range []int{1, 2, 3} {
		link(0, n)
	}
	for n := 1; n <= maxNumber; n++ {
		if n%boardColumns != 0 {
			link(n, n+1)
		}
		if n+boardColumns <= maxNumber {
			link(n, n+boardColumns)
		}
	}

	for n := range adj {
		sort.Ints(adj[n])
	}
	return adj
}

func buildCornersAt() map[int][][]int {
	out := make(map[int][][]int, maxNumber)
	for _, c := range Corners {
		for _, n := range c {
			out[n] = append(out[n], c)
		}
	}
	return out
}

func indexSets(sets [][]int) map[string]bool {
	idx := make(map[string]bool, len(sets))
	for _, s := range sets {
		idx[setKey(s)] = true
	}
	return idx
}

func setKey(numbers []int) string {
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	return fmt.Sprint(sorted)
}

// SplitNeighbors returns the numbers that form a split with n.
func SplitNeighbors(n int) []int {
	return append([]int(nil), splitAdjacency[n]...)
}

// CornersAt returns every corner containing n: one at the board's corners,
// two along its edges and four elsewhere. Zero has none.
func CornersAt(n int) [][]int {
	return cornersAt[n]
}

// IsSplit reports whether a and b are adjacent on the layout.
func IsSplit(a, b int) bool {
	return lo.Contains(splitAdjacency[a], b)
}

// CheckBoard verifies the structural invariants of the static tables.
func CheckBoard() error {
	if err := checkPartition("dozens", Dozens); err != nil {
		return err
	}
	if err := checkPartition("columns", Columns); err != nil {
		return err
	}

	for a, neighbors := range splitAdjacency {
		for _, b := range neighbors {
			if !lo.Contains(splitAdjacency[b], a) {
				return fmt.Errorf("split %d-%d is not symmetric", a, b)
			}
		}
	}

	for _, c := range Corners {
		if len(lo.Uniq(c)) != 4 {
			return fmt.Errorf("corner %v does not hold 4 distinct numbers", c)
		}
		if !IsSplit(c[0], c[1]) || !IsSplit(c[0], c[2]) || !IsSplit(c[3], c[1]) || !IsSplit(c[3], c[2]) {
			return fmt.Errorf("corner %v is not a square on the layout", c)
		}
	}

	for _, l := range Lines {
		if len(lo.Uniq(l)) != 6 {
			return fmt.Errorf("line %v does not hold 6 distinct numbers", l)
		}
	}
	return nil
}

func checkPartition(name string, blocks [3][]int) error {
	owner := make(map[int]int, maxNumber)
	for i, block := range blocks {
		if len(block) != 12 {
			return fmt.Errorf("%s[%d] holds %d numbers, want 12", name, i, len(block))
		}
		for _, n := range block {
			if prev, dup := owner[n]; dup {
				return fmt.Errorf("%d appears in %s %d and %d", n, name, prev, i)
			}
			owner[n] = i
		}
	}
	for n := 1; n <= maxNumber; n++ {
		if _, ok := owner[n]; !ok {
			return fmt.Errorf("%d is not covered by %s", n, name)
		}
	}
	return nil
}
