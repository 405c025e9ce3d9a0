package bets

import (
	"testing"
)

func TestCheckBoard(t *testing.T) {
	if err := CheckBoard(); err != nil {
		t.Fatalf("CheckBoard() error = %v", err)
	}
}

func TestBoardTableSizes(t *testing.T) {
	if len(Streets) != 14 {
		t.Errorf("expected 14 streets, got %d", len(Streets))
	}
	if len(Corners) != 22 {
		t.Errorf("expected 22 corners, got %d", len(Corners))
	}
	if len(Lines) != 11 {
		t.Errorf("expected 11 lines, got %d", len(Lines))
	}
}

func TestColumnsByRemainder(t *testing.T) {
	for i, col := range Columns {
		for _, n := range col {
			if n%3 != i {
				t.Errorf("column %d holds %d", i, n)
			}
		}
	}
}

func TestSplitNeighbors(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, []int{1, 2, 3}},
		{1, []int{0, 2, 4}},
		{2, []int{0, 1, 3, 5}},
		{5, []int{2, 4, 6, 8}},
		{36, []int{33, 35}},
	}

	for _, tt := range tests {
		got := SplitNeighbors(tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("SplitNeighbors(%d) = %v, want %v", tt.n, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitNeighbors(%d) = %v, want %v", tt.n, got, tt.want)
				break
			}
		}
	}

	if IsSplit(3, 4) {
		t.Error("3 and 4 sit on different rows and must not form a split")
	}
}

func TestCornersAt(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{5, 4},
		{34, 1},
		{36, 1},
	}

	for _, tt := range tests {
		if got := len(CornersAt(tt.n)); got != tt.want {
			t.Errorf("len(CornersAt(%d)) = %d, want %d", tt.n, got, tt.want)
		}
	}

	found := false
	for _, c := range CornersAt(5) {
		if setKey(c) == setKey([]int{1, 2, 4, 5}) {
			found = true
		}
	}
	if !found {
		t.Error("expected corner {1,2,4,5} to touch 5")
	}
}
