package games

import (
	"encoding/binary"
	"testing"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

func rouletteSeed(value uint32) engine.Seed {
	var seed engine.Seed
	binary.BigEndian.PutUint32(seed[:4], value)
	return seed
}

func TestRouletteGame(t *testing.T) {
	game := &RouletteGame{}

	spec := game.Spec()
	if spec.ID != VariantRoulette {
		t.Errorf("Expected ID 'roulette', got '%s'", spec.ID)
	}
	if spec.MetricLabel != "pocket" {
		t.Errorf("Expected metric label 'pocket', got '%s'", spec.MetricLabel)
	}
}

func TestRoulettePocketFromSeed(t *testing.T) {
	game := &RouletteGame{}

	tests := []struct {
		prefix uint32
		want   int
		color  Color
	}{
		{0, 0, ColorGreen},
		{17, 17, ColorRed},
		{37 + 17, 17, ColorRed},
		{36, 36, ColorRed},
		{37*1000 + 2, 2, ColorBlack},
		{0xFFFFFFFF, int(uint32(0xFFFFFFFF) % 37), PocketColor(int(uint32(0xFFFFFFFF) % 37))},
	}

	for _, tt := range tests {
		out, err := game.Generate(rouletteSeed(tt.prefix), nil)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if out.Roulette.Number != tt.want {
			t.Errorf("prefix %d: pocket = %d, want %d", tt.prefix, out.Roulette.Number, tt.want)
		}
		if out.Roulette.Color != tt.color {
			t.Errorf("prefix %d: color = %s, want %s", tt.prefix, out.Roulette.Color, tt.color)
		}
	}
}

func TestRouletteZeroProperties(t *testing.T) {
	out, _ := (&RouletteGame{}).Generate(rouletteSeed(0), nil)
	if out.Roulette.Even || out.Roulette.Low {
		t.Error("zero must be neither even nor low")
	}
}

func TestPocketColors(t *testing.T) {
	reds, blacks := 0, 0
	for n := 1; n <= 36; n++ {
		switch PocketColor(n) {
		case ColorRed:
			reds++
		case ColorBlack:
			blacks++
		default:
			t.Errorf("pocket %d has color %s", n, PocketColor(n))
		}
	}
	if reds != 18 || blacks != 18 {
		t.Errorf("expected 18 red and 18 black, got %d and %d", reds, blacks)
	}
}

func TestRouletteDistribution(t *testing.T) {
	const trials = 37 * 1000
	game := &RouletteGame{}
	base := fixtureSeed("roulette-distribution")

	counts := make([]int, RoulettePockets)
	for i := 0; i < trials; i++ {
		out, err := game.Generate(engine.DeriveSeed(base, uint64(i)), nil)
		if err != nil {
			t.Fatal(err)
		}
		n := out.Roulette.Number
		if n < 0 || n > 36 {
			t.Fatalf("pocket %d out of range", n)
		}
		counts[n]++
	}

	expected := float64(trials) / RoulettePockets
	chi2 := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}

	// 36 degrees of freedom; 80 is far beyond the 0.9999 quantile.
	if chi2 > 80 {
		t.Errorf("chi-square %.2f suggests a non-uniform pocket distribution: %v", chi2, counts)
	}
}
