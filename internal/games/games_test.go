package games

import (
	"errors"
	"reflect"
	"testing"

	"github.com/MJE43/pf-casino-engine/internal/engine"
)

func fixtureSeed(label string) engine.Seed {
	var base engine.Seed
	copy(base[:], label)
	return engine.SubSeed(base, 0)
}

func TestGameRegistry(t *testing.T) {
	specs := List()
	if len(specs) != 4 {
		t.Fatalf("expected 4 registered games, got %d", len(specs))
	}

	want := []Variant{VariantMines, VariantPlinko, VariantRoulette, VariantWheel}
	for i, spec := range specs {
		if spec.ID != want[i] {
			t.Errorf("specs[%d].ID = %s, want %s", i, spec.ID, want[i])
		}
		if spec.Name == "" || spec.MetricLabel == "" {
			t.Errorf("spec %s is missing name or metric label", spec.ID)
		}
	}

	if _, err := Lookup("blackjack"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("Lookup(blackjack) error = %v, want ErrUnknownVariant", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cases := []struct {
		variant Variant
		params  map[string]any
	}{
		{VariantRoulette, nil},
		{VariantMines, map[string]any{"totalCells": float64(25), "mineCount": float64(7)}},
		{VariantPlinko, map[string]any{"rows": float64(12), "risk": "high"}},
		{VariantWheel, map[string]any{"segments": float64(30), "risk": "medium"}},
	}

	for i := 0; i < 50; i++ {
		seed := engine.DeriveSeed(fixtureSeed("determinism"), uint64(i))
		for _, tc := range cases {
			first, err := Generate(tc.variant, seed, tc.params)
			if err != nil {
				t.Fatalf("%s: Generate() error = %v", tc.variant, err)
			}
			second, err := Generate(tc.variant, seed, tc.params)
			if err != nil {
				t.Fatalf("%s: Generate() error = %v", tc.variant, err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("%s: outcome differs between runs for the same seed", tc.variant)
			}
			if first.Variant != tc.variant {
				t.Errorf("outcome variant = %s, want %s", first.Variant, tc.variant)
			}
		}
	}
}

func TestParamErrors(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		params  map[string]any
		field   string
	}{
		{"plinko rows too low", VariantPlinko, map[string]any{"rows": float64(4)}, "rows"},
		{"plinko fractional rows", VariantPlinko, map[string]any{"rows": 8.5}, "rows"},
		{"plinko bad risk", VariantPlinko, map[string]any{"risk": "extreme"}, "risk"},
		{"wheel bad segments", VariantWheel, map[string]any{"segments": float64(15)}, "segments"},
		{"wheel risk type", VariantWheel, map[string]any{"risk": 3}, "risk"},
		{"mines zero mines", VariantMines, map[string]any{"mineCount": float64(0)}, "mineCount"},
		{"mines too many", VariantMines, map[string]any{"mineCount": float64(25)}, "mineCount"},
		{"mines tiny board", VariantMines, map[string]any{"totalCells": float64(1)}, "totalCells"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Lookup(tt.variant)
			if err != nil {
				t.Fatal(err)
			}

			err = g.Validate(tt.params)
			var pe *ParamError
			if !errors.As(err, &pe) {
				t.Fatalf("Validate() error = %v, want *ParamError", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %q, want %q", pe.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidParams) {
				t.Error("ParamError should unwrap to ErrInvalidParams")
			}
			if IsFatal(err) {
				t.Error("validation errors must not be fatal")
			}
		})
	}
}
