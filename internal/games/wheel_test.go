package games

import (
	"testing"
)

func TestWheelGame(t *testing.T) {
	game := &WheelGame{}

	spec := game.Spec()
	if spec.ID != VariantWheel {
		t.Errorf("expected ID 'wheel', got '%s'", spec.ID)
	}
	if spec.MetricLabel != "segment" {
		t.Errorf("expected MetricLabel 'segment', got '%s'", spec.MetricLabel)
	}
}

func TestWheelEvaluation(t *testing.T) {
	game := &WheelGame{}

	// Test all segment/risk combos produce valid results
	for _, seg := range []int{10, 20, 30, 40, 50} {
		for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
			params := map[string]any{"segments": float64(seg), "risk": string(risk)}
			out, err := game.Generate(rouletteSeed(uint32(seg*7+3)), params)
			if err != nil {
				t.Errorf("Generate failed for segments=%d risk=%s: %v", seg, risk, err)
				continue
			}

			res := out.Wheel
			if res.Segments != seg || res.Risk != risk {
				t.Errorf("echoed params %d/%s, want %d/%s", res.Segments, res.Risk, seg, risk)
			}
			if want := (seg*7 + 3) % seg; res.SegmentIndex != want {
				t.Errorf("segments=%d: index = %d, want %d", seg, res.SegmentIndex, want)
			}

			table, err := wheelTable(seg, risk)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Multiplier.Equal(table[res.SegmentIndex]) {
				t.Errorf("multiplier = %s, want %s", res.Multiplier, table[res.SegmentIndex])
			}
		}
	}
}

func TestWheelTablesCoverSegments(t *testing.T) {
	for seg, risks := range wheelPayouts {
		for risk, table := range risks {
			if len(table) != seg {
				t.Errorf("segments=%d risk=%s: table has %d entries", seg, risk, len(table))
			}
		}
	}
}

func TestWheelDefaults(t *testing.T) {
	out, err := (&WheelGame{}).Generate(rouletteSeed(9), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Wheel.Segments != 10 || out.Wheel.Risk != RiskLow {
		t.Errorf("defaults = %d/%s, want 10/low", out.Wheel.Segments, out.Wheel.Risk)
	}
	if out.Wheel.SegmentIndex != 9 {
		t.Errorf("segment = %d, want 9", out.Wheel.SegmentIndex)
	}
}
