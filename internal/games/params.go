package games

import (
	"math"
	"strconv"
	"strings"
)

// Params come from JSON, so numbers may arrive as float64, json.Number-like
// strings, or plain ints when built in Go.

func intParam(game Variant, params map[string]any, key string, def int) (int, error) {
	if params == nil {
		return def, nil
	}

	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint32:
		return int(v), nil
	case float64:
		if math.Mod(v, 1) != 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, paramErr(game, key, "must be an integer, got %v", v)
		}
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, paramErr(game, key, "invalid value %q", v)
		}
		return parsed, nil
	default:
		return 0, paramErr(game, key, "unsupported type %T", raw)
	}
}

// Risk is the volatility profile shared by Plinko and Wheel tables.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

func riskParam(game Variant, params map[string]any, def Risk) (Risk, error) {
	if params == nil {
		return def, nil
	}

	raw, ok := params["risk"]
	if !ok || raw == nil {
		return def, nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", paramErr(game, "risk", "unsupported type %T", raw)
	}

	switch r := Risk(strings.ToLower(strings.TrimSpace(s))); r {
	case RiskLow, RiskMedium, RiskHigh:
		return r, nil
	default:
		return "", paramErr(game, "risk", "must be low, medium or high, got %q", s)
	}
}
