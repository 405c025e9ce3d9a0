package games

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

//go:embed plinko_tables.json
var plinkoTablesJSON []byte

var plinkoPayoutTables = loadPlinkoTables()

func loadPlinkoTables() map[Risk]map[int][]decimal.Decimal {
	raw := map[string]map[string][]decimal.Decimal{}
	if err := json.Unmarshal(plinkoTablesJSON, &raw); err != nil {
		panic(fmt.Sprintf("failed to parse plinko payout tables: %v", err))
	}

	result := make(map[Risk]map[int][]decimal.Decimal, len(raw))
	for risk, rows := range raw {
		if risk == "" {
			panic("encountered empty risk key in plinko tables")
		}

		result[Risk(risk)] = make(map[int][]decimal.Decimal, len(rows))
		for rowsKey, multipliers := range rows {
			rowCount, err := strconv.Atoi(rowsKey)
			if err != nil {
				panic(fmt.Sprintf("invalid row key %q for risk %q: %v", rowsKey, risk, err))
			}

			expectedLength := rowCount + 1
			if len(multipliers) != expectedLength {
				panic(fmt.Sprintf("plinko table mismatch for risk %q rows %d: expected %d entries, got %d", risk, rowCount, expectedLength, len(multipliers)))
			}

			copied := make([]decimal.Decimal, expectedLength)
			copy(copied, multipliers)
			result[Risk(risk)][rowCount] = copied
		}
	}

	return result
}

// PlinkoTable returns the bin multipliers for a (risk, rows) pair. The slice
// is shared; callers must not modify it.
func PlinkoTable(risk Risk, rows int) ([]decimal.Decimal, error) {
	riskTables, ok := plinkoPayoutTables[risk]
	if !ok {
		return nil, fmt.Errorf("unknown plinko risk: %s", risk)
	}

	table, ok := riskTables[rows]
	if !ok {
		return nil, fmt.Errorf("no payout table for risk %s rows %d", risk, rows)
	}

	return table, nil
}
