package model

import (
	"encoding/json"
	"strconv"
)

// Capital multipliers and time horizons covered by every profitability matrix.
// The grid is fixed so cells can be addressed by position instead of by
// string-keyed lookups.
var (
	MatrixMultipliers = [7]float64{0.5, 0.75, 1, 1.25, 1.5, 2, 5}
	MatrixHorizons    = [6]int{7, 14, 30, 90, 180, 365}
)

// ProfitMatrix is a dense grid of net profit figures across capital
// multipliers and day horizons. Cells are stored by position; Profit gives
// typed access, and the JSON form is the string-keyed nested map the
// presentation boundary expects.
type ProfitMatrix struct {
	cells [len(MatrixMultipliers)][len(MatrixHorizons)]float64
}

// SetCell stores the profit for the multiplier/horizon at the given grid
// position. Out-of-range positions are ignored.
func (m *ProfitMatrix) SetCell(mi, hi int, profit float64) {
	if mi < 0 || mi >= len(MatrixMultipliers) || hi < 0 || hi >= len(MatrixHorizons) {
		return
	}
	m.cells[mi][hi] = profit
}

// Profit returns the net profit at the given capital multiplier and horizon.
// The second return is false when the pair is not part of the fixed grid.
func (m *ProfitMatrix) Profit(multiplier float64, horizonDays int) (float64, bool) {
	mi, hi := -1, -1
	for i, v := range MatrixMultipliers {
		if v == multiplier {
			mi = i
			break
		}
	}
	for i, v := range MatrixHorizons {
		if v == horizonDays {
			hi = i
			break
		}
	}
	if mi < 0 || hi < 0 {
		return 0, false
	}
	return m.cells[mi][hi], true
}

// MarshalJSON renders the matrix as {"<multiplier>": {"<days>": profit}} with
// stable numeric-string keys.
func (m ProfitMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]float64, len(MatrixMultipliers))
	for i, mult := range MatrixMultipliers {
		row := make(map[string]float64, len(MatrixHorizons))
		for j, days := range MatrixHorizons {
			row[strconv.Itoa(days)] = m.cells[i][j]
		}
		out[strconv.FormatFloat(mult, 'f', -1, 64)] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a matrix from its string-keyed JSON form. Keys that
// do not belong to the fixed grid are ignored.
func (m *ProfitMatrix) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, row := range raw {
		mult, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		mi := -1
		for i, v := range MatrixMultipliers {
			if v == mult {
				mi = i
				break
			}
		}
		if mi < 0 {
			continue
		}
		for dayKey, profit := range row {
			days, err := strconv.Atoi(dayKey)
			if err != nil {
				continue
			}
			for j, v := range MatrixHorizons {
				if v == days {
					m.cells[mi][j] = profit
					break
				}
			}
		}
	}
	return nil
}
