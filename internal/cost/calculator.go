// Package cost holds the pure breakeven and profitability math for a capital
// rotation. Nothing here performs I/O; every function is a closed-form
// evaluation over its inputs.
package cost

import (
	"math"

	"github.com/yourorg/stableroute-engine/internal/model"
)

// maxChartPoints bounds the plotting series emitted for a route.
const maxChartPoints = 100

// defaultChartDays is the plotted horizon when no breakeven exists.
const defaultChartDays = 30.0

// DailyYield returns the yield earned per day on capital at the given APY
// (in percent).
func DailyYield(capitalUSD, apy float64) float64 {
	return capitalUSD * (apy / 100) / 365
}

// BreakevenDays returns how many days of yield are needed to recover
// totalCost. A non-positive cost breaks even immediately; a positive cost
// against non-positive yield never recovers, represented as +Inf rather than
// a panic or NaN.
func BreakevenDays(totalCostUSD, dailyYieldUSD float64) float64 {
	if totalCostUSD <= 0 {
		return 0
	}
	if dailyYieldUSD <= 0 {
		return math.Inf(1)
	}
	return totalCostUSD / dailyYieldUSD
}

// NetProfit returns the cumulative profit after the given number of days.
func NetProfit(dailyYieldUSD, days, totalCostUSD float64) float64 {
	return dailyYieldUSD*days - totalCostUSD
}

// Breakeven converts a possibly infinite breakeven-day figure into its
// serializable form.
func Breakeven(days float64) model.Breakeven {
	if math.IsInf(days, 1) {
		return model.Breakeven{Reachable: false}
	}
	return model.Breakeven{
		Days:      days,
		Hours:     days * 24,
		Reachable: true,
	}
}

// Matrix evaluates net profit over the fixed capital-multiplier and horizon
// grid. Cost scales proportionally with the multiplied capital, holding the
// cost-to-capital ratio constant.
func Matrix(capitalUSD, apy, totalCostUSD float64) model.ProfitMatrix {
	var m model.ProfitMatrix
	for mi, mult := range model.MatrixMultipliers {
		daily := DailyYield(capitalUSD*mult, apy)
		scaledCost := totalCostUSD * mult
		for hi, days := range model.MatrixHorizons {
			m.SetCell(mi, hi, NetProfit(daily, float64(days), scaledCost))
		}
	}
	return m
}

// Chart emits (day, cumulative profit) pairs for plotting. The series spans
// the breakeven point plus a 20% margin, or the default horizon when no
// breakeven exists, in at most maxChartPoints steps.
func Chart(dailyYieldUSD, totalCostUSD float64) []model.ChartPoint {
	horizon := defaultChartDays
	if be := BreakevenDays(totalCostUSD, dailyYieldUSD); !math.IsInf(be, 1) && be*1.2 > horizon {
		horizon = be * 1.2
	}

	step := 1.0
	if horizon/step > maxChartPoints-1 {
		step = horizon / (maxChartPoints - 1)
	}

	points := make([]model.ChartPoint, 0, maxChartPoints)
	for day := 0.0; day <= horizon && len(points) < maxChartPoints; day += step {
		points = append(points, model.ChartPoint{
			Day:       day,
			ProfitUSD: NetProfit(dailyYieldUSD, day, totalCostUSD),
		})
	}
	return points
}
