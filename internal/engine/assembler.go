package engine

import (
	"fmt"
	"math"

	"github.com/yourorg/stableroute-engine/internal/cost"
	"github.com/yourorg/stableroute-engine/internal/gas"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/risk"
	"github.com/yourorg/stableroute-engine/internal/source"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// lowPoolTVLWarning is the TVL floor below which a target pool earns a
// warning even though it passed filtering.
const lowPoolTVLWarning = 10_000_000

// assemble merges the settled sub-results into the immutable RouteCalculation.
// Warning strings are generated deterministically from the same inputs so
// golden-output tests stay stable.
func (e *Engine) assemble(req Request, pool model.Pool, targetChain types.SupportedChain, fr fanResults, sec securityResults) *model.RouteCalculation {
	now := e.now()

	meta := source.BuildBridgeMetadata(fr.entryQuote.Value, now)
	meta.Verified = sec.verified.Value
	meta.Exploit = sec.exploit.Value

	breakdown := e.buildCosts(req.SourceChain, targetChain, fr)
	score := risk.Score(meta, targetChain, now)

	daily := cost.DailyYield(req.CapitalUSD, pool.APY)
	breakevenDays := cost.BreakevenDays(breakdown.RoundTripUSD, daily)

	warnings := risk.Warnings(meta)
	if math.IsInf(breakevenDays, 1) {
		warnings = append(warnings, "route never recovers its cost at the current yield")
	}
	if pool.TVLUSD < lowPoolTVLWarning {
		warnings = append(warnings, fmt.Sprintf("pool TVL below $%dM", lowPoolTVLWarning/1_000_000))
	}

	return &model.RouteCalculation{
		CapitalUSD:  req.CapitalUSD,
		SourceChain: string(req.SourceChain),
		Pool:        pool,
		Bridge:      meta,

		Costs:         breakdown,
		Breakeven:     cost.Breakeven(breakevenDays),
		DailyYieldUSD: daily,
		NetProfit30d:  cost.NetProfit(daily, 30, breakdown.RoundTripUSD),
		Risk:          score,
		Matrix:        cost.Matrix(req.CapitalUSD, pool.APY, breakdown.RoundTripUSD),
		Chart:         cost.Chart(daily, breakdown.RoundTripUSD),
		Warnings:      warnings,

		Sources:                collectStatuses(fr, sec),
		EstimatedBridgeSeconds: fr.entryQuote.Value.EstimatedTimeSeconds,
		CalculatedAt:           now,
	}
}

// buildCosts turns fee samples, prices and bridge quotes into the round-trip
// cost breakdown.
func (e *Engine) buildCosts(from, to types.SupportedChain, fr fanResults) model.CostBreakdown {
	fromProfile := types.Profile(from)
	toProfile := types.Profile(to)

	fromFee := e.estimator.EstimateGwei(from, fr.sourceFees.Value)
	toFee := e.estimator.EstimateGwei(to, fr.targetFees.Value)

	entry := model.LegCost{
		BridgeFeeUSD: fr.entryQuote.Value.FeeUSD,
		SourceGasUSD: gas.CostUSD(fromFee, fromProfile.BridgeGasUnits, fr.sourcePrice.Value),
		DestGasUSD:   gas.CostUSD(toFee, poolDepositGasUnits, fr.targetPrice.Value),
	}
	exit := model.LegCost{
		BridgeFeeUSD: fr.exitQuote.Value.FeeUSD,
		SourceGasUSD: gas.CostUSD(toFee, toProfile.BridgeGasUnits, fr.targetPrice.Value),
		DestGasUSD:   gas.CostUSD(fromFee, claimGasUnits, fr.sourcePrice.Value),
	}
	return model.NewCostBreakdown(entry, exit)
}

// collectStatuses flattens the per-source degradation flags for the response.
func collectStatuses(fr fanResults, sec securityResults) []model.SourceStatus {
	return []model.SourceStatus{
		{Source: "bridge:entry", Degraded: fr.entryQuote.Degraded, Reason: fr.entryQuote.Reason},
		{Source: "bridge:exit", Degraded: fr.exitQuote.Degraded, Reason: fr.exitQuote.Reason},
		{Source: "chainfee:source", Degraded: fr.sourceFees.Degraded, Reason: fr.sourceFees.Reason},
		{Source: "chainfee:target", Degraded: fr.targetFees.Degraded, Reason: fr.targetFees.Reason},
		{Source: "price:source", Degraded: fr.sourcePrice.Degraded, Reason: fr.sourcePrice.Reason},
		{Source: "price:target", Degraded: fr.targetPrice.Degraded, Reason: fr.targetPrice.Reason},
		{Source: "security", Degraded: sec.exploit.Degraded, Reason: sec.exploit.Reason},
		{Source: "verification", Degraded: sec.verified.Degraded, Reason: sec.verified.Reason},
	}
}
