// Package model defines the core data structures for the stableroute engine.
package model

import (
	"time"
)

// Pool represents a yield opportunity on a target chain.
// It is an immutable snapshot fetched per request and never persisted.
type Pool struct {
	// ID is the opaque pool identifier assigned by the yield data source
	ID string `json:"pool"`

	// Chain is the blockchain network the pool lives on
	Chain string `json:"chain"`

	// Project is the protocol operating the pool (e.g. "aave-v3")
	Project string `json:"project"`

	// Symbol is the asset symbol (e.g. "USDC")
	Symbol string `json:"symbol"`

	// TVLUSD is the total value locked in the pool, in USD
	TVLUSD float64 `json:"tvlUsd"`

	// APY is the annual percentage yield, in percent (6.0 means 6%)
	APY float64 `json:"apy"`
}

// BridgeArchitecture classifies the trust model of a bridge.
type BridgeArchitecture string

// Known bridge architecture classes, ordered roughly by trust assumptions
const (
	ArchCanonical BridgeArchitecture = "canonical"
	ArchIntent    BridgeArchitecture = "intent"
	ArchLayerZero BridgeArchitecture = "layerzero"
	ArchLiquidity BridgeArchitecture = "liquidity"
	ArchOther     BridgeArchitecture = "other"
)

// ExploitRecord describes a historical security incident for a bridge.
// Presence is a strong negative signal; absence means "no known incident",
// not "proven safe".
type ExploitRecord struct {
	Year        int     `json:"year"`
	AmountUSD   float64 `json:"amount_usd"`
	Description string  `json:"description"`
	Reference   string  `json:"reference,omitempty"`
}

// BridgeMetadata is the descriptive record for the bridge connecting the
// source and target chains.
type BridgeMetadata struct {
	Name         string             `json:"name"`
	Architecture BridgeArchitecture `json:"architecture"`
	AgeYears     float64            `json:"age_years"`
	TVLUSD       float64            `json:"tvl_usd"`
	Verified     bool               `json:"verified"`
	Exploit      *ExploitRecord     `json:"exploit,omitempty"`
}

// BridgeQuote is the answer from the bridge-quote source for a single leg.
type BridgeQuote struct {
	BridgeName           string             `json:"bridge_name"`
	BridgeType           BridgeArchitecture `json:"bridge_type"`
	FeeUSD               float64            `json:"fee_usd"`
	EstimatedTimeSeconds int64              `json:"estimated_time_seconds"`
}

// FeeSample is one observation from a chain's fee market.
type FeeSample struct {
	// BaseFee in gwei
	BaseFee float64 `json:"base_fee"`

	// PriorityFee in gwei
	PriorityFee float64 `json:"priority_fee"`

	// Timestamp is when the sample was observed
	Timestamp time.Time `json:"timestamp"`
}

// LegCost is the cost of one direction of the capital rotation.
type LegCost struct {
	BridgeFeeUSD float64 `json:"bridge_fee_usd"`
	SourceGasUSD float64 `json:"source_gas_usd"`
	DestGasUSD   float64 `json:"dest_gas_usd"`
	TotalUSD     float64 `json:"total_usd"`
}

// CostBreakdown holds both legs of a round trip.
// Invariant: RoundTripUSD == Entry.TotalUSD + Exit.TotalUSD.
type CostBreakdown struct {
	Entry        LegCost `json:"entry"`
	Exit         LegCost `json:"exit"`
	RoundTripUSD float64 `json:"round_trip_usd"`
}

// NewCostBreakdown assembles a CostBreakdown from individual leg components,
// computing the leg and round-trip totals so the invariant holds by construction.
func NewCostBreakdown(entry, exit LegCost) CostBreakdown {
	entry.TotalUSD = entry.BridgeFeeUSD + entry.SourceGasUSD + entry.DestGasUSD
	exit.TotalUSD = exit.BridgeFeeUSD + exit.SourceGasUSD + exit.DestGasUSD
	return CostBreakdown{
		Entry:        entry,
		Exit:         exit,
		RoundTripUSD: entry.TotalUSD + exit.TotalUSD,
	}
}

// RiskScoreBreakdown lists the named point contributions behind a V-Score.
// The contributions may sum outside [0,100]; Score is always the clamped value.
type RiskScoreBreakdown struct {
	Architecture   float64 `json:"architecture"`
	ProtocolAge    float64 `json:"protocol_age"`
	TVLDepth       float64 `json:"tvl_depth"`
	ExploitPenalty float64 `json:"exploit_penalty"`
	Verification   float64 `json:"verification"`
	ChainMaturity  float64 `json:"chain_maturity"`

	// Score is clamp(sum of contributions, 0, 100)
	Score float64 `json:"score"`

	// Level is the discrete 1-5 risk level derived from Score (1 = safest)
	Level int `json:"level"`
}

// Sum returns the raw, unclamped total of the factor contributions.
func (b RiskScoreBreakdown) Sum() float64 {
	return b.Architecture + b.ProtocolAge + b.TVLDepth +
		b.ExploitPenalty + b.Verification + b.ChainMaturity
}

// Breakeven is the serializable form of a breakeven horizon. When the route
// never recovers its cost (zero or negative yield against a positive cost)
// Reachable is false and the hour/day figures are zeroed rather than infinite.
type Breakeven struct {
	Hours     float64 `json:"hours"`
	Days      float64 `json:"days"`
	Reachable bool    `json:"reachable"`
}

// ChartPoint is one (day, cumulative profit) pair for plotting.
type ChartPoint struct {
	Day       float64 `json:"day"`
	ProfitUSD float64 `json:"profit_usd"`
}

// SourceStatus records whether a sub-result was served live or degraded to a
// cached/fallback value, and why.
type SourceStatus struct {
	Source   string `json:"source"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// RouteCalculation is the engine's final output. It is constructed fresh per
// request, never mutated after construction, and discarded once returned.
type RouteCalculation struct {
	CapitalUSD  float64 `json:"capital_usd"`
	SourceChain string  `json:"source_chain"`

	Pool   Pool           `json:"pool"`
	Bridge BridgeMetadata `json:"bridge"`

	Costs         CostBreakdown      `json:"costs"`
	Breakeven     Breakeven          `json:"breakeven"`
	DailyYieldUSD float64            `json:"daily_yield_usd"`
	NetProfit30d  float64            `json:"net_profit_30d_usd"`
	Risk          RiskScoreBreakdown `json:"risk"`
	Matrix        ProfitMatrix       `json:"profitability_matrix"`
	Chart         []ChartPoint       `json:"chart"`
	Warnings      []string           `json:"warnings"`

	// Sources reports, per external source, whether its contribution to this
	// calculation was live or degraded
	Sources []SourceStatus `json:"sources"`

	// EstimatedBridgeSeconds is the quoted entry-leg transfer time
	EstimatedBridgeSeconds int64 `json:"estimated_bridge_seconds"`

	CalculatedAt time.Time `json:"calculated_at"`
}
