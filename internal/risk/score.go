// Package risk implements the deterministic V-Score: a 0-100 bridge safety
// rating derived from six weighted factors, plus its discrete 1-5 level.
package risk

import (
	"fmt"
	"time"

	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// Factor weights and caps
const (
	archCanonicalPoints = 25
	archIntentPoints    = 22
	archLayerZeroPoints = 20
	archLiquidityPoints = 15
	archOtherPoints     = 10

	agePointsPerYear = 4
	agePointsMax     = 20

	verifiedPoints = 10

	matureChainPoints   = 10
	emergingChainPoints = 5
)

// LevelThresholds maps scores onto discrete risk levels. Levels[i] is the
// minimum score for level i+1; scores below the last threshold land in level
// len(Levels)+1. The defaults partition [0,100] into five gap-free buckets.
type LevelThresholds []float64

// DefaultLevelThresholds yields levels 1 (>=90) through 5 (<50).
func DefaultLevelThresholds() LevelThresholds {
	return LevelThresholds{90, 80, 65, 50}
}

// Level returns the discrete risk level for a score. 1 is safest.
func (t LevelThresholds) Level(score float64) int {
	for i, min := range t {
		if score >= min {
			return i + 1
		}
	}
	return len(t) + 1
}

// Score computes the V-Score breakdown for a bridge on a target chain. It is
// a pure function: identical inputs (including asOf, which anchors exploit
// recency) always produce identical output.
func Score(meta model.BridgeMetadata, chain types.SupportedChain, asOf time.Time) model.RiskScoreBreakdown {
	b := model.RiskScoreBreakdown{
		Architecture:   architecturePoints(meta.Architecture),
		ProtocolAge:    agePoints(meta.AgeYears),
		TVLDepth:       tvlPoints(meta.TVLUSD),
		ExploitPenalty: exploitPenalty(meta.Exploit, asOf),
		Verification:   verificationPoints(meta.Verified),
		ChainMaturity:  chainMaturityPoints(chain),
	}

	b.Score = clamp(b.Sum(), 0, 100)
	b.Level = DefaultLevelThresholds().Level(b.Score)
	return b
}

// Warnings returns the deterministic human-readable risk notes for a bridge.
// A known exploit always yields a warning regardless of the final score.
func Warnings(meta model.BridgeMetadata) []string {
	var warnings []string
	if meta.Exploit != nil {
		warnings = append(warnings, fmt.Sprintf(
			"bridge %s has a historical exploit (%d, $%.0fM lost)",
			meta.Name, meta.Exploit.Year, meta.Exploit.AmountUSD/1e6))
	}
	if meta.AgeYears < 1 {
		warnings = append(warnings, fmt.Sprintf("bridge %s is younger than 1 year", meta.Name))
	}
	if !meta.Verified {
		warnings = append(warnings, fmt.Sprintf("bridge %s contracts are not verified", meta.Name))
	}
	return warnings
}

func architecturePoints(arch model.BridgeArchitecture) float64 {
	switch arch {
	case model.ArchCanonical:
		return archCanonicalPoints
	case model.ArchIntent:
		return archIntentPoints
	case model.ArchLayerZero:
		return archLayerZeroPoints
	case model.ArchLiquidity:
		return archLiquidityPoints
	default:
		return archOtherPoints
	}
}

// agePoints rewards protocol longevity linearly, capped at the maximum.
func agePoints(ageYears float64) float64 {
	if ageYears <= 0 {
		return 0
	}
	points := ageYears * agePointsPerYear
	if points > agePointsMax {
		return agePointsMax
	}
	return points
}

func tvlPoints(tvlUSD float64) float64 {
	switch {
	case tvlUSD >= 1_000_000_000:
		return 20
	case tvlUSD >= 500_000_000:
		return 18
	case tvlUSD >= 100_000_000:
		return 15
	case tvlUSD >= 50_000_000:
		return 12
	default:
		return 8
	}
}

// exploitPenalty scales the penalty by incident recency: the fresher the
// incident, the closer to the maximum penalty.
func exploitPenalty(exploit *model.ExploitRecord, asOf time.Time) float64 {
	if exploit == nil {
		return 0
	}
	yearsSince := asOf.Year() - exploit.Year
	switch {
	case yearsSince < 1:
		return -35
	case yearsSince < 2:
		return -30
	case yearsSince < 3:
		return -25
	case yearsSince < 5:
		return -20
	default:
		return -15
	}
}

func verificationPoints(verified bool) float64 {
	if verified {
		return verifiedPoints
	}
	return 0
}

func chainMaturityPoints(chain types.SupportedChain) float64 {
	if types.IsMature(chain) {
		return matureChainPoints
	}
	return emergingChainPoints
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
