package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

var scoreAsOf = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestScore_FactorBreakdown(t *testing.T) {
	meta := model.BridgeMetadata{
		Name:         "arbitrum-bridge",
		Architecture: model.ArchCanonical,
		AgeYears:     3,
		TVLUSD:       600_000_000,
		Verified:     true,
	}

	b := Score(meta, types.ChainEthereum, scoreAsOf)

	assert.Equal(t, 25.0, b.Architecture)
	assert.Equal(t, 12.0, b.ProtocolAge)
	assert.Equal(t, 18.0, b.TVLDepth)
	assert.Zero(t, b.ExploitPenalty)
	assert.Equal(t, 10.0, b.Verification)
	assert.Equal(t, 10.0, b.ChainMaturity)
	assert.Equal(t, 75.0, b.Score)
	assert.Equal(t, 3, b.Level, "A mid-70s score sits in the middle risk level")
}

func TestScore_IsDeterministic(t *testing.T) {
	meta := model.BridgeMetadata{
		Name:         "across",
		Architecture: model.ArchIntent,
		AgeYears:     4.5,
		TVLUSD:       120_000_000,
		Verified:     true,
	}

	first := Score(meta, types.ChainArbitrum, scoreAsOf)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(meta, types.ChainArbitrum, scoreAsOf))
	}
}

func TestScore_ArchitecturePoints(t *testing.T) {
	cases := map[model.BridgeArchitecture]float64{
		model.ArchCanonical: 25,
		model.ArchIntent:    22,
		model.ArchLayerZero: 20,
		model.ArchLiquidity: 15,
		model.ArchOther:     10,
	}
	for arch, want := range cases {
		b := Score(model.BridgeMetadata{Architecture: arch}, types.ChainEthereum, scoreAsOf)
		assert.Equal(t, want, b.Architecture, "architecture %s", arch)
	}

	b := Score(model.BridgeMetadata{Architecture: "something-new"}, types.ChainEthereum, scoreAsOf)
	assert.Equal(t, 10.0, b.Architecture, "Unknown architectures score as Other")
}

func TestScore_AgeCapsAtTwenty(t *testing.T) {
	assert.Equal(t, 8.0, agePoints(2))
	assert.Equal(t, 20.0, agePoints(5))
	assert.Equal(t, 20.0, agePoints(12), "Age points cap regardless of longevity")
	assert.Zero(t, agePoints(0))
	assert.Zero(t, agePoints(-1))
}

func TestScore_TVLTiers(t *testing.T) {
	cases := []struct {
		tvl  float64
		want float64
	}{
		{2_000_000_000, 20},
		{1_000_000_000, 20},
		{999_999_999, 18},
		{500_000_000, 18},
		{100_000_000, 15},
		{50_000_000, 12},
		{49_999_999, 8},
		{0, 8},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tvlPoints(tc.tvl), "tvl %.0f", tc.tvl)
	}
}

func TestScore_ExploitPenaltyScalesWithRecency(t *testing.T) {
	penalty := func(year int) float64 {
		return exploitPenalty(&model.ExploitRecord{Year: year, AmountUSD: 100e6}, scoreAsOf)
	}

	assert.Equal(t, -35.0, penalty(2026), "Same-year exploits take the maximum penalty")
	assert.Equal(t, -30.0, penalty(2025))
	assert.Equal(t, -25.0, penalty(2024))
	assert.Equal(t, -20.0, penalty(2022))
	assert.Equal(t, -15.0, penalty(2018), "Old incidents still cost the floor penalty")
	assert.Zero(t, exploitPenalty(nil, scoreAsOf))
}

func TestScore_ChainMaturity(t *testing.T) {
	mature := Score(model.BridgeMetadata{}, types.ChainEthereum, scoreAsOf)
	emerging := Score(model.BridgeMetadata{}, types.ChainBase, scoreAsOf)

	assert.Equal(t, 10.0, mature.ChainMaturity)
	assert.Equal(t, 5.0, emerging.ChainMaturity)
}

func TestScore_ClampsToRange(t *testing.T) {
	// Worst case: Other arch, no age, thin TVL, fresh exploit, unverified,
	// emerging chain. Raw sum is well below zero.
	worst := Score(model.BridgeMetadata{
		Architecture: model.ArchOther,
		Exploit:      &model.ExploitRecord{Year: 2026, AmountUSD: 600e6},
	}, types.ChainBase, scoreAsOf)

	require.GreaterOrEqual(t, worst.Score, 0.0)
	assert.Equal(t, 5, worst.Level)

	best := Score(model.BridgeMetadata{
		Architecture: model.ArchCanonical,
		AgeYears:     10,
		TVLUSD:       5_000_000_000,
		Verified:     true,
	}, types.ChainEthereum, scoreAsOf)

	assert.LessOrEqual(t, best.Score, 100.0)
	assert.Equal(t, 85.0, best.Score)
	assert.Equal(t, 2, best.Level)
}

func TestLevelThresholds_PartitionIsGapFree(t *testing.T) {
	thresholds := DefaultLevelThresholds()

	// Every score in [0,100] must land in exactly one level, and levels must
	// be monotonic in the score.
	prev := thresholds.Level(0)
	for s := 0.0; s <= 100; s += 0.5 {
		level := thresholds.Level(s)
		require.GreaterOrEqual(t, level, 1)
		require.LessOrEqual(t, level, 5)
		require.LessOrEqual(t, level, prev, "Levels must not worsen as the score rises")
		prev = level
	}

	assert.Equal(t, 1, thresholds.Level(100))
	assert.Equal(t, 1, thresholds.Level(90))
	assert.Equal(t, 2, thresholds.Level(89.9))
	assert.Equal(t, 3, thresholds.Level(75))
	assert.Equal(t, 4, thresholds.Level(60))
	assert.Equal(t, 5, thresholds.Level(49.9))
	assert.Equal(t, 5, thresholds.Level(0))
}

func TestWarnings(t *testing.T) {
	meta := model.BridgeMetadata{
		Name:         "wormhole",
		Architecture: model.ArchOther,
		AgeYears:     0.5,
		Exploit:      &model.ExploitRecord{Year: 2022, AmountUSD: 325e6},
	}

	warnings := Warnings(meta)
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "historical exploit")
	assert.Contains(t, warnings[0], "2022")
	assert.Contains(t, warnings[0], "$325M")
	assert.Contains(t, warnings[1], "younger than 1 year")
	assert.Contains(t, warnings[2], "not verified")

	assert.Empty(t, Warnings(model.BridgeMetadata{
		Name: "across", AgeYears: 4, Verified: true,
	}))
}
