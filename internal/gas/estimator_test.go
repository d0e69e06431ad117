package gas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

func samplesOf(baseFees ...float64) []model.FeeSample {
	now := time.Now()
	samples := make([]model.FeeSample, len(baseFees))
	for i, f := range baseFees {
		samples[i] = model.FeeSample{
			BaseFee:     f,
			PriorityFee: 1.0,
			Timestamp:   now.Add(time.Duration(i-len(baseFees)) * 12 * time.Second),
		}
	}
	return samples
}

func TestEstimator_FallsBackBelowMinSamples(t *testing.T) {
	e := NewEstimator(0.3, 1.5, 3)

	got := e.EstimateGwei(types.ChainEthereum, samplesOf(10, 11))
	assert.Equal(t, types.Profile(types.ChainEthereum).DefaultFeeGwei, got,
		"Fewer samples than the minimum should use the static chain default")

	got = e.EstimateGwei(types.ChainEthereum, nil)
	assert.Equal(t, types.Profile(types.ChainEthereum).DefaultFeeGwei, got)
}

func TestEstimator_ConstantWindow(t *testing.T) {
	e := NewEstimator(0.3, 1.5, 3)

	// Zero variance: prediction is EMA (= the constant) plus the mean tip
	got := e.EstimateGwei(types.ChainEthereum, samplesOf(20, 20, 20, 20, 20))
	assert.InDelta(t, 21.0, got, 1e-9, "Constant base fees should predict base + priority with no margin")
}

func TestEstimator_VolatileWindowAddsMargin(t *testing.T) {
	e := NewEstimator(0.3, 1.5, 3)

	calm := e.EstimateGwei(types.ChainEthereum, samplesOf(20, 20, 20, 20, 20))
	volatile := e.EstimateGwei(types.ChainEthereum, samplesOf(10, 30, 15, 25, 20))

	assert.Greater(t, volatile, calm, "Volatile fee windows should carry a larger safety margin")
}

func TestEstimator_WeightsRecentSamples(t *testing.T) {
	e := NewEstimator(0.5, 0.0001, 3)

	rising := e.EstimateGwei(types.ChainEthereum, samplesOf(10, 10, 10, 40))
	falling := e.EstimateGwei(types.ChainEthereum, samplesOf(40, 10, 10, 10))

	assert.Greater(t, rising, falling, "EMA should weight the newest samples more heavily")
}

func TestEstimator_NeverNegative(t *testing.T) {
	e := NewEstimator(0.3, 1.5, 1)

	got := e.EstimateGwei(types.ChainEthereum, samplesOf(0, 0, 0))
	require.GreaterOrEqual(t, got, 0.0, "Predicted fee must never be negative")
}

func TestNewEstimator_SanitizesTuning(t *testing.T) {
	e := NewEstimator(-1, 0, 0)

	assert.Equal(t, 0.3, e.Smoothing)
	assert.Equal(t, 1.5, e.SafetyFactor)
	assert.Equal(t, 3, e.MinSamples)
}

func TestCostUSD(t *testing.T) {
	// 20 gwei * 150k gas = 0.003 native; at $3000 that is $9
	got := CostUSD(20, 150_000, 3000)
	assert.InDelta(t, 9.0, got, 1e-9)

	assert.Zero(t, CostUSD(0, 150_000, 3000), "Zero fee costs nothing")
	assert.Zero(t, CostUSD(20, 150_000, 0), "Unknown native price yields zero rather than garbage")
}
