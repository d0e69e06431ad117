// Package gas predicts near-term fee-per-gas values from recent fee-market
// samples, with a variance-based safety margin against sudden spikes.
package gas

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// Estimator computes a predicted fee per gas from a rolling sample window.
type Estimator struct {
	// Smoothing is the EMA smoothing factor applied to base fees
	Smoothing float64

	// SafetyFactor scales the standard deviation added on top of the EMA
	SafetyFactor float64

	// MinSamples is the sample count below which the static per-chain
	// default is used instead
	MinSamples int
}

// NewEstimator returns an estimator with the given tuning, substituting
// defaults for out-of-range values.
func NewEstimator(smoothing, safetyFactor float64, minSamples int) *Estimator {
	if smoothing <= 0 || smoothing >= 1 {
		smoothing = 0.3
	}
	if safetyFactor <= 0 {
		safetyFactor = 1.5
	}
	if minSamples <= 0 {
		minSamples = 3
	}
	return &Estimator{Smoothing: smoothing, SafetyFactor: safetyFactor, MinSamples: minSamples}
}

// EstimateGwei predicts the fee per gas, in gwei, for the chain given its
// recent samples (ordered oldest first). With too few samples the chain's
// static default applies. The result is never negative.
func (e *Estimator) EstimateGwei(chain types.SupportedChain, samples []model.FeeSample) float64 {
	if len(samples) < e.MinSamples {
		def := types.Profile(chain).DefaultFeeGwei
		logrus.Debugf("Gas estimator: %d samples for %s below minimum %d, using default %.3f gwei",
			len(samples), chain, e.MinSamples, def)
		return def
	}

	ema := samples[0].BaseFee
	for _, s := range samples[1:] {
		ema = e.Smoothing*s.BaseFee + (1-e.Smoothing)*ema
	}

	variance := baseFeeVariance(samples)
	tip := meanPriorityFee(samples)

	predicted := ema + e.SafetyFactor*math.Sqrt(variance) + tip
	if predicted < 0 || math.IsNaN(predicted) {
		return 0
	}
	return predicted
}

// CostUSD converts a fee-per-gas estimate into the USD cost of a transaction
// consuming gasUnits, priced at the chain's native token price.
func CostUSD(feeGwei float64, gasUnits uint64, nativePriceUSD float64) float64 {
	if feeGwei <= 0 || nativePriceUSD <= 0 {
		return 0
	}
	// fee[gwei] * gas / 1e9 = native token amount
	return feeGwei * float64(gasUnits) / 1e9 * nativePriceUSD
}

// baseFeeVariance computes the sample variance of base fees in the window.
func baseFeeVariance(samples []model.FeeSample) float64 {
	if len(samples) <= 1 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s.BaseFee
	}
	mean := sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		diff := s.BaseFee - mean
		variance += diff * diff
	}
	return variance / float64(len(samples)-1)
}

// meanPriorityFee averages the priority fees in the window.
func meanPriorityFee(samples []model.FeeSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.PriorityFee
	}
	return sum / float64(len(samples))
}
