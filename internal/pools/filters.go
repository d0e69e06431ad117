// Package pools provides filtering and validation for candidate yield pools.
package pools

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/stableroute-engine/internal/model"
)

// FilterOptions holds configuration for the pool filtering process
type FilterOptions struct {
	// MinTVL is the minimum pool TVL in USD; thin pools are easy to manipulate
	MinTVL float64

	// MaxAPY is the sanity ceiling, in percent; yields above it are treated
	// as data errors or unsustainable incentives
	MaxAPY float64

	// Stablecoins restricts results to these asset symbols; empty means all
	Stablecoins []string

	// EnableOutlierDetection enables statistical outlier rejection on APY
	EnableOutlierDetection bool

	// OutlierIQRMultiplier defines sensitivity for outlier detection (1.5 is standard)
	OutlierIQRMultiplier float64
}

// DefaultFilterOptions returns sensible defaults for stablecoin routing.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinTVL:                 1_000_000,
		MaxAPY:                 50,
		Stablecoins:            []string{"USDC", "USDT", "DAI", "USDE", "FRAX"},
		EnableOutlierDetection: true,
		OutlierIQRMultiplier:   1.5,
	}
}

// Filter removes pools that fail the validation criteria and returns the
// remainder sorted by APY, highest first.
func Filter(candidates []model.Pool, opts FilterOptions) []model.Pool {
	valid := make([]model.Pool, 0, len(candidates))
	for _, p := range candidates {
		if isValidPool(p, opts) {
			valid = append(valid, p)
		} else {
			logrus.WithFields(logrus.Fields{
				"pool":    p.ID,
				"project": p.Project,
				"apy":     p.APY,
				"tvl":     p.TVLUSD,
			}).Debug("Filtered invalid pool")
		}
	}

	if opts.EnableOutlierDetection && len(valid) > 3 {
		valid = filterOutliers(valid, opts.OutlierIQRMultiplier)
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].APY > valid[j].APY
	})
	return valid
}

// isValidPool checks if a single pool meets all validation criteria
func isValidPool(p model.Pool, opts FilterOptions) bool {
	if p.ID == "" || p.Project == "" {
		return false
	}

	// Negative yields make no sense for a rotation target
	if p.APY <= 0 || p.APY > opts.MaxAPY {
		return false
	}

	if p.TVLUSD < opts.MinTVL {
		return false
	}

	if len(opts.Stablecoins) > 0 && !isStablecoin(p.Symbol, opts.Stablecoins) {
		return false
	}

	return true
}

// isStablecoin matches the pool symbol against the allow list. Composite
// symbols like "USDC-USDT" count when every leg is allowed.
func isStablecoin(symbol string, allowed []string) bool {
	for _, leg := range strings.Split(strings.ToUpper(symbol), "-") {
		found := false
		for _, a := range allowed {
			if leg == strings.ToUpper(a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// filterOutliers removes statistical APY outliers using the IQR method.
func filterOutliers(candidates []model.Pool, iqrMultiplier float64) []model.Pool {
	apys := make([]float64, len(candidates))
	for i, p := range candidates {
		apys[i] = p.APY
	}
	sort.Float64s(apys)

	q1 := apys[len(apys)/4]
	q3 := apys[len(apys)*3/4]
	iqr := q3 - q1

	lowerBound := q1 - iqrMultiplier*iqr
	upperBound := q3 + iqrMultiplier*iqr

	valid := make([]model.Pool, 0, len(candidates))
	for _, p := range candidates {
		if p.APY >= lowerBound && p.APY <= upperBound {
			valid = append(valid, p)
		} else {
			logrus.WithFields(logrus.Fields{
				"pool":   p.ID,
				"apy":    p.APY,
				"bounds": []float64{lowerBound, upperBound},
			}).Info("Filtered outlier pool")
		}
	}
	return valid
}
