// Package types contains shared type definitions used across multiple packages
package types

// SupportedChain represents a blockchain network supported by the engine
type SupportedChain string

// Supported blockchain networks
const (
	ChainEthereum  SupportedChain = "ethereum"
	ChainPolygon   SupportedChain = "polygon"
	ChainArbitrum  SupportedChain = "arbitrum"
	ChainOptimism  SupportedChain = "optimism"
	ChainAvalanche SupportedChain = "avalanche"
	ChainBSC       SupportedChain = "binance"
	ChainBase      SupportedChain = "base"
)

// ChainProfile holds the static per-chain parameters the engine needs when
// live data is unavailable or a chain has no fee-history endpoint.
type ChainProfile struct {
	// NativeSymbol is the gas token symbol used for price lookups
	NativeSymbol string

	// Mature marks chains with long operational history for risk scoring
	Mature bool

	// DefaultFeeGwei is the static fee-per-gas fallback when too few
	// fee-history samples are available
	DefaultFeeGwei float64

	// BridgeGasUnits is the typical gas consumed by a bridge deposit or
	// withdrawal transaction on this chain
	BridgeGasUnits uint64

	// DefaultNativePriceUSD is the hardcoded native-token price fallback
	DefaultNativePriceUSD float64
}

// profiles is the built-in chain registry. RPC endpoints and overrides come
// from configuration; these are the engine's last-resort static values.
var profiles = map[SupportedChain]ChainProfile{
	ChainEthereum:  {NativeSymbol: "ETH", Mature: true, DefaultFeeGwei: 20, BridgeGasUnits: 150_000, DefaultNativePriceUSD: 3000},
	ChainPolygon:   {NativeSymbol: "POL", Mature: true, DefaultFeeGwei: 40, BridgeGasUnits: 180_000, DefaultNativePriceUSD: 0.5},
	ChainArbitrum:  {NativeSymbol: "ETH", Mature: true, DefaultFeeGwei: 0.1, BridgeGasUnits: 600_000, DefaultNativePriceUSD: 3000},
	ChainOptimism:  {NativeSymbol: "ETH", Mature: true, DefaultFeeGwei: 0.05, BridgeGasUnits: 300_000, DefaultNativePriceUSD: 3000},
	ChainAvalanche: {NativeSymbol: "AVAX", Mature: false, DefaultFeeGwei: 25, BridgeGasUnits: 200_000, DefaultNativePriceUSD: 30},
	ChainBSC:       {NativeSymbol: "BNB", Mature: false, DefaultFeeGwei: 3, BridgeGasUnits: 180_000, DefaultNativePriceUSD: 600},
	ChainBase:      {NativeSymbol: "ETH", Mature: false, DefaultFeeGwei: 0.05, BridgeGasUnits: 300_000, DefaultNativePriceUSD: 3000},
}

// Profile returns the static profile for a chain. Unknown chains get a
// conservative Ethereum-like profile so lookups never fail.
func Profile(chain SupportedChain) ChainProfile {
	if p, ok := profiles[chain]; ok {
		return p
	}
	return ChainProfile{NativeSymbol: "ETH", Mature: false, DefaultFeeGwei: 20, BridgeGasUnits: 200_000, DefaultNativePriceUSD: 3000}
}

// IsSupported reports whether the chain is part of the registry.
func IsSupported(chain SupportedChain) bool {
	_, ok := profiles[chain]
	return ok
}

// IsMature reports whether the chain counts as mature for risk scoring.
func IsMature(chain SupportedChain) bool {
	return Profile(chain).Mature
}

// All returns every registered chain.
func All() []SupportedChain {
	chains := make([]SupportedChain, 0, len(profiles))
	for c := range profiles {
		chains = append(chains, c)
	}
	return chains
}
