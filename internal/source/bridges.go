package source

import (
	"time"

	"github.com/yourorg/stableroute-engine/internal/model"
)

// BridgeProfile is the static descriptive record for a known bridge: launch
// year for age computation, TVL tier and the canonical contract address used
// for verification lookups.
type BridgeProfile struct {
	Architecture    model.BridgeArchitecture
	LaunchYear      int
	TVLUSD          float64
	ContractAddress string
}

// bridgeRegistry covers the bridges the aggregator routes through. Quotes for
// bridges outside the table fall back to the quote's own architecture class
// and zeroed age/TVL, which the risk engine scores conservatively.
var bridgeRegistry = map[string]BridgeProfile{
	"across": {
		Architecture:    model.ArchIntent,
		LaunchYear:      2021,
		TVLUSD:          120_000_000,
		ContractAddress: "0xc186fA914353c44b2E33eBE05f21846F1048bEda",
	},
	"hop": {
		Architecture:    model.ArchLiquidity,
		LaunchYear:      2021,
		TVLUSD:          60_000_000,
		ContractAddress: "0xb8901acB165ed027E32754E0FFe830802919727f",
	},
	"stargate": {
		Architecture:    model.ArchLayerZero,
		LaunchYear:      2022,
		TVLUSD:          450_000_000,
		ContractAddress: "0x8731d54E9D02c286767d56ac03e8037C07e01e98",
	},
	"arbitrum-bridge": {
		Architecture:    model.ArchCanonical,
		LaunchYear:      2021,
		TVLUSD:          6_000_000_000,
		ContractAddress: "0x8315177aB297bA92A06054cE80a67Ed4DBd7ed3a",
	},
	"optimism-bridge": {
		Architecture:    model.ArchCanonical,
		LaunchYear:      2021,
		TVLUSD:          3_500_000_000,
		ContractAddress: "0x99C9fc46f92E8a1c0deC1b1747d010903E884bE1",
	},
	"base-bridge": {
		Architecture:    model.ArchCanonical,
		LaunchYear:      2023,
		TVLUSD:          2_800_000_000,
		ContractAddress: "0x3154Cf16ccdb4C6d922629664174b904d80F2C35",
	},
	"polygon-pos-bridge": {
		Architecture:    model.ArchCanonical,
		LaunchYear:      2020,
		TVLUSD:          2_000_000_000,
		ContractAddress: "0xA0c68C638235ee32657e8f720a23ceC1bFc77C77",
	},
	"cbridge": {
		Architecture:    model.ArchLiquidity,
		LaunchYear:      2021,
		TVLUSD:          80_000_000,
		ContractAddress: "0x5427FEFA711Eff984124bFBB1AB6fbf5E3DA1820",
	},
	"multichain": {
		Architecture:    model.ArchOther,
		LaunchYear:      2020,
		TVLUSD:          0,
		ContractAddress: "0x6b7a87899490EcE95443e979cA9485CBE7E71522",
	},
	"wormhole": {
		Architecture:    model.ArchOther,
		LaunchYear:      2020,
		TVLUSD:          700_000_000,
		ContractAddress: "0x3ee18B2214AFF97000D974cf647E7C347E8fa585",
	},
}

// LookupBridge returns the static profile for a bridge name, if known.
func LookupBridge(name string) (BridgeProfile, bool) {
	p, ok := bridgeRegistry[normalizeBridgeName(name)]
	return p, ok
}

// BuildBridgeMetadata combines a live quote with the static registry into the
// metadata record the risk engine scores. asOf fixes the age computation so
// the result is reproducible.
func BuildBridgeMetadata(quote model.BridgeQuote, asOf time.Time) model.BridgeMetadata {
	meta := model.BridgeMetadata{
		Name:         quote.BridgeName,
		Architecture: quote.BridgeType,
	}

	if profile, ok := LookupBridge(quote.BridgeName); ok {
		meta.Architecture = profile.Architecture
		meta.TVLUSD = profile.TVLUSD
		if profile.LaunchYear > 0 {
			meta.AgeYears = float64(asOf.Year() - profile.LaunchYear)
			if meta.AgeYears < 0 {
				meta.AgeYears = 0
			}
		}
	}

	if meta.Architecture == "" {
		meta.Architecture = model.ArchOther
	}
	return meta
}
