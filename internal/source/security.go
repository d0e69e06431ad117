package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/stableroute-engine/internal/config"
	"github.com/yourorg/stableroute-engine/internal/model"
)

// SecurityClient answers exploit-history and contract-verification lookups.
// Remote lookups are backed by the built-in incident table so a dead registry
// endpoint never erases known history.
type SecurityClient struct {
	registryURL string
	scanURL     string
	scanAPIKey  string
	httpClient  *http.Client
}

// NewSecurityClient creates a security-history client from configuration.
func NewSecurityClient(cfg config.Config) *SecurityClient {
	return &SecurityClient{
		registryURL: cfg.SecurityURL,
		scanURL:     cfg.ScanURL,
		scanAPIKey:  cfg.APIKeys["etherscan"],
		httpClient:  StandardClient(newRetryClient()),
	}
}

// Exploit returns the known security incident for a bridge, or nil when none
// is on record. Absence means "no known incident", not "proven safe".
func (c *SecurityClient) Exploit(ctx context.Context, bridgeName string) (*model.ExploitRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.registryURL+"/api/incidents?bridge="+url.QueryEscape(bridgeName), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	var response struct {
		Incidents []struct {
			Year        int     `json:"year"`
			AmountUSD   float64 `json:"amount_usd"`
			Description string  `json:"description"`
			Reference   string  `json:"reference"`
		} `json:"incidents"`
	}

	if err := getJSON(c.httpClient, req, &response); err != nil {
		// The incident registry is best-effort; fall back to the built-in table
		// rather than reporting a clean history we cannot confirm.
		if rec, ok := knownExploits[normalizeBridgeName(bridgeName)]; ok {
			logrus.Debugf("Incident registry unavailable, using built-in record for %s", bridgeName)
			r := rec
			return &r, nil
		}
		return nil, fmt.Errorf("security source: %w", err)
	}

	if len(response.Incidents) == 0 {
		if rec, ok := knownExploits[normalizeBridgeName(bridgeName)]; ok {
			r := rec
			return &r, nil
		}
		return nil, nil
	}

	// Most damaging incident wins when the registry lists several.
	worst := response.Incidents[0]
	for _, inc := range response.Incidents[1:] {
		if inc.AmountUSD > worst.AmountUSD {
			worst = inc
		}
	}
	return &model.ExploitRecord{
		Year:        worst.Year,
		AmountUSD:   worst.AmountUSD,
		Description: worst.Description,
		Reference:   worst.Reference,
	}, nil
}

// Verified reports whether the bridge contract's source code is verified on
// the block explorer.
func (c *SecurityClient) Verified(ctx context.Context, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid contract address %q", address)
	}

	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", common.HexToAddress(address).Hex())
	if c.scanAPIKey != "" {
		params.Set("apikey", c.scanAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scanURL+"?"+params.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("error creating request: %w", err)
	}

	var response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	if err := getJSON(c.httpClient, req, &response); err != nil {
		return false, fmt.Errorf("verification source: %w", err)
	}

	return response.Status == "1", nil
}

// normalizeBridgeName folds aggregator tool names onto registry keys.
func normalizeBridgeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// knownExploits is the built-in incident table for widely reported bridge
// hacks. It backs the remote registry, which may lag or be unreachable.
var knownExploits = map[string]model.ExploitRecord{
	"multichain": {
		Year:        2023,
		AmountUSD:   126_000_000,
		Description: "Multichain MPC keys compromised, assets drained from bridge contracts",
		Reference:   "https://rekt.news/multichain-rekt2",
	},
	"wormhole": {
		Year:        2022,
		AmountUSD:   326_000_000,
		Description: "Signature verification bypass minted unbacked wETH on Solana",
		Reference:   "https://rekt.news/wormhole-rekt",
	},
	"ronin": {
		Year:        2022,
		AmountUSD:   624_000_000,
		Description: "Validator keys compromised, five of nine multisig threshold reached",
		Reference:   "https://rekt.news/ronin-rekt",
	},
	"nomad": {
		Year:        2022,
		AmountUSD:   190_000_000,
		Description: "Trusted root initialization bug allowed arbitrary message replay",
		Reference:   "https://rekt.news/nomad-rekt",
	},
	"harmony": {
		Year:        2022,
		AmountUSD:   100_000_000,
		Description: "Horizon bridge multisig compromised",
		Reference:   "https://rekt.news/harmony-rekt",
	},
	"orbit": {
		Year:        2024,
		AmountUSD:   81_000_000,
		Description: "Orbit Chain bridge signer keys compromised",
		Reference:   "https://rekt.news/orbit-bridge-rekt",
	},
}
