package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/stableroute-engine/internal/config"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// YieldClient fetches stablecoin pool listings from the yield data source.
type YieldClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewYieldClient creates a yield source client from configuration.
func NewYieldClient(cfg config.Config) *YieldClient {
	return &YieldClient{
		baseURL:    cfg.YieldsURL,
		httpClient: StandardClient(newRetryClient()),
	}
}

// PoolsByChain retrieves the pool snapshot for a single chain.
func (c *YieldClient) PoolsByChain(ctx context.Context, chain types.SupportedChain) ([]model.Pool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pools", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	var response struct {
		Status string `json:"status"`
		Data   []struct {
			Chain   string  `json:"chain"`
			Project string  `json:"project"`
			Symbol  string  `json:"symbol"`
			TVLUSD  float64 `json:"tvlUsd"`
			APY     float64 `json:"apy"`
			Pool    string  `json:"pool"`
		} `json:"data"`
	}

	if err := getJSON(c.httpClient, req, &response); err != nil {
		return nil, fmt.Errorf("yield source: %w", err)
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("yield source returned no pools")
	}

	pools := make([]model.Pool, 0, 64)
	for _, d := range response.Data {
		if !equalsChain(d.Chain, chain) {
			continue
		}
		pools = append(pools, model.Pool{
			ID:      d.Pool,
			Chain:   string(chain),
			Project: d.Project,
			Symbol:  d.Symbol,
			TVLUSD:  d.TVLUSD,
			APY:     d.APY,
		})
	}

	logrus.Debugf("Yield source returned %d pools for chain %s", len(pools), chain)
	return pools, nil
}

// Pool retrieves a single pool snapshot by identifier.
func (c *YieldClient) Pool(ctx context.Context, chain types.SupportedChain, poolID string) (model.Pool, error) {
	pools, err := c.PoolsByChain(ctx, chain)
	if err != nil {
		return model.Pool{}, err
	}
	for _, p := range pools {
		if p.ID == poolID {
			return p, nil
		}
	}
	return model.Pool{}, fmt.Errorf("pool %s not found on chain %s", poolID, chain)
}

// equalsChain matches the source's chain spelling against the registry name.
// The yield source capitalizes chain names ("Arbitrum") and calls BSC "BSC".
func equalsChain(raw string, chain types.SupportedChain) bool {
	switch chain {
	case types.ChainBSC:
		return raw == "BSC" || raw == "Binance"
	default:
		return strings.EqualFold(raw, string(chain))
	}
}
