package source

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/stableroute-engine/internal/config"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// feeHistoryBlocks is the rolling window requested from eth_feeHistory.
const feeHistoryBlocks = 10

// FeeClient samples fee-market data from each chain's JSON-RPC endpoint and
// fetches native token prices from the price API.
type FeeClient struct {
	endpoints map[string]string
	priceURL  string

	mu      sync.Mutex
	clients map[types.SupportedChain]*ethclient.Client

	httpClient *http.Client
}

// NewFeeClient creates a chain-fee client. RPC connections are dialed lazily
// per chain on first use.
func NewFeeClient(cfg config.Config) *FeeClient {
	return &FeeClient{
		endpoints:  cfg.RPCEndpoints,
		priceURL:   cfg.PriceURL,
		clients:    make(map[types.SupportedChain]*ethclient.Client),
		httpClient: StandardClient(newRetryClient()),
	}
}

// FeeHistory returns recent base-fee and priority-fee samples for the chain,
// ordered oldest first.
func (c *FeeClient) FeeHistory(ctx context.Context, chain types.SupportedChain) ([]model.FeeSample, error) {
	client, err := c.clientFor(ctx, chain)
	if err != nil {
		return nil, err
	}

	history, err := client.FeeHistory(ctx, feeHistoryBlocks, nil, []float64{50})
	if err != nil {
		return nil, fmt.Errorf("eth_feeHistory on %s: %w", chain, err)
	}

	if len(history.BaseFee) == 0 {
		return nil, fmt.Errorf("empty fee history from %s", chain)
	}

	// eth_feeHistory carries no per-block timestamps; approximate with the
	// chain's nominal block cadence counted back from now.
	const blockInterval = 12 * time.Second
	now := time.Now()

	samples := make([]model.FeeSample, 0, len(history.BaseFee))
	for i, base := range history.BaseFee {
		s := model.FeeSample{
			BaseFee:   weiToGwei(base),
			Timestamp: now.Add(-time.Duration(len(history.BaseFee)-1-i) * blockInterval),
		}
		if i < len(history.Reward) && len(history.Reward[i]) > 0 {
			s.PriorityFee = weiToGwei(history.Reward[i][0])
		}
		samples = append(samples, s)
	}

	logrus.Debugf("Fetched %d fee samples from %s", len(samples), chain)
	return samples, nil
}

// NativeTokenPrice returns the USD price of the chain's gas token.
func (c *FeeClient) NativeTokenPrice(ctx context.Context, chain types.SupportedChain) (float64, error) {
	key := priceKey(chain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.priceURL+"/prices/current/"+key, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}

	var response struct {
		Coins map[string]struct {
			Price float64 `json:"price"`
		} `json:"coins"`
	}

	if err := getJSON(c.httpClient, req, &response); err != nil {
		return 0, fmt.Errorf("price source: %w", err)
	}

	coin, ok := response.Coins[key]
	if !ok || coin.Price <= 0 {
		return 0, fmt.Errorf("price source returned no price for %s", key)
	}
	return coin.Price, nil
}

// clientFor returns the lazily dialed RPC client for the chain.
func (c *FeeClient) clientFor(ctx context.Context, chain types.SupportedChain) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[chain]; ok {
		return client, nil
	}

	endpoint, ok := c.endpoints[string(chain)]
	if !ok || endpoint == "" {
		return nil, fmt.Errorf("no RPC endpoint configured for chain %s", chain)
	}

	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s RPC: %w", chain, err)
	}
	c.clients[chain] = client
	return client, nil
}

// weiToGwei converts a wei amount to gwei as a float.
func weiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.GWei)).Float64()
	return f
}

// priceKey maps a chain's native token onto the price API's coin key.
func priceKey(chain types.SupportedChain) string {
	switch types.Profile(chain).NativeSymbol {
	case "ETH":
		return "coingecko:ethereum"
	case "POL":
		return "coingecko:polygon-ecosystem-token"
	case "AVAX":
		return "coingecko:avalanche-2"
	case "BNB":
		return "coingecko:binancecoin"
	default:
		return "coingecko:ethereum"
	}
}
