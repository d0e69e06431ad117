package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/stableroute-engine/internal/config"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// BridgeClient fetches transfer quotes from the bridge aggregator.
type BridgeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewBridgeClient creates a bridge-quote client from configuration.
func NewBridgeClient(cfg config.Config) *BridgeClient {
	return &BridgeClient{
		baseURL:    cfg.BridgeURL,
		apiKey:     cfg.APIKeys["bridge"],
		httpClient: StandardClient(newRetryClient()),
	}
}

// Quote asks the aggregator for the cheapest route moving amountUSD of asset
// from the source chain to the destination chain.
func (c *BridgeClient) Quote(ctx context.Context, from, to types.SupportedChain, asset string, amountUSD float64) (model.BridgeQuote, error) {
	params := url.Values{}
	params.Set("fromChain", string(from))
	params.Set("toChain", string(to))
	params.Set("token", asset)
	params.Set("amountUsd", strconv.FormatFloat(amountUSD, 'f', 2, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return model.BridgeQuote{}, fmt.Errorf("error creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	var response struct {
		Tool     string `json:"tool"`
		ToolType string `json:"toolType"`
		Estimate struct {
			FeeUSD            float64 `json:"feeCostsUsd"`
			ExecutionDuration int64   `json:"executionDuration"`
		} `json:"estimate"`
	}

	if err := getJSON(c.httpClient, req, &response); err != nil {
		return model.BridgeQuote{}, fmt.Errorf("bridge source: %w", err)
	}

	if response.Tool == "" {
		return model.BridgeQuote{}, fmt.Errorf("bridge source returned empty route %s -> %s", from, to)
	}

	quote := model.BridgeQuote{
		BridgeName:           response.Tool,
		BridgeType:           parseArchitecture(response.ToolType),
		FeeUSD:               response.Estimate.FeeUSD,
		EstimatedTimeSeconds: response.Estimate.ExecutionDuration,
	}

	logrus.WithFields(logrus.Fields{
		"bridge":  quote.BridgeName,
		"fee_usd": quote.FeeUSD,
		"route":   fmt.Sprintf("%s->%s", from, to),
	}).Debug("Bridge quote received")

	return quote, nil
}

// parseArchitecture maps the aggregator's tool type onto the engine's
// architecture classes. Unknown types land in "other".
func parseArchitecture(raw string) model.BridgeArchitecture {
	switch raw {
	case "canonical", "native":
		return model.ArchCanonical
	case "intent", "rfq":
		return model.ArchIntent
	case "layerzero", "oft":
		return model.ArchLayerZero
	case "liquidity", "amm":
		return model.ArchLiquidity
	default:
		return model.ArchOther
	}
}
