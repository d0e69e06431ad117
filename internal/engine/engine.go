// Package engine orchestrates a route evaluation: it fans out to the guarded
// external sources, degrades individual failures to cached or fallback values,
// and assembles the final route calculation.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/stableroute-engine/internal/config"
	"github.com/yourorg/stableroute-engine/internal/gas"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/otel"
	"github.com/yourorg/stableroute-engine/internal/pools"
	"github.com/yourorg/stableroute-engine/internal/resilience"
	"github.com/yourorg/stableroute-engine/internal/source"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// Gas unit approximations for the non-bridge transactions of a rotation.
const (
	poolDepositGasUnits = 220_000
	claimGasUnits       = 100_000
)

// Request is a route evaluation request crossing the system boundary.
type Request struct {
	CapitalUSD    float64              `json:"capital_usd"`
	SourceChain   types.SupportedChain `json:"source_chain"`
	TargetPool    model.Pool           `json:"target_pool"`
	WalletAddress string               `json:"wallet_address"`
}

// Engine aggregates the four external sources behind resilience guards and
// turns their answers into route calculations. All guard and breaker state is
// owned here and injected at construction, one instance per process.
type Engine struct {
	cfg config.Config

	yields   *source.YieldClient
	bridges  *source.BridgeClient
	fees     *source.FeeClient
	security *source.SecurityClient

	poolGuard    *resilience.Guard[[]model.Pool]
	quoteGuard   *resilience.Guard[model.BridgeQuote]
	feeGuard     *resilience.Guard[[]model.FeeSample]
	priceGuard   *resilience.Guard[float64]
	exploitGuard *resilience.Guard[*model.ExploitRecord]
	verifyGuard  *resilience.Guard[bool]

	estimator  *gas.Estimator
	filterOpts pools.FilterOptions
	tracer     trace.Tracer
	now        func() time.Time
}

// New wires an Engine from configuration. Each source gets its own breaker
// and cache with the TTL class matching its real-world volatility.
func New(cfg config.Config) *Engine {
	base := resilience.Options{
		FailureThreshold: cfg.FailureThreshold,
		ResetDelay:       cfg.BreakerResetDelay,
		CallTimeout:      cfg.SourceTimeout,
	}

	poolOpts := base
	poolOpts.CacheTTL = cfg.PoolTTL
	quoteOpts := base
	quoteOpts.CacheTTL = cfg.PriceTTL
	feeOpts := base
	feeOpts.CacheTTL = cfg.PriceTTL
	priceOpts := base
	priceOpts.CacheTTL = cfg.PriceTTL
	metaOpts := base
	metaOpts.CacheTTL = cfg.MetadataTTL

	return &Engine{
		cfg:      cfg,
		yields:   source.NewYieldClient(cfg),
		bridges:  source.NewBridgeClient(cfg),
		fees:     source.NewFeeClient(cfg),
		security: source.NewSecurityClient(cfg),

		poolGuard: resilience.NewGuard[[]model.Pool]("yields", poolOpts, func(string) []model.Pool {
			return nil
		}),
		quoteGuard: resilience.NewGuard[model.BridgeQuote]("bridge", quoteOpts, fallbackQuote),
		feeGuard: resilience.NewGuard[[]model.FeeSample]("chainfee", feeOpts, func(string) []model.FeeSample {
			return nil
		}),
		priceGuard: resilience.NewGuard[float64]("price", priceOpts, func(key string) float64 {
			return types.Profile(types.SupportedChain(key)).DefaultNativePriceUSD
		}),
		exploitGuard: resilience.NewGuard[*model.ExploitRecord]("security", metaOpts, func(string) *model.ExploitRecord {
			return nil
		}),
		verifyGuard: resilience.NewGuard[bool]("verification", metaOpts, func(string) bool {
			return false
		}),

		estimator:  gas.NewEstimator(cfg.GasSmoothing, cfg.GasSafetyFactor, cfg.GasMinSamples),
		filterOpts: pools.DefaultFilterOptions(),
		tracer:     otel.Tracer(),
		now:        time.Now,
	}
}

// WithClock overrides the engine clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Guards returns every resilience guard's breaker keyed by source name, for
// status reporting and manual control.
func (e *Engine) Guards() map[string]*resilience.Breaker {
	return map[string]*resilience.Breaker{
		e.poolGuard.Name():    e.poolGuard.Breaker(),
		e.quoteGuard.Name():   e.quoteGuard.Breaker(),
		e.feeGuard.Name():     e.feeGuard.Breaker(),
		e.priceGuard.Name():   e.priceGuard.Breaker(),
		e.exploitGuard.Name(): e.exploitGuard.Breaker(),
		e.verifyGuard.Name():  e.verifyGuard.Breaker(),
	}
}

// Pools lists the validated candidate pools on a chain, best yield first.
func (e *Engine) Pools(ctx context.Context, chain types.SupportedChain) ([]model.Pool, error) {
	if !types.IsSupported(chain) {
		return nil, model.NewValidationError("chain", fmt.Sprintf("unsupported chain %q", chain))
	}

	res := e.poolGuard.Do(ctx, string(chain), func(ctx context.Context) ([]model.Pool, error) {
		return e.yields.PoolsByChain(ctx, chain)
	})

	filtered := pools.Filter(res.Value, e.filterOpts)
	if len(filtered) == 0 {
		return nil, model.NewInsufficientDataError(fmt.Sprintf("no valid pools on chain %s", chain))
	}
	return filtered, nil
}

// Evaluate runs a full route evaluation under the request deadline. Malformed
// input fails fast with a ValidationError before any fan-out; after that every
// source failure degrades locally and a best-effort calculation is always
// returned.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*model.RouteCalculation, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestDeadline)
	defer cancel()

	ctx, span := e.tracer.Start(ctx, "engine.Evaluate",
		trace.WithAttributes(
			attribute.Float64("capital_usd", req.CapitalUSD),
			attribute.String("source_chain", string(req.SourceChain)),
			attribute.String("pool", req.TargetPool.ID),
		))
	defer span.End()

	start := e.now()
	targetChain := types.SupportedChain(req.TargetPool.Chain)

	pool, poolStatus := e.refreshPool(ctx, req)
	fanout := e.fanOut(ctx, req.SourceChain, targetChain, pool, req.CapitalUSD)
	sec := e.lookupSecurity(ctx, fanout.entryQuote.Value)

	calc := e.assemble(req, pool, targetChain, fanout, sec)
	calc.Sources = append(calc.Sources, poolStatus)

	for _, s := range calc.Sources {
		if s.Degraded {
			span.AddEvent("source degraded", trace.WithAttributes(
				attribute.String("source", s.Source),
				attribute.String("reason", s.Reason),
			))
		}
	}

	logrus.WithFields(logrus.Fields{
		"capital":    req.CapitalUSD,
		"route":      fmt.Sprintf("%s->%s", req.SourceChain, targetChain),
		"pool":       pool.ID,
		"score":      calc.Risk.Score,
		"latency_ms": e.now().Sub(start).Milliseconds(),
	}).Info("Route evaluated")

	return calc, nil
}

// fanResults joins the concurrent sub-results by source identity rather than
// completion order.
type fanResults struct {
	entryQuote  resilience.Result[model.BridgeQuote]
	exitQuote   resilience.Result[model.BridgeQuote]
	sourceFees  resilience.Result[[]model.FeeSample]
	targetFees  resilience.Result[[]model.FeeSample]
	sourcePrice resilience.Result[float64]
	targetPrice resilience.Result[float64]
}

// fanOut issues the quote, fee and price calls concurrently. Each goroutine
// writes only its own field, so the join needs no extra locking beyond the
// WaitGroup.
func (e *Engine) fanOut(ctx context.Context, from, to types.SupportedChain, pool model.Pool, capitalUSD float64) fanResults {
	var (
		wg  sync.WaitGroup
		out fanResults
	)

	asset := primaryAsset(pool.Symbol)
	routeKey := func(a, b types.SupportedChain) string {
		return fmt.Sprintf("%s:%s:%s", a, b, asset)
	}

	wg.Add(6)
	go func() {
		defer wg.Done()
		out.entryQuote = e.quoteGuard.Do(ctx, routeKey(from, to), func(ctx context.Context) (model.BridgeQuote, error) {
			return e.bridges.Quote(ctx, from, to, asset, capitalUSD)
		})
	}()
	go func() {
		defer wg.Done()
		out.exitQuote = e.quoteGuard.Do(ctx, routeKey(to, from), func(ctx context.Context) (model.BridgeQuote, error) {
			return e.bridges.Quote(ctx, to, from, asset, capitalUSD)
		})
	}()
	go func() {
		defer wg.Done()
		out.sourceFees = e.feeGuard.Do(ctx, string(from), func(ctx context.Context) ([]model.FeeSample, error) {
			return e.fees.FeeHistory(ctx, from)
		})
	}()
	go func() {
		defer wg.Done()
		out.targetFees = e.feeGuard.Do(ctx, string(to), func(ctx context.Context) ([]model.FeeSample, error) {
			return e.fees.FeeHistory(ctx, to)
		})
	}()
	go func() {
		defer wg.Done()
		out.sourcePrice = e.priceGuard.Do(ctx, string(from), func(ctx context.Context) (float64, error) {
			return e.fees.NativeTokenPrice(ctx, from)
		})
	}()
	go func() {
		defer wg.Done()
		out.targetPrice = e.priceGuard.Do(ctx, string(to), func(ctx context.Context) (float64, error) {
			return e.fees.NativeTokenPrice(ctx, to)
		})
	}()

	wg.Wait()
	return out
}

// securityResults holds the second fan-out phase, which needs the bridge name
// settled by the first.
type securityResults struct {
	exploit  resilience.Result[*model.ExploitRecord]
	verified resilience.Result[bool]
}

// lookupSecurity runs the exploit-history and verification lookups for the
// quoted bridge concurrently.
func (e *Engine) lookupSecurity(ctx context.Context, quote model.BridgeQuote) securityResults {
	var (
		wg  sync.WaitGroup
		out securityResults
	)

	profile, known := source.LookupBridge(quote.BridgeName)

	wg.Add(2)
	go func() {
		defer wg.Done()
		out.exploit = e.exploitGuard.Do(ctx, quote.BridgeName, func(ctx context.Context) (*model.ExploitRecord, error) {
			return e.security.Exploit(ctx, quote.BridgeName)
		})
	}()
	go func() {
		defer wg.Done()
		if !known || profile.ContractAddress == "" {
			out.verified = resilience.Result[bool]{Degraded: true, Reason: "no contract address on record"}
			return
		}
		out.verified = e.verifyGuard.Do(ctx, profile.ContractAddress, func(ctx context.Context) (bool, error) {
			return e.security.Verified(ctx, profile.ContractAddress)
		})
	}()

	wg.Wait()
	return out
}

// refreshPool re-validates the requested pool against the live listing when
// available, falling back to the caller's snapshot.
func (e *Engine) refreshPool(ctx context.Context, req Request) (model.Pool, model.SourceStatus) {
	chain := types.SupportedChain(req.TargetPool.Chain)
	res := e.poolGuard.Do(ctx, string(chain), func(ctx context.Context) ([]model.Pool, error) {
		return e.yields.PoolsByChain(ctx, chain)
	})

	status := model.SourceStatus{Source: "yields", Degraded: res.Degraded, Reason: res.Reason}
	for _, p := range res.Value {
		if p.ID == req.TargetPool.ID {
			return p, status
		}
	}

	if !res.Degraded {
		status.Degraded = true
		status.Reason = "pool not in live listing, using request snapshot"
	}
	return req.TargetPool, status
}

// validate rejects malformed caller input before any fan-out begins.
func validate(req Request) error {
	if req.CapitalUSD <= 0 {
		return model.NewValidationError("capital", "must be greater than zero")
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		return model.NewValidationError("wallet_address", "must not be empty")
	}
	if !common.IsHexAddress(req.WalletAddress) {
		return model.NewValidationError("wallet_address", "not a valid hex address")
	}
	if !types.IsSupported(req.SourceChain) {
		return model.NewValidationError("source_chain", fmt.Sprintf("unsupported chain %q", req.SourceChain))
	}
	if req.TargetPool.ID == "" {
		return model.NewValidationError("target_pool", "pool id must not be empty")
	}
	target := types.SupportedChain(req.TargetPool.Chain)
	if !types.IsSupported(target) {
		return model.NewValidationError("target_pool", fmt.Sprintf("unsupported chain %q", req.TargetPool.Chain))
	}
	if target == req.SourceChain {
		return model.NewValidationError("target_pool", "target chain equals source chain")
	}
	return nil
}

// fallbackQuote is the hardcoded bridge quote used when neither a live quote
// nor a cached one is available: a conservative liquidity-bridge style fee.
func fallbackQuote(string) model.BridgeQuote {
	return model.BridgeQuote{
		BridgeName:           "unknown",
		BridgeType:           model.ArchOther,
		FeeUSD:               10,
		EstimatedTimeSeconds: 1800,
	}
}

// primaryAsset picks the bridgeable leg of a possibly composite pool symbol.
func primaryAsset(symbol string) string {
	if i := strings.IndexByte(symbol, '-'); i > 0 {
		return symbol[:i]
	}
	return symbol
}
