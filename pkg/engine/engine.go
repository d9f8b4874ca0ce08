// Package engine assembles every other package into the running
// arbitrage bot: the scan-rotation loop, the optional WebSocket-reactive
// fast path, opportunity execution, and the consecutive-failure kill
// switch. It is the Go rendering of the reference bot's ArbitrageEngine,
// generalized from a quote-only scanner into a full detect-build-sign-
// submit-confirm pipeline.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	cosmath "cosmossdk.io/math"

	"github.com/solarb/arbengine/pkg"
	"github.com/solarb/arbengine/pkg/altmanager"
	"github.com/solarb/arbengine/pkg/config"
	"github.com/solarb/arbengine/pkg/feestrategy"
	"github.com/solarb/arbengine/pkg/flashloan"
	"github.com/solarb/arbengine/pkg/protocol"
	"github.com/solarb/arbengine/pkg/quoteprovider"
	"github.com/solarb/arbengine/pkg/registry"
	"github.com/solarb/arbengine/pkg/scanner"
	"github.com/solarb/arbengine/pkg/sol"
	"github.com/solarb/arbengine/pkg/streamer"
	"github.com/solarb/arbengine/pkg/tokens"
	"github.com/solarb/arbengine/pkg/txbuilder"
)

// priorityPairs are scanned every cycle; the full configured set is swept
// only every 3rd cycle, matching the reference bot's stagger.
var priorityPairs = map[string]struct{}{
	"SOL/USDC": {}, "MSOL/USDC": {}, "JITOSOL/USDC": {}, "BSOL/USDC": {},
	"JUP/USDC": {}, "ORCA/USDC": {},
}

const (
	reactivePriceMoveBps  = 5
	reactivePairCooldown  = 2 * time.Second
	postExecCooldown      = 10 * time.Second
	triangleGraphEveryN   = 5
	fullSweepEveryN       = 3
	focusMintBatchSize    = 10
	confirmPollInterval   = 2 * time.Second
	confirmPollAttempts   = 30
	maxConcurrentExecs    = 3
	// minWalletLamports is the floor below which the wallet can't reliably
	// cover priority fees and MEV tips across a run; startup only warns,
	// since a shrinking balance mid-run shouldn't kill an otherwise-healthy
	// engine.
	minWalletLamports = 50_000_000
)

// jitoEndpoints maps a configured region to its public Jito block-engine
// URL. "default" resolves to the regionless global endpoint.
var jitoEndpoints = map[string]string{
	"default":   "https://mainnet.block-engine.jito.wtf",
	"amsterdam": "https://amsterdam.mainnet.block-engine.jito.wtf",
	"frankfurt": "https://frankfurt.mainnet.block-engine.jito.wtf",
	"ny":        "https://ny.mainnet.block-engine.jito.wtf",
	"tokyo":     "https://tokyo.mainnet.block-engine.jito.wtf",
}

// Engine owns every long-lived component and drives the scan/reactive/
// execute state machine described for the bot.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger

	solClient *sol.Client
	wallet    solana.PrivateKey

	flashLoan   *flashloan.Client
	flashFeeBps int64

	reg        *registry.Registry
	quotes     *quoteprovider.Provider
	crossVenue *scanner.CrossVenueScanner
	triangular *scanner.TriangularScanner
	aggregator *scanner.AggregatorScanner
	altMgr     *altmanager.Manager
	txBuilder  *txbuilder.Builder
	feeStrategy *feestrategy.Strategy
	streamer   *streamer.Streamer

	protocols map[string]pkg.Protocol // Dex -> protocol, for direct leg building

	ataMu sync.Mutex
	atas  map[string]solana.PublicKey // mint -> owned token account

	metrics *Metrics

	cycleCount          atomic.Int64
	consecutiveFailures atomic.Int64
	focusRotation       int

	execSem chan struct{}

	cancel context.CancelFunc
}

// New runs the Startup sequence: load the wallet, open the RPC/Jito
// clients, verify the flash-loan pool and read its fee bps, initialize
// the lookup table, discover pools for every configured pair, build the
// scanners, and probe one quote round trip.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	wallet, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("load wallet %s: %w", cfg.WalletPath, err)
	}

	jitoEndpoint := ""
	if cfg.UseJito {
		jitoEndpoint = jitoEndpoints[cfg.JitoRegion]
		if jitoEndpoint == "" {
			jitoEndpoint = jitoEndpoints["default"]
		}
	}

	solClient, err := sol.NewClient(ctx, cfg.RPCURL, jitoEndpoint, 20)
	if err != nil {
		return nil, fmt.Errorf("create solana client: %w", err)
	}

	if balance, err := solClient.GetBalance(ctx, wallet.PublicKey(), rpc.CommitmentConfirmed); err != nil {
		logger.Warn("wallet balance check failed", zap.Error(err))
	} else if balance.Value < minWalletLamports {
		logger.Warn("wallet balance below the priority-fee/tip operating floor",
			zap.Uint64("lamports", balance.Value), zap.Uint64("floor_lamports", minWalletLamports))
	}

	programID, err := solana.PublicKeyFromBase58(cfg.FlashLoanProgramID)
	if err != nil {
		return nil, fmt.Errorf("parse flash-loan program id: %w", err)
	}
	tokenMint, err := solana.PublicKeyFromBase58(cfg.FlashLoanTokenMint)
	if err != nil {
		return nil, fmt.Errorf("parse flash-loan token mint: %w", err)
	}

	flashClient, err := flashloan.NewClient(programID, tokenMint)
	if err != nil {
		return nil, fmt.Errorf("build flash-loan client: %w", err)
	}

	poolState, err := flashClient.GetPoolState(ctx, solClient)
	if err != nil {
		return nil, fmt.Errorf("fetch flash-loan pool state: %w", err)
	}
	feeBps := int64(poolState.FeeBps)
	if feeBps == 0 {
		feeBps = int64(cfg.FlashLoanFeeBps)
	}
	logger.Info("flash loan pool verified",
		zap.String("vault", poolState.Vault.String()),
		zap.Int64("fee_bps", feeBps),
		zap.Bool("active", poolState.IsActive),
	)

	altMgr := altmanager.New(solClient, wallet)
	if err := altMgr.Initialize(ctx, solana.PublicKey{}); err != nil {
		logger.Warn("lookup table initialize failed, continuing without it", zap.Error(err))
	}

	reg := registry.New(solClient, cfg.JupiterAPIKey)
	for _, pair := range cfg.PairList() {
		target, quote, ok := tokens.ParsePair(pair)
		if !ok {
			logger.Warn("skipping invalid configured pair", zap.String("pair", pair))
			continue
		}
		if _, err := reg.DiscoverViaDexAPI(ctx, target, quote, pair); err != nil {
			logger.Warn("dex pool discovery failed", zap.String("pair", pair), zap.Error(err))
		}
		if _, err := reg.DiscoverViaAggregator(ctx, target, quote, pair, uint64(cfg.BorrowAmount), uint64(cfg.BorrowAmount)); err != nil {
			logger.Warn("aggregator pool discovery failed", zap.String("pair", pair), zap.Error(err))
		}
	}

	quotes := quoteprovider.New(cfg.JupiterAPIKey, cfg.UseRaydium)

	e := &Engine{
		cfg:         cfg,
		logger:      logger,
		solClient:   solClient,
		wallet:      wallet,
		flashLoan:   flashClient,
		flashFeeBps: feeBps,
		reg:         reg,
		quotes:      quotes,
		crossVenue:  scanner.NewCrossVenueScanner(reg, feeBps, int64(cfg.MinSpreadBps)),
		triangular:  scanner.NewTriangularScanner(feeBps, int64(cfg.MinTriangleBps)),
		aggregator:  scanner.NewAggregatorScanner(quotes, feeBps, int64(cfg.MinProfitBps)),
		altMgr:      altMgr,
		txBuilder:   txbuilder.New(solClient),
		feeStrategy: feestrategy.Default(),
		protocols: map[string]pkg.Protocol{
			"raydium_clmm": protocol.NewRaydiumClmm(solClient),
			"raydium_v4":   protocol.NewRaydiumAmm(solClient),
			"raydium_cpmm": protocol.NewRaydiumCpmm(solClient),
			"meteora":      protocol.NewMeteoraDlmm(solClient),
			"pumpswap":     protocol.NewPumpAmm(solClient),
		},
		atas:    map[string]solana.PublicKey{},
		metrics: NewMetrics(),
		execSem: make(chan struct{}, maxConcurrentExecs),
	}

	if cfg.WSURL != "" {
		e.streamer = streamer.New(cfg.WSURL, reg.AllPools(), 256)
	}

	if quote, err := quotes.GetQuote(ctx, tokens.ResolveMint("USDC"), tokens.ResolveMint("SOL"), 200_000_000, 50); err != nil {
		logger.Warn("startup quote probe failed", zap.Error(err))
	} else {
		logger.Info("startup quote probe ok",
			zap.Uint64("in", quote.InAmount), zap.Uint64("out", quote.OutAmount), zap.String("source", quote.Source))
	}

	e.metrics.trackedPools.Store(int64(reg.TotalPools()))

	return e, nil
}

// Run drives the scan-rotation loop, the optional reactive worker, and
// the periodic metrics printer until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.scanLoop(ctx)
	}()

	if e.streamer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.streamer.Run(ctx); err != nil && ctx.Err() == nil {
				e.logger.Warn("streamer exited", zap.Error(err))
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			e.reactiveLoop(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.metricsLoop(ctx)
	}()

	<-ctx.Done()
	wg.Wait()

	e.logger.Info("FINAL METRICS", zap.String("summary", e.metrics.Summary()))
	return nil
}

// Stop cancels the engine's root context, which every goroutine observes
// at its next suspension point.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.logger.Info("METRICS", zap.String("summary", e.metrics.Summary()))
		}
	}
}

// scanLoop is the ticker-driven pair sweep: full sweep every 3rd cycle,
// priority subset otherwise, with a triangular-graph rebuild and
// rotating-focus-mint scan every 5th cycle.
func (e *Engine) scanLoop(ctx context.Context) {
	for {
		cycleStart := time.Now()
		cycle := e.cycleCount.Add(1)
		e.metrics.scanCycles.Add(1)

		pairs := e.cfg.PairList()
		if cycle%fullSweepEveryN != 0 {
			var filtered []string
			for _, p := range pairs {
				if _, ok := priorityPairs[p]; ok {
					filtered = append(filtered, p)
				}
			}
			pairs = filtered
		}

		cycleErr := e.sweepPairs(ctx, pairs)

		if cycle%triangleGraphEveryN == 0 {
			if err := e.rebuildGraphAndScanTriangles(ctx); err != nil {
				e.logger.Warn("triangular sweep failed", zap.Error(err))
			}
		}

		if cycleErr != nil {
			failures := e.consecutiveFailures.Add(1)
			e.logger.Error("scan cycle error", zap.Error(cycleErr), zap.Int64("consecutive", failures))
			if failures >= int64(e.cfg.MaxConsecutiveFailures) {
				e.logger.Error("KILL SWITCH: too many consecutive failures")
				e.Stop()
				return
			}
		} else {
			e.consecutiveFailures.Store(0)
		}

		target := time.Duration(e.cfg.PollIntervalMs) * time.Millisecond
		if cycle%fullSweepEveryN != 0 && target > 5*time.Second {
			target = 5 * time.Second
		}
		sleep := target - time.Since(cycleStart)
		if sleep <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

func (e *Engine) sweepPairs(ctx context.Context, pairs []string) error {
	var firstErr error
	for i, pair := range pairs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(1500 * time.Millisecond):
			}
		}

		borrow := e.borrowAmountFor(pair)

		if opp, err := e.crossVenue.ScanPair(ctx, pair, borrow); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if opp != nil {
			e.handleOpportunity(ctx, opp, pair)
		}

		if opp, err := e.aggregator.ScanPair(ctx, pair, borrow, e.cfg.MaxSlippageBps); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if opp != nil {
			e.handleOpportunity(ctx, opp, pair)
		}
	}
	return firstErr
}

// rebuildGraphAndScanTriangles rebuilds the price graph from a rotating
// 10-mint batch of DefaultGraphTokens and scans it for 3-leg cycles.
func (e *Engine) rebuildGraphAndScanTriangles(ctx context.Context) error {
	all := scanner.DefaultGraphTokens
	start := (e.focusRotation * focusMintBatchSize) % len(all)
	end := start + focusMintBatchSize
	var focus []string
	if end <= len(all) {
		focus = all[start:end]
	} else {
		focus = append(append([]string{}, all[start:]...), all[:end-len(all)]...)
	}
	e.focusRotation++

	keys := scanner.GraphPairKeys(focus)
	g, fetched, err := scanner.BuildGraph(ctx, e.reg, keys)
	if err != nil {
		return err
	}

	e.logger.Debug("triangular graph rebuilt",
		zap.Int("tokens", g.TokenCount()), zap.Int("edges", g.EdgeCount()), zap.Int("pool_states", fetched))

	borrow := cosmath.NewInt(e.cfg.BorrowAmount)
	quoteMint := tokens.ResolveMint("USDC")
	for _, opp := range e.triangular.ScanTriangles(g, quoteMint, borrow) {
		e.handleOpportunity(ctx, opp, strings.Join(opp.Path[:], "->"))
	}
	return nil
}

func (e *Engine) borrowAmountFor(pair string) cosmath.Int {
	target, _, ok := tokens.ParsePair(pair)
	amount := e.cfg.BorrowAmount
	if ok {
		if override, has := tokens.BorrowOverride(target); has {
			amount = override
		}
	}
	return cosmath.NewInt(amount)
}

// handleOpportunity records the find and either logs it (dry run) or
// dispatches it to the bounded execution pool.
func (e *Engine) handleOpportunity(ctx context.Context, opp pkg.Opportunity, label string) {
	e.metrics.recordOpportunity(string(opp.Kind()))

	if e.cfg.DryRun {
		e.logger.Info("DRY RUN: would execute",
			zap.String("pair", label), zap.String("kind", string(opp.Kind())), zap.Int64("net_margin_bps", opp.NetMarginBps()))
		return
	}

	select {
	case e.execSem <- struct{}{}:
	default:
		e.logger.Warn("execution pool saturated, dropping opportunity", zap.String("pair", label))
		return
	}

	go func() {
		defer func() { <-e.execSem }()
		if err := e.execute(ctx, opp); err != nil {
			e.metrics.executionFailures.Add(1)
			e.logger.Error("execution failed", zap.String("pair", label), zap.Error(err))
		} else {
			e.metrics.successfulArbs.Add(1)
		}
	}()
}

// reactiveLoop consumes streamer updates, detecting price moves worth
// re-scanning immediately rather than waiting for the next tick.
func (e *Engine) reactiveLoop(ctx context.Context) {
	lastPrice := map[string]float64{}
	lastScan := map[string]time.Time{}
	lastExec := map[string]time.Time{}

	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(5 * time.Second)
		case update, ok := <-e.streamer.Updates():
			if !ok {
				return
			}
			e.metrics.wsUpdates.Add(1)

			addr := update.Pool.Address.String()
			newPrice := float64(0)
			if update.State != nil {
				newPrice = update.State.Price
			}
			if newPrice <= 0 {
				continue
			}
			prev, seen := lastPrice[addr]
			lastPrice[addr] = newPrice
			if !seen || prev <= 0 {
				continue
			}

			moveBps := int64(((newPrice - prev) / prev) * 10000)
			if moveBps < 0 {
				moveBps = -moveBps
			}
			if moveBps < reactivePriceMoveBps {
				continue
			}

			pairKey := update.Pool.TokenA + "/" + update.Pool.TokenB
			if t, ok := lastScan[pairKey]; ok && time.Since(t) < reactivePairCooldown {
				continue
			}
			lastScan[pairKey] = time.Now()

			if t, ok := lastExec[pairKey]; ok && time.Since(t) < postExecCooldown {
				continue
			}

			e.reactiveRescan(ctx, update.Pool, lastExec)
		}
	}
}

func (e *Engine) reactiveRescan(ctx context.Context, pool registry.PoolInfo, lastExec map[string]time.Time) {
	pair := pool.TokenA + "/" + pool.TokenB
	borrow := e.borrowAmountFor(pair)

	opp, err := e.crossVenue.ScanPair(ctx, pair, borrow)
	if err != nil || opp == nil {
		return
	}

	agg, err := e.aggregator.ScanPair(ctx, pair, borrow, e.cfg.MaxSlippageBps)
	if err != nil || agg == nil || agg.NetMarginBps() < opp.NetMarginBps()/2 {
		return
	}

	lastExec[pair] = time.Now()
	e.handleOpportunity(ctx, opp, pair+"(reactive)")
}
