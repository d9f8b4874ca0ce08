package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	cosmath "cosmossdk.io/math"

	"github.com/solarb/arbengine/pkg"
	"github.com/solarb/arbengine/pkg/txbuilder"
)

// execute runs the Executing state for one cleared opportunity: resolve
// legs, build, simulate, submit, and confirm.
func (e *Engine) execute(ctx context.Context, opp pkg.Opportunity) error {
	legs, legOutputs, finalOut, err := e.buildLegs(ctx, opp)
	if err != nil {
		return fmt.Errorf("resolve legs: %w", err)
	}

	if ok, flashFee := staleQuoteGuard(finalOut, opp.BorrowPrincipal(), e.flashFeeBps); !ok {
		return fmt.Errorf("stale-quote guard: final leg out %d <= principal %d + flash fee %d (venues: %s, per-leg outputs: %s)",
			finalOut.Int64(), opp.BorrowPrincipal().Int64(), flashFee, legVenueList(legs), legOutputList(legOutputs))
	}

	borrowerTokenAccount, err := e.ensureATA(ctx, opp.BorrowAsset())
	if err != nil {
		return fmt.Errorf("resolve borrower token account: %w", err)
	}

	fee := e.feeStrategy.Compute(
		opp.NetMarginBps()*opp.BorrowPrincipal().Int64()/10000,
		opp.BorrowPrincipal().Int64()*e.flashFeeBps/10000,
		200_000_000, // USDC-per-SOL reference scale; refined once a live price feed lands
	)

	// Jito submission tips via a second bundled transaction
	// (sol.Client.SendTxWithJito), so the in-transaction tip slot stays
	// empty on that path; a plain RPC submission has no tip recipient.
	plan := txbuilder.Plan{
		Borrower:             e.wallet,
		BorrowerTokenAccount: borrowerTokenAccount,
		FlashLoan:            e.flashLoan,
		BorrowPrincipal:      opp.BorrowPrincipal().Uint64(),
		Legs:                 legs,
		ComputeUnitLimit:     e.cfg.ComputeUnitLimit,
		ComputeUnitPrice:     fee.ComputeUnitPrice,
	}

	tx, lastValidHeight, err := e.txBuilder.Build(ctx, plan)
	if err != nil {
		return fmt.Errorf("build transaction: %w", err)
	}

	if _, _, err := e.txBuilder.Simulate(ctx, tx); err != nil {
		e.metrics.simulationFailures.Add(1)
		return fmt.Errorf("simulate: %w", err)
	}

	var sig solana.Signature
	if e.cfg.UseJito {
		bundleID, err := e.solClient.SendTxWithJito(ctx, e.cfg.JitoTipLamports, []solana.PrivateKey{e.wallet}, tx)
		if err != nil {
			return fmt.Errorf("send via jito: %w", err)
		}
		e.logger.Info("jito bundle submitted", zap.String("bundle_id", bundleID))
		return nil
	}
	sig, err = e.solClient.SendTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	e.logger.Info("transaction submitted", zap.String("signature", sig.String()))
	return e.confirmSignature(ctx, sig, lastValidHeight)
}

func (e *Engine) confirmSignature(ctx context.Context, sig solana.Signature, lastValidHeight uint64) error {
	for attempt := 0; attempt < confirmPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmPollInterval):
		}

		statuses, err := e.solClient.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction failed on-chain: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		height, err := e.solClient.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err == nil && height > lastValidHeight {
			return fmt.Errorf("blockhash expired before confirmation (height %d > last valid %d)", height, lastValidHeight)
		}
	}
	return fmt.Errorf("confirmation timed out after %d attempts", confirmPollAttempts)
}

// ensureATA returns the caller's associated token account for mint,
// creating it on first use and caching the result.
func (e *Engine) ensureATA(ctx context.Context, mint string) (solana.PublicKey, error) {
	e.ataMu.Lock()
	defer e.ataMu.Unlock()

	if ata, ok := e.atas[mint]; ok {
		return ata, nil
	}

	mintPK, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse mint %s: %w", mint, err)
	}

	ata, err := e.solClient.SelectOrCreateSPLTokenAccount(ctx, e.wallet, mintPK)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("select or create token account for %s: %w", mint, err)
	}
	e.atas[mint] = ata
	return ata, nil
}

// buildLegs resolves every leg of opp into a txbuilder.Leg, preferring a
// direct on-chain builder and falling back to a freshly fetched Jupiter
// instruction bundle when the pool has none. It also returns each leg's
// actual output amount and the last leg's output on its own, so the
// caller can re-check the opportunity is still profitable against these
// freshly fetched quotes (the stale-quote guard).
func (e *Engine) buildLegs(ctx context.Context, opp pkg.Opportunity) ([]txbuilder.Leg, []cosmath.Int, cosmath.Int, error) {
	switch v := opp.(type) {
	case *pkg.CrossVenueOpportunity:
		leg1, out1, err := e.buildLegForPool(ctx, v.BuyPoolID, v.Borrow, v.Target, v.Principal)
		if err != nil {
			return nil, nil, cosmath.Int{}, fmt.Errorf("leg1 (%s): %w", v.BuyPoolID, err)
		}
		leg2, out2, err := e.buildLegForPool(ctx, v.SellPoolID, v.Target, v.Borrow, out1)
		if err != nil {
			return nil, nil, cosmath.Int{}, fmt.Errorf("leg2 (%s): %w", v.SellPoolID, err)
		}
		return []txbuilder.Leg{leg1, leg2}, []cosmath.Int{out1, out2}, out2, nil

	case *pkg.TriangularOpportunity:
		amount := v.Principal
		legs := make([]txbuilder.Leg, 0, len(v.Edges))
		outputs := make([]cosmath.Int, 0, len(v.Edges))
		for _, edge := range v.Edges {
			leg, out, err := e.buildLegForPool(ctx, edge.PoolID, edge.From, edge.To, amount)
			if err != nil {
				return nil, nil, cosmath.Int{}, fmt.Errorf("leg %s->%s (%s): %w", edge.From, edge.To, edge.PoolID, err)
			}
			legs = append(legs, leg)
			outputs = append(outputs, out)
			amount = out
		}
		return legs, outputs, amount, nil

	case *pkg.AggregatorOpportunity:
		leg1, out1, err := e.buildJupiterLegWithOut(ctx, v.Borrow, v.Target, v.Principal, e.cfg.MaxSlippageBps)
		if err != nil {
			return nil, nil, cosmath.Int{}, fmt.Errorf("aggregator leg1: %w", err)
		}
		leg2, out2, err := e.buildJupiterLegWithOut(ctx, v.Target, v.Borrow, out1, e.cfg.MaxSlippageBps)
		if err != nil {
			return nil, nil, cosmath.Int{}, fmt.Errorf("aggregator leg2: %w", err)
		}
		return []txbuilder.Leg{leg1, leg2}, []cosmath.Int{out1, out2}, out2, nil

	default:
		return nil, nil, cosmath.Int{}, fmt.Errorf("unsupported opportunity kind %T", opp)
	}
}

// staleQuoteGuard rejects an opportunity whose freshly rebuilt legs no
// longer clear the flash-loan repayment: the final leg's output must
// exceed the borrowed principal plus the flash-loan fee on it.
func staleQuoteGuard(finalOut, principal cosmath.Int, flashFeeBps int64) (ok bool, flashFee int64) {
	flashFee = principal.Int64() * flashFeeBps / 10000
	threshold := principal.Int64() + flashFee
	return finalOut.Int64() > threshold, flashFee
}

// legVenueList renders a per-leg venue diagnostic (pool address or
// "jupiter" for an aggregator-routed leg) for the stale-quote guard's
// abort message.
func legVenueList(legs []txbuilder.Leg) string {
	venues := make([]string, len(legs))
	for i, leg := range legs {
		if leg.Pool != nil {
			venues[i] = leg.Pool.GetID()
		} else {
			venues[i] = "jupiter"
		}
	}
	return strings.Join(venues, "->")
}

// legOutputList renders each leg's output amount for the stale-quote
// guard's abort message.
func legOutputList(outputs []cosmath.Int) string {
	parts := make([]string, len(outputs))
	for i, o := range outputs {
		parts[i] = fmt.Sprintf("%d", o.Int64())
	}
	return strings.Join(parts, "->")
}

// buildLegForPool builds a direct on-chain leg when poolID's Dex has a
// registered protocol, falling back to Jupiter when it doesn't.
func (e *Engine) buildLegForPool(ctx context.Context, poolID, inputMint, outputMint string, amountIn cosmath.Int) (txbuilder.Leg, cosmath.Int, error) {
	info, ok := e.reg.PoolByAddress(poolID)
	if !ok {
		leg, quote, err := e.buildJupiterLegWithOut(ctx, inputMint, outputMint, amountIn, e.cfg.MaxSlippageBps)
		return leg, quote, err
	}

	proto, ok := e.protocols[info.Dex]
	if !ok {
		leg, quote, err := e.buildJupiterLegWithOut(ctx, inputMint, outputMint, amountIn, e.cfg.MaxSlippageBps)
		return leg, quote, err
	}

	pool, err := proto.FetchPoolByID(ctx, poolID)
	if err != nil {
		return txbuilder.Leg{}, cosmath.Int{}, fmt.Errorf("fetch pool %s: %w", poolID, err)
	}

	amountOut, err := pool.Quote(ctx, e.solClient, inputMint, amountIn)
	if err != nil {
		return txbuilder.Leg{}, cosmath.Int{}, fmt.Errorf("quote pool %s: %w", poolID, err)
	}
	minOut := amountOut.MulRaw(int64(10000 - e.cfg.MaxSlippageBps)).QuoRaw(10000)

	base, quote := pool.GetTokens()
	baseATA, err := e.ensureATA(ctx, base)
	if err != nil {
		return txbuilder.Leg{}, cosmath.Int{}, err
	}
	quoteATA, err := e.ensureATA(ctx, quote)
	if err != nil {
		return txbuilder.Leg{}, cosmath.Int{}, err
	}

	return txbuilder.Leg{
		Pool:             pool,
		InputMint:        inputMint,
		AmountIn:         amountIn,
		MinOut:           minOut,
		UserBaseAccount:  baseATA,
		UserQuoteAccount: quoteATA,
	}, amountOut, nil
}

func (e *Engine) buildJupiterLegWithOut(ctx context.Context, inputMint, outputMint string, amountIn cosmath.Int, slippageBps int) (txbuilder.Leg, cosmath.Int, error) {
	quote, err := e.quotes.GetQuote(ctx, inputMint, outputMint, amountIn.Uint64(), slippageBps)
	if err != nil {
		return txbuilder.Leg{}, cosmath.Int{}, fmt.Errorf("quote: %w", err)
	}
	if quote.Raw == nil {
		return txbuilder.Leg{}, cosmath.Int{}, fmt.Errorf("no direct on-chain builder for %s->%s and quote came back without a jupiter route", inputMint, outputMint)
	}

	swapRaw, err := e.quotes.GetJupiterSwapInstructions(ctx, quote.Raw, e.wallet.PublicKey().String())
	if err != nil {
		return txbuilder.Leg{}, cosmath.Int{}, fmt.Errorf("fetch jupiter swap instructions: %w", err)
	}

	return txbuilder.Leg{
		InputMint:           inputMint,
		AmountIn:            amountIn,
		JupiterInstructions: swapRaw,
	}, cosmath.NewIntFromUint64(quote.OutAmount), nil
}
