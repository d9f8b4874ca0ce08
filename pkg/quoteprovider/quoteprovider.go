// Package quoteprovider fetches off-chain swap quotes from Raydium's
// transaction API (primary, unauthenticated) and Jupiter's aggregator API
// (fallback, token-bucket limited), for comparison against on-chain pool
// prices. Execution still prefers direct on-chain instruction building;
// these quotes are a price cross-check and a source of Jupiter swap
// instructions when a route has no simple on-chain leg.
package quoteprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	raydiumAPI  = "https://transaction-v1.raydium.io"
	jupiterAPI  = "https://api.jup.ag/swap/v1"

	raydiumCooldown    = 60 * time.Second
	raydiumMinInterval = 1200 * time.Millisecond
)

// Quote is a venue-agnostic swap quote.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64
	OutAmount      uint64
	PriceImpactPct float64
	SlippageBps    int
	RouteCount     int
	Source         string // "raydium" or "jupiter"
	Raw            json.RawMessage // jupiter quote body, for GetJupiterSwapInstructions
}

// Provider fetches quotes from Raydium first, falling back to Jupiter on
// error or once Raydium is rate-limited. Raydium needs no API key;
// Jupiter is held to a 0.9 token/sec, burst-3 bucket matching its Basic
// tier's roughly 1 RPS allowance.
type Provider struct {
	httpClient     *http.Client
	jupiterAPIKey  string
	useRaydium     bool

	mu                 sync.Mutex
	raydiumCooldownUntil time.Time
	raydiumLastRequest   time.Time

	jupLimiter *rate.Limiter
}

// New constructs a Provider. jupiterAPIKey may be empty for Jupiter's
// free tier.
func New(jupiterAPIKey string, useRaydium bool) *Provider {
	return &Provider{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		jupiterAPIKey: jupiterAPIKey,
		useRaydium:    useRaydium,
		jupLimiter:    rate.NewLimiter(rate.Limit(0.9), 3),
	}
}

// GetQuote tries Raydium first (unless cooling down from a prior 403/429),
// falling back to Jupiter on any Raydium error.
func (p *Provider) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	if p.useRaydium && !p.raydiumCoolingDown() {
		q, err := p.raydiumQuote(ctx, inputMint, outputMint, amount, slippageBps)
		if err == nil {
			return q, nil
		}
		if isRateLimitError(err) {
			p.mu.Lock()
			p.raydiumCooldownUntil = time.Now().Add(raydiumCooldown)
			p.mu.Unlock()
		}
	}
	return p.jupiterQuote(ctx, inputMint, outputMint, amount, slippageBps)
}

func (p *Provider) raydiumCoolingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Now().Before(p.raydiumCooldownUntil)
}

func (p *Provider) raydiumQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	p.mu.Lock()
	elapsed := time.Since(p.raydiumLastRequest)
	if elapsed < raydiumMinInterval {
		wait := raydiumMinInterval - elapsed
		p.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		p.mu.Lock()
	}
	p.raydiumLastRequest = time.Now()
	p.mu.Unlock()

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))
	q.Set("txVersion", "V0")

	reqURL := raydiumAPI + "/compute/swap-base-in?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, body: string(body)}
	}

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			InputMint        string `json:"inputMint"`
			OutputMint       string `json:"outputMint"`
			InputAmount      string `json:"inputAmount"`
			OutputAmount     string `json:"outputAmount"`
			PriceImpactPct   float64 `json:"priceImpactPct"`
			RoutePlan        []json.RawMessage `json:"routePlan"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode raydium quote: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("raydium quote rejected: %s", string(body))
	}

	inAmt, _ := strconv.ParseUint(parsed.Data.InputAmount, 10, 64)
	outAmt, _ := strconv.ParseUint(parsed.Data.OutputAmount, 10, 64)

	return &Quote{
		InputMint:      coalesce(parsed.Data.InputMint, inputMint),
		OutputMint:     coalesce(parsed.Data.OutputMint, outputMint),
		InAmount:       inAmt,
		OutAmount:      outAmt,
		PriceImpactPct: parsed.Data.PriceImpactPct,
		SlippageBps:    slippageBps,
		RouteCount:     len(parsed.Data.RoutePlan),
		Source:         "raydium",
	}, nil
}

func (p *Provider) jupiterQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	if err := p.jupLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))
	q.Set("maxAccounts", "40")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jupiterAPI+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if p.jupiterAPIKey != "" {
		req.Header.Set("x-api-key", p.jupiterAPIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, body: string(body)}
	}

	var parsed struct {
		InputMint      string            `json:"inputMint"`
		OutputMint     string            `json:"outputMint"`
		InAmount       string            `json:"inAmount"`
		OutAmount      string            `json:"outAmount"`
		PriceImpactPct string            `json:"priceImpactPct"`
		RoutePlan      []json.RawMessage `json:"routePlan"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode jupiter quote: %w", err)
	}
	if parsed.OutAmount == "" {
		return nil, fmt.Errorf("jupiter quote empty: %s", string(body))
	}

	inAmt, _ := strconv.ParseUint(parsed.InAmount, 10, 64)
	outAmt, _ := strconv.ParseUint(parsed.OutAmount, 10, 64)
	impact, _ := strconv.ParseFloat(parsed.PriceImpactPct, 64)

	return &Quote{
		InputMint:      parsed.InputMint,
		OutputMint:     parsed.OutputMint,
		InAmount:       inAmt,
		OutAmount:      outAmt,
		PriceImpactPct: impact,
		SlippageBps:    slippageBps,
		RouteCount:     len(parsed.RoutePlan),
		Source:         "jupiter",
		Raw:            json.RawMessage(body),
	}, nil
}

// GetJupiterSwapInstructions fetches the raw swap-instructions payload for
// a previously obtained Jupiter quote, for use when a route has no
// straightforward direct on-chain leg.
func (p *Provider) GetJupiterSwapInstructions(ctx context.Context, quoteResponse json.RawMessage, userPubkey string) (json.RawMessage, error) {
	if err := p.jupLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"quoteResponse":             json.RawMessage(quoteResponse),
		"userPublicKey":             userPubkey,
		"wrapAndUnwrapSol":          true,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": 0,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jupiterAPI+"/swap-instructions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.jupiterAPIKey != "" {
		req.Header.Set("x-api-key", p.jupiterAPIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, body: string(respBody)}
	}

	var parsed struct {
		SwapInstruction json.RawMessage `json:"swapInstruction"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode jupiter swap-instructions: %w", err)
	}
	if len(parsed.SwapInstruction) == 0 {
		return nil, fmt.Errorf("jupiter swap-instructions empty: %s", string(respBody))
	}
	return respBody, nil
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, truncate(e.body, 200))
}

func isRateLimitError(err error) bool {
	var statusErr *httpStatusError
	if e, ok := err.(*httpStatusError); ok {
		statusErr = e
	}
	if statusErr == nil {
		return false
	}
	return statusErr.status == http.StatusTooManyRequests || statusErr.status == http.StatusForbidden
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func coalesce(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
