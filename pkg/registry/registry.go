// Package registry maps token pairs to known AMM pool addresses across
// venues, discovered via Jupiter's aggregator routes and the Raydium/Orca
// pool-list APIs, then resolves their live on-chain state.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solarb/arbengine/pkg/pool/meteora"
	"github.com/solarb/arbengine/pkg/pool/pump"
	"github.com/solarb/arbengine/pkg/pool/raydium"
	"github.com/solarb/arbengine/pkg/pooldecode"
	"github.com/solarb/arbengine/pkg/sol"
)

// PoolInfo is a registered pool and the metadata needed to decode and
// label it.
type PoolInfo struct {
	Address   solana.PublicKey
	ProgramID solana.PublicKey
	Dex       string
	TokenA    string
	TokenB    string
	Label     string
}

// pairPools holds every pool known for one unordered token pair.
type pairPools struct {
	tokenA, tokenB string
	pools          []PoolInfo
}

func (p *pairPools) dexCount() int {
	seen := map[string]struct{}{}
	for _, pl := range p.pools {
		seen[pl.Dex] = struct{}{}
	}
	return len(seen)
}

// Registry discovers and tracks AMM pools across venues for arbitrage
// pairs, and resolves their current on-chain state on demand.
type Registry struct {
	solClient     *sol.Client
	httpClient    *http.Client
	jupiterAPIKey string

	pairs map[string]*pairPools
	pools map[string]PoolInfo // address.String() -> info
}

// New constructs an empty Registry.
func New(solClient *sol.Client, jupiterAPIKey string) *Registry {
	return &Registry{
		solClient:     solClient,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		jupiterAPIKey: jupiterAPIKey,
		pairs:         map[string]*pairPools{},
		pools:         map[string]PoolInfo{},
	}
}

func pairKey(mintA, mintB string) string {
	if mintA > mintB {
		mintA, mintB = mintB, mintA
	}
	return mintA + ":" + mintB
}

// Register adds one pool, deduplicating by address.
func (r *Registry) Register(pool PoolInfo) {
	key := pairKey(pool.TokenA, pool.TokenB)
	pp, ok := r.pairs[key]
	if !ok {
		pp = &pairPools{tokenA: pool.TokenA, tokenB: pool.TokenB}
		r.pairs[key] = pp
	}

	addrKey := pool.Address.String()
	if _, exists := r.pools[addrKey]; exists {
		return
	}
	pp.pools = append(pp.pools, pool)
	r.pools[addrKey] = pool
}

// TotalPools returns the number of distinct registered pool addresses.
func (r *Registry) TotalPools() int { return len(r.pools) }

// TotalPairs returns the number of distinct registered token pairs.
func (r *Registry) TotalPairs() int { return len(r.pairs) }

// PoolByAddress looks up a registered pool by its base58 address, for
// callers (such as the Engine's execution path) that only have a pool ID
// from an Opportunity and need its Dex/ProgramID to pick a builder.
func (r *Registry) PoolByAddress(address string) (PoolInfo, bool) {
	p, ok := r.pools[address]
	return p, ok
}

// AllPools returns every registered pool, sorted by address.
func (r *Registry) AllPools() []PoolInfo {
	out := make([]PoolInfo, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.String() < out[j].Address.String() })
	return out
}

// PairPools returns every pool registered for a token pair.
func (r *Registry) PairPools(mintA, mintB string) []PoolInfo {
	pp, ok := r.pairs[pairKey(mintA, mintB)]
	if !ok {
		return nil
	}
	out := make([]PoolInfo, len(pp.pools))
	copy(out, pp.pools)
	return out
}

// jupiterQuoteResponse is the subset of Jupiter's /quote response needed
// to extract the pools a route traversed.
type jupiterQuoteResponse struct {
	RoutePlan []struct {
		SwapInfo struct {
			AmmKey     string `json:"ammKey"`
			Label      string `json:"label"`
			InputMint  string `json:"inputMint"`
			OutputMint string `json:"outputMint"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
}

// DiscoverViaAggregator queries Jupiter's quote endpoint in both
// directions and registers every pool its route plan names. Jupiter
// picks different pools for different trade sizes, so callers scanning
// for the broadest pool coverage should also probe a spread of amounts.
func (r *Registry) DiscoverViaAggregator(ctx context.Context, mintA, mintB, label string, amountAtoB, amountBtoA uint64) ([]PoolInfo, error) {
	var discovered []PoolInfo

	if fwd, err := r.jupiterRoute(ctx, mintA, mintB, amountAtoB, label); err == nil {
		discovered = append(discovered, fwd...)
	}
	if rev, err := r.jupiterRoute(ctx, mintB, mintA, amountBtoA, label); err == nil {
		discovered = append(discovered, rev...)
	}

	for _, p := range discovered {
		r.Register(p)
	}
	return discovered, nil
}

func (r *Registry) jupiterRoute(ctx context.Context, inputMint, outputMint string, amount uint64, label string) ([]PoolInfo, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", fmt.Sprintf("%d", amount))
	q.Set("slippageBps", "100")
	q.Set("maxAccounts", "64")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.jup.ag/swap/v1/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if r.jupiterAPIKey != "" {
		req.Header.Set("x-api-key", r.jupiterAPIKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter quote http %d", resp.StatusCode)
	}

	var parsed jupiterQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	var pools []PoolInfo
	for _, step := range parsed.RoutePlan {
		if step.SwapInfo.AmmKey == "" {
			continue
		}
		programID, dex := labelToProgram(step.SwapInfo.Label)
		if programID.IsZero() {
			continue
		}
		addr, err := solana.PublicKeyFromBase58(step.SwapInfo.AmmKey)
		if err != nil {
			continue
		}
		ta, tb := step.SwapInfo.InputMint, step.SwapInfo.OutputMint
		if ta == "" {
			ta = inputMint
		}
		if tb == "" {
			tb = outputMint
		}
		pools = append(pools, PoolInfo{
			Address:   addr,
			ProgramID: programID,
			Dex:       dex,
			TokenA:    ta,
			TokenB:    tb,
			Label:     strings.TrimSpace(step.SwapInfo.Label + " " + label),
		})
	}
	return pools, nil
}

// labelToProgram maps a Jupiter AMM label to one of the four decodable
// program families. Venues we cannot decode (Phoenix, Lifinity, Manifest,
// and similar) are skipped.
func labelToProgram(label string) (solana.PublicKey, string) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "raydium") && strings.Contains(l, "clmm"):
		return raydium.RAYDIUM_CLMM_PROGRAM_ID, "raydium_clmm"
	case strings.Contains(l, "raydium") && strings.Contains(l, "cp"):
		return raydium.RAYDIUM_CPMM_PROGRAM_ID, "raydium_cpmm"
	case strings.Contains(l, "raydium") && (strings.Contains(l, "amm") || strings.Contains(l, "v4")):
		return raydium.RAYDIUM_AMM_PROGRAM_ID, "raydium_v4"
	case strings.Contains(l, "raydium"):
		return raydium.RAYDIUM_CLMM_PROGRAM_ID, "raydium_clmm"
	case strings.Contains(l, "whirlpool") || strings.Contains(l, "orca"):
		return pooldecode.WhirlpoolProgramID, "orca"
	case strings.Contains(l, "meteora"):
		return meteora.MeteoraProgramID, "meteora"
	case strings.Contains(l, "pump"):
		return pump.PumpSwapProgramID, "pumpswap"
	default:
		return solana.PublicKey{}, ""
	}
}

// raydiumPoolListResponse is the subset of Raydium's pools/info/mint
// response needed to extract pool addresses and mints.
type raydiumPoolListResponse struct {
	Data struct {
		Data []struct {
			ID    string `json:"id"`
			MintA struct {
				Address string `json:"address"`
			} `json:"mintA"`
			MintB struct {
				Address string `json:"address"`
			} `json:"mintB"`
		} `json:"data"`
	} `json:"data"`
}

// DiscoverViaDexAPI queries Raydium's pool-list API directly for both its
// concentrated and standard pool types, plus Orca's whirlpool-list
// endpoint for family-C pools, which is more reliable than reading
// Jupiter's route plan for finding every pool on a pair.
func (r *Registry) DiscoverViaDexAPI(ctx context.Context, mintA, mintB, label string) ([]PoolInfo, error) {
	var discovered []PoolInfo

	for _, spec := range []struct {
		poolType  string
		programID solana.PublicKey
		dex       string
		label     string
	}{
		{"concentrated", raydium.RAYDIUM_CLMM_PROGRAM_ID, "raydium_clmm", "Raydium CLMM"},
		{"standard", raydium.RAYDIUM_AMM_PROGRAM_ID, "raydium_v4", "Raydium v4"},
	} {
		pools, err := r.raydiumPoolList(ctx, mintA, mintB, spec.poolType, spec.programID, spec.dex, spec.label+" "+label)
		if err != nil {
			continue
		}
		discovered = append(discovered, pools...)
	}

	if pools, err := r.whirlpoolList(ctx, mintA, mintB, label); err == nil {
		discovered = append(discovered, pools...)
	}

	for _, p := range discovered {
		r.Register(p)
	}
	return discovered, nil
}

func (r *Registry) raydiumPoolList(ctx context.Context, mintA, mintB, poolType string, programID solana.PublicKey, dex, label string) ([]PoolInfo, error) {
	q := url.Values{}
	q.Set("mint1", mintA)
	q.Set("mint2", mintB)
	q.Set("poolType", poolType)
	q.Set("poolSortField", "liquidity")
	q.Set("sortType", "desc")
	q.Set("pageSize", "10")
	q.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api-v3.raydium.io/pools/info/mint?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("raydium pool list http %d", resp.StatusCode)
	}

	var parsed raydiumPoolListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	var pools []PoolInfo
	for _, pool := range parsed.Data.Data {
		if pool.ID == "" {
			continue
		}
		addr, err := solana.PublicKeyFromBase58(pool.ID)
		if err != nil {
			continue
		}
		ta, tb := pool.MintA.Address, pool.MintB.Address
		if ta == "" {
			ta = mintA
		}
		if tb == "" {
			tb = mintB
		}
		pools = append(pools, PoolInfo{
			Address:   addr,
			ProgramID: programID,
			Dex:       dex,
			TokenA:    ta,
			TokenB:    tb,
			Label:     label,
		})
	}
	return pools, nil
}

// whirlpoolListResponse is the subset of Orca's whirlpool-list response
// needed to extract pool addresses and mints.
type whirlpoolListResponse struct {
	Whirlpools []struct {
		Address string `json:"address"`
		TokenA  struct {
			Mint string `json:"mint"`
		} `json:"tokenA"`
		TokenB struct {
			Mint string `json:"mint"`
		} `json:"tokenB"`
	} `json:"whirlpools"`
}

// whirlpoolList queries Orca's published whirlpool-list endpoint and
// filters it down to pools trading the requested pair. There is no
// per-pair query parameter, so the full list is fetched and filtered
// client-side; failures are returned for the caller to swallow.
func (r *Registry) whirlpoolList(ctx context.Context, mintA, mintB, label string) ([]PoolInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.orca.so/v1/whirlpool/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whirlpool list http %d", resp.StatusCode)
	}

	var parsed whirlpoolListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	wantKey := pairKey(mintA, mintB)
	var pools []PoolInfo
	for _, w := range parsed.Whirlpools {
		if w.Address == "" || w.TokenA.Mint == "" || w.TokenB.Mint == "" {
			continue
		}
		if pairKey(w.TokenA.Mint, w.TokenB.Mint) != wantKey {
			continue
		}
		addr, err := solana.PublicKeyFromBase58(w.Address)
		if err != nil {
			continue
		}
		pools = append(pools, PoolInfo{
			Address:   addr,
			ProgramID: pooldecode.WhirlpoolProgramID,
			Dex:       "orca",
			TokenA:    w.TokenA.Mint,
			TokenB:    w.TokenB.Mint,
			Label:     "Orca Whirlpool " + label,
		})
	}
	return pools, nil
}

// FetchStates resolves the current on-chain PoolState for every pool
// registered under a pair, decoding each through pooldecode. Family B
// (standard constant-product) pools carry Price=0 straight from
// pooldecode.Decode; their vault balances are not read here or elsewhere.
func (r *Registry) FetchStates(ctx context.Context, mintA, mintB string) ([]*pooldecode.PoolState, error) {
	pp, ok := r.pairs[pairKey(mintA, mintB)]
	if !ok {
		return nil, nil
	}

	addresses := make([]solana.PublicKey, len(pp.pools))
	for i, info := range pp.pools {
		addresses[i] = info.Address
	}

	result, err := r.solClient.GetMultipleAccountsWithOpts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("batch fetch pool accounts: %w", err)
	}

	var states []*pooldecode.PoolState
	for i, acct := range result.Value {
		if acct == nil {
			continue
		}
		info := pp.pools[i]
		state, err := pooldecode.Decode(acct.Data.GetBinary(), info.Address, info.ProgramID)
		if err != nil || state == nil {
			continue
		}
		states = append(states, state)
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].PoolAddress.String() < states[j].PoolAddress.String()
	})
	return states, nil
}
