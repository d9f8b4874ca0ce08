// Package config loads the Engine's runtime configuration from the
// environment as a flat struct populated by kelseyhightower/envconfig's
// tag-driven struct population.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config is the Engine's full configuration surface, populated from
// environment variables prefixed ARB_.
type Config struct {
	RPCURL   string `envconfig:"RPC_URL" required:"true"`
	WSURL    string `envconfig:"WS_URL"`
	WalletPath string `envconfig:"WALLET_PATH" default:"~/.config/solana/id.json"`

	FlashLoanProgramID  string `envconfig:"FLASH_LOAN_PROGRAM_ID" default:"2chVPk6DV21qWuyUA2eHAzATdFSHM7ykv1fVX7Gv6nor"`
	FlashLoanTokenMint  string `envconfig:"FLASH_LOAN_TOKEN_MINT" default:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`
	BorrowAmount        int64  `envconfig:"BORROW_AMOUNT" default:"200000000"`

	Pairs string `envconfig:"PAIRS" default:"SOL/USDC"`

	MinProfitBps           int  `envconfig:"MIN_PROFIT_BPS" default:"5"`
	MaxSlippageBps         int  `envconfig:"MAX_SLIPPAGE_BPS" default:"50"`
	PollIntervalMs         int  `envconfig:"POLL_INTERVAL_MS" default:"15000"`
	DryRun                 bool `envconfig:"DRY_RUN" default:"true"`
	PriorityFeeMicroLamports int64 `envconfig:"PRIORITY_FEE" default:"25000"`
	ComputeUnitLimit       uint32 `envconfig:"COMPUTE_UNIT_LIMIT" default:"400000"`
	MaxConsecutiveFailures int  `envconfig:"MAX_CONSECUTIVE_FAILURES" default:"10"`

	UseJito         bool   `envconfig:"USE_JITO" default:"false"`
	JitoRegion      string `envconfig:"JITO_REGION" default:"default"`
	JitoTipLamports uint64 `envconfig:"JITO_TIP_LAMPORTS" default:"10000"`

	JupiterAPIKey string `envconfig:"JUPITER_API_KEY"`
	UseRaydium    bool   `envconfig:"USE_RAYDIUM" default:"true"`

	MinSpreadBps       int `envconfig:"MIN_SPREAD_BPS" default:"15"`
	MinTriangleBps     int `envconfig:"MIN_TRIANGLE_BPS" default:"15"`
	FlashLoanFeeBps    int `envconfig:"FLASH_LOAN_FEE_BPS" default:"9"`
}

// Load reads Config from the process environment, prefixed "ARB".
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("arb", &c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &c, nil
}

// PairList splits the comma-separated Pairs field into trimmed, non-empty
// "TARGET/QUOTE" entries.
func (c *Config) PairList() []string {
	parts := strings.Split(c.Pairs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
