package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full monitor configuration, loaded from a YAML file with
// environment-variable overrides for secrets and endpoints. Invalid
// configuration is fatal at startup; nothing here changes at runtime except
// the wallet file contents, which are re-read on the reload schedule.
type Config struct {
	RPC      RPCConfig      `yaml:"rpc"`
	Wallets  WalletsConfig  `yaml:"wallets"`
	Poll     PollConfig     `yaml:"poll"`
	Resolver ResolverConfig `yaml:"resolver"`
	Classify ClassifyConfig `yaml:"classify"`
	Market   MarketConfig   `yaml:"market"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	API      APIConfig      `yaml:"api"`
}

// RPCConfig configures the Solana RPC collaborator.
type RPCConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	WSEndpoint        string  `yaml:"ws_endpoint"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// WalletsConfig configures the watched wallet list.
type WalletsConfig struct {
	File       string `yaml:"file"`
	ReloadCron string `yaml:"reload_cron"`
}

// PollConfig configures the balance polling cycle.
type PollConfig struct {
	MinIntervalSec     int    `yaml:"min_interval_sec"`
	MaxIntervalSec     int    `yaml:"max_interval_sec"`
	RelaxStepSec       int    `yaml:"relax_step_sec"`
	BatchSize          int    `yaml:"batch_size"`
	ChangeThresholdLam uint64 `yaml:"change_threshold_lamports"`
	Permits            int    `yaml:"permits"`
}

// ResolverConfig configures the signature resolution retrier.
type ResolverConfig struct {
	MaxAttempts       int `yaml:"max_attempts"`
	MaxRateLimitWaits int `yaml:"max_rate_limit_waits"`
	BaseDelayMs       int `yaml:"base_delay_ms"`
	MaxDelayMs        int `yaml:"max_delay_ms"`
	RateLimitDelayMs  int `yaml:"rate_limit_delay_ms"`
}

// ClassifyConfig holds the heuristic classification thresholds, all in SOL.
type ClassifyConfig struct {
	LargeSwapSol     float64 `yaml:"large_swap_sol"`
	WrapToleranceSol float64 `yaml:"wrap_tolerance_sol"`
	NoiseSol         float64 `yaml:"noise_sol"`
}

// MarketConfig configures the market-data and risk collaborators.
type MarketConfig struct {
	CacheTTLSec    int    `yaml:"cache_ttl_sec"`
	JupiterURL     string `yaml:"jupiter_url"`
	DexScreenerURL string `yaml:"dexscreener_url"`
	RugCheckURL    string `yaml:"rugcheck_url"`
}

// DispatchConfig configures the notification channel.
type DispatchConfig struct {
	TelegramToken   string   `yaml:"telegram_token"`
	TelegramChatIDs []string `yaml:"telegram_chat_ids"`
	MinTransferSol  float64  `yaml:"min_transfer_sol"`
	EventRingSize   int      `yaml:"event_ring_size"`
}

// AMQPConfig configures the optional RabbitMQ event mirror. Empty URL
// disables it.
type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// APIConfig configures the status API. Empty listen address disables it.
type APIConfig struct {
	Listen            string  `yaml:"listen"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Load reads the YAML config at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		RPC: RPCConfig{
			Endpoint:          "https://api.mainnet-beta.solana.com",
			TimeoutSec:        5,
			RequestsPerSecond: 8,
		},
		Wallets: WalletsConfig{
			File:       "wallets.json",
			ReloadCron: "0 */1 * * * *",
		},
		Poll: PollConfig{
			MinIntervalSec:     5,
			MaxIntervalSec:     120,
			RelaxStepSec:       5,
			BatchSize:          100,
			ChangeThresholdLam: 10_000,
			Permits:            3,
		},
		Resolver: ResolverConfig{
			MaxAttempts:       10,
			MaxRateLimitWaits: 6,
			BaseDelayMs:       2000,
			MaxDelayMs:        5000,
			RateLimitDelayMs:  10000,
		},
		Classify: ClassifyConfig{
			LargeSwapSol:     0.1,
			WrapToleranceSol: 0.005,
			NoiseSol:         0.00001,
		},
		Market: MarketConfig{
			CacheTTLSec:    60,
			JupiterURL:     "https://lite-api.jup.ag",
			DexScreenerURL: "https://api.dexscreener.com",
			RugCheckURL:    "https://api.rugcheck.xyz",
		},
		Dispatch: DispatchConfig{
			MinTransferSol: 0.001,
			EventRingSize:  200,
		},
		API: APIConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// applyEnv overrides file values with environment variables so secrets can
// stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		c.RPC.Endpoint = v
	}
	if v := os.Getenv("SOLANA_WS_URL"); v != "" {
		c.RPC.WSEndpoint = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Dispatch.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Dispatch.TelegramChatIDs = []string{v}
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.AMQP.URL = v
	}
	if v := os.Getenv("WALLETS_FILE"); v != "" {
		c.Wallets.File = v
	}
	if v := os.Getenv("RPC_REQUESTS_PER_SECOND"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps > 0 {
			c.RPC.RequestsPerSecond = rps
		}
	}
}

// Validate checks startup-fatal configuration problems.
func (c *Config) Validate() error {
	if c.RPC.Endpoint == "" {
		return fmt.Errorf("rpc.endpoint is required")
	}
	if c.Wallets.File == "" {
		return fmt.Errorf("wallets.file is required")
	}
	if c.Poll.BatchSize <= 0 || c.Poll.BatchSize > 100 {
		return fmt.Errorf("poll.batch_size must be in 1..100, got %d", c.Poll.BatchSize)
	}
	if c.Poll.Permits <= 0 {
		return fmt.Errorf("poll.permits must be positive, got %d", c.Poll.Permits)
	}
	if c.Poll.MinIntervalSec <= 0 || c.Poll.MaxIntervalSec < c.Poll.MinIntervalSec {
		return fmt.Errorf("poll interval bounds invalid: min=%d max=%d",
			c.Poll.MinIntervalSec, c.Poll.MaxIntervalSec)
	}
	if c.Resolver.MaxAttempts <= 0 {
		return fmt.Errorf("resolver.max_attempts must be positive, got %d", c.Resolver.MaxAttempts)
	}
	if c.AMQP.URL != "" && c.AMQP.Queue == "" {
		return fmt.Errorf("amqp.queue is required when amqp.url is set")
	}
	return nil
}

// RPCTimeout returns the outbound call timeout.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPC.TimeoutSec) * time.Second
}

// MinInterval returns the polling interval floor.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Poll.MinIntervalSec) * time.Second
}

// MaxInterval returns the polling interval ceiling.
func (c *Config) MaxInterval() time.Duration {
	return time.Duration(c.Poll.MaxIntervalSec) * time.Second
}

// RelaxStep returns how much the poll delay relaxes per calm cycle.
func (c *Config) RelaxStep() time.Duration {
	return time.Duration(c.Poll.RelaxStepSec) * time.Second
}

// CacheTTL returns the market/risk cache time-to-live.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Market.CacheTTLSec) * time.Second
}
