package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ContractTrader/internal/contract"
	"ContractTrader/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		LogLevel string `yaml:"log_level" toml:"log_level"`
		LogFile  string `yaml:"log_file" toml:"log_file"`
	} `yaml:"app" toml:"app"`
	Schedule struct {
		CycleCron      string `yaml:"cycle_cron" toml:"cycle_cron"`
		TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
		RunOnStart     bool   `yaml:"run_on_start" toml:"run_on_start"`
	} `yaml:"schedule" toml:"schedule"`
	Gateway struct {
		BaseURL        string `yaml:"base_url" toml:"base_url"`
		APIKey         string `yaml:"api_key" toml:"api_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
		RetryCount     int    `yaml:"retry_count" toml:"retry_count"`
		// DryRun swaps the gateway for in-memory accounts.
		DryRun bool `yaml:"dry_run" toml:"dry_run"`
	} `yaml:"gateway" toml:"gateway"`
	Accounts []Account `yaml:"accounts" toml:"accounts"`
	Engine   Engine    `yaml:"engine" toml:"engine"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	Server struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"server" toml:"server"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

// Account is one trading account. Token may reference environment
// variables as ${NAME}.
type Account struct {
	Name    string                  `yaml:"name" toml:"name"`
	Token   string                  `yaml:"token" toml:"token"`
	Listing *strategy.ListingPolicy `yaml:"listing" toml:"listing"`
}

// Engine holds the trade cycle thresholds.
type Engine struct {
	Workers         int                    `yaml:"workers" toml:"workers"`
	Relist          strategy.RelistPolicy  `yaml:"relist" toml:"relist"`
	OrphanThreshold int                    `yaml:"orphan_threshold" toml:"orphan_threshold"`
	Quality         strategy.QualityGate   `yaml:"quality" toml:"quality"`
	Listing         strategy.ListingPolicy `yaml:"listing" toml:"listing"`
	Tiers           []strategy.Tier        `yaml:"tiers" toml:"tiers"`
	Pages           int                    `yaml:"pages" toml:"pages"`
	PageSize        int                    `yaml:"page_size" toml:"page_size"`
	StaggerPages    bool                   `yaml:"stagger_pages" toml:"stagger_pages"`
	BidCooldownMs   int                    `yaml:"bid_cooldown_ms" toml:"bid_cooldown_ms"`
	ContractPrice   int64                  `yaml:"contract_price" toml:"contract_price"`
	Contracts       Contracts              `yaml:"contracts" toml:"contracts"`
}

// Contracts lists extra resource ids to trade, such as contract variants,
// on top of the built-in ones.
type Contracts struct {
	PlayerResourceIDs []int64 `yaml:"player_resource_ids" toml:"player_resource_ids"`
	CoachResourceIDs  []int64 `yaml:"coach_resource_ids" toml:"coach_resource_ids"`
}

// defaults returns a Config whose engine section carries the default policy,
// so a file only needs to name the thresholds it changes.
func defaults() *Config {
	p := strategy.DefaultPolicy()
	cfg := &Config{}
	cfg.Engine = Engine{
		Workers:         1,
		Relist:          p.Relist,
		OrphanThreshold: p.OrphanThreshold,
		Quality:         p.Quality,
		Listing:         p.Listing,
		Pages:           p.Pages,
		PageSize:        p.PageSize,
		StaggerPages:    p.StaggerPages,
		BidCooldownMs:   int(p.BidCooldown / time.Millisecond),
		ContractPrice:   p.ContractPrice,
	}
	cfg.Gateway.RetryCount = 2
	return cfg
}

// Load reads config from a YAML or TOML file (by extension), then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		default:
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CYCLE_CRON"); v != "" {
		cfg.Schedule.CycleCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("TRADER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	for i := range cfg.Accounts {
		cfg.Accounts[i].Token = os.ExpandEnv(cfg.Accounts[i].Token)
	}

	// Defaults
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "0 * * * * *"
	}
	if cfg.Schedule.TimeoutSeconds == 0 {
		cfg.Schedule.TimeoutSeconds = 50
	}
	if cfg.Gateway.TimeoutSeconds == 0 {
		cfg.Gateway.TimeoutSeconds = 30
	}
	if len(cfg.Engine.Tiers) == 0 {
		cfg.Engine.Tiers = append([]strategy.Tier(nil), strategy.DefaultTiers...)
	}
	if cfg.Engine.Listing.Duration == 0 {
		cfg.Engine.Listing.Duration = 3600
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/contract_trader.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts: name is required")
		}
		if seen[a.Name] {
			return fmt.Errorf("accounts: duplicate name %q", a.Name)
		}
		seen[a.Name] = true
	}
	if !c.Gateway.DryRun && c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1")
	}
	if c.Schedule.TimeoutSeconds < 0 {
		return fmt.Errorf("schedule.timeout_seconds must not be negative")
	}
	for _, id := range c.Engine.Contracts.PlayerResourceIDs {
		if slices.Contains(c.Engine.Contracts.CoachResourceIDs, id) || contract.ClassifyResource(id) == contract.GoldCoach {
			return fmt.Errorf("engine.contracts: resource id %d cannot be both player and coach", id)
		}
	}
	for _, id := range c.Engine.Contracts.CoachResourceIDs {
		if contract.ClassifyResource(id) == contract.GoldPlayer {
			return fmt.Errorf("engine.contracts: resource id %d cannot be both player and coach", id)
		}
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Policy returns the trade cycle policy the engine section describes.
func (c *Config) Policy() strategy.Policy {
	e := c.Engine
	return strategy.Policy{
		Relist:          e.Relist,
		OrphanThreshold: e.OrphanThreshold,
		Quality:         e.Quality,
		Tiers:           e.Tiers,
		Listing:         e.Listing,
		Pages:           e.Pages,
		PageSize:        e.PageSize,
		StaggerPages:    e.StaggerPages,
		BidCooldown:     time.Duration(e.BidCooldownMs) * time.Millisecond,
		ContractPrice:   e.ContractPrice,
	}
}

// ListingFor returns the listing policy of the named account, or nil when it
// uses the engine's. Zero fields in an override fall back to the engine's.
func (c *Config) ListingFor(name string) *strategy.ListingPolicy {
	for _, a := range c.Accounts {
		if a.Name != name || a.Listing == nil {
			continue
		}
		lp := *a.Listing
		base := c.Engine.Listing
		if lp.Count == 0 {
			lp.Count = base.Count
		}
		if lp.StartingBid == 0 {
			lp.StartingBid = base.StartingBid
		}
		if lp.BuyNowPrice == 0 {
			lp.BuyNowPrice = base.BuyNowPrice
		}
		if lp.Duration == 0 {
			lp.Duration = base.Duration
		}
		return &lp
	}
	return nil
}

// RegisterContracts makes the configured resource ids classify as contracts.
func (c *Config) RegisterContracts() error {
	if err := contract.RegisterResourceIDs(contract.GoldPlayer, c.Engine.Contracts.PlayerResourceIDs...); err != nil {
		return err
	}
	return contract.RegisterResourceIDs(contract.GoldCoach, c.Engine.Contracts.CoachResourceIDs...)
}

// CycleTimeout bounds one trade cycle.
func (c *Config) CycleTimeout() time.Duration {
	return time.Duration(c.Schedule.TimeoutSeconds) * time.Second
}

// NotificationsEnabled reports whether Telegram is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
