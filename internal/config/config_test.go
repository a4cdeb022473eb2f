package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContractTrader/internal/contract"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0 * * * * *", cfg.Schedule.CycleCron)
	assert.Equal(t, 50*time.Second, cfg.CycleTimeout())
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 1, cfg.Engine.Workers)

	p := cfg.Policy()
	assert.Equal(t, 10, p.Relist.MinExpired)
	assert.Equal(t, 20, p.Relist.MaxExpired)
	assert.Equal(t, 3, p.OrphanThreshold)
	assert.Equal(t, time.Second, p.BidCooldown)
	assert.Len(t, p.Tiers, 2)
	assert.True(t, p.StaggerPages)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
gateway:
  base_url: http://gw.local
accounts:
  - name: alice
    token: ${ALICE_TOKEN}
  - name: bob
    listing:
      starting_bid: 200
      buy_now_price: 250
engine:
  relist:
    min_expired: 5
    max_expired: 15
  bid_cooldown_ms: 250
  tiers:
    - name: B100
      price: 100
      bid_ceiling: 60
      max_current_bid: 100
`)
	t.Setenv("ALICE_TOKEN", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "secret", cfg.Accounts[0].Token)
	p := cfg.Policy()
	assert.Equal(t, 5, p.Relist.MinExpired)
	assert.Equal(t, 250*time.Millisecond, p.BidCooldown)
	require.Len(t, p.Tiers, 1)
	assert.Equal(t, "B100", p.Tiers[0].Name)
	assert.Equal(t, 3, p.OrphanThreshold, "unset thresholds keep defaults")
	assert.Equal(t, 63, p.Quality.MinDiscardValue)

	assert.Nil(t, cfg.ListingFor("alice"))
	bob := cfg.ListingFor("bob")
	require.NotNil(t, bob)
	assert.EqualValues(t, 200, bob.StartingBid)
	assert.EqualValues(t, 250, bob.BuyNowPrice)
	assert.Equal(t, 1, bob.Count)
	assert.Equal(t, 3600, bob.Duration)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[gateway]
dry_run = true

[[accounts]]
name = "alice"

[engine]
workers = 4
pages = 2
stagger_pages = false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Gateway.DryRun)
	assert.Equal(t, 4, cfg.Engine.Workers)
	p := cfg.Policy()
	assert.Equal(t, 2, p.Pages)
	assert.False(t, p.StaggerPages)
	assert.Equal(t, 50, p.PageSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
gateway:
  base_url: http://file
schedule:
  cycle_cron: "0 */5 * * * *"
engine:
  workers: 2
accounts:
  - name: a
`)
	t.Setenv("GATEWAY_BASE_URL", "http://env")
	t.Setenv("CYCLE_CRON", "*/30 * * * * *")
	t.Setenv("TRADER_WORKERS", "3")
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.Gateway.BaseURL)
	assert.Equal(t, "*/30 * * * * *", cfg.Schedule.CycleCron)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeFile(t, "config.yaml", "accounts: [\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		cfg.Gateway.BaseURL = "http://gw"
		cfg.Accounts = []Account{{Name: "a"}}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no accounts", func(c *Config) { c.Accounts = nil }, false},
		{"duplicate account", func(c *Config) { c.Accounts = append(c.Accounts, Account{Name: "a"}) }, false},
		{"no gateway", func(c *Config) { c.Gateway.BaseURL = "" }, false},
		{"dry run without gateway", func(c *Config) { c.Gateway.BaseURL = ""; c.Gateway.DryRun = true }, true},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, false},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }, false},
		{"inverted band", func(c *Config) { c.Engine.Relist.MinExpired = 30 }, false},
		{"zero relist floor", func(c *Config) { c.Engine.Relist.MinExpired = 0 }, false},
		{"player variant", func(c *Config) { c.Engine.Contracts.PlayerResourceIDs = []int64{5001098} }, true},
		{"id in both lists", func(c *Config) {
			c.Engine.Contracts.PlayerResourceIDs = []int64{5001097}
			c.Engine.Contracts.CoachResourceIDs = []int64{5001097}
		}, false},
		{"coach id as player", func(c *Config) { c.Engine.Contracts.PlayerResourceIDs = []int64{5001013} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad_ContractVariants(t *testing.T) {
	path := writeFile(t, "config.yaml", `
accounts:
  - name: a
gateway:
  dry_run: true
engine:
  contracts:
    player_resource_ids: [5001096]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int64{5001096}, cfg.Engine.Contracts.PlayerResourceIDs)

	require.NoError(t, cfg.RegisterContracts())
	assert.Equal(t, contract.GoldPlayer, contract.ClassifyResource(5001096))
}
