package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContractTrader/internal/config"
)

func dryRunConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Gateway.DryRun = true
	cfg.Accounts = []config.Account{{Name: "demo"}}
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "trader.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_ReturnsWhenServerCannotListen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := dryRunConfig(t)
	cfg.Server.Addr = ln.Addr().String()

	done := make(chan error, 1)
	go func() { done <- run(context.Background(), cfg) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("run kept going after the http server failed")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := dryRunConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestDryRunClient_Seeded(t *testing.T) {
	m := dryRunClient("demo")
	info, err := m.FetchAccountInfo(context.Background())
	require.NoError(t, err)
	assert.True(t, info.TradeEnabled)
	assert.EqualValues(t, 1000, info.Credits)
	assert.Equal(t, "demo", m.Name())
}
