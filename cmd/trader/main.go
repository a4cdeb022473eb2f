package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ContractTrader/internal/client"
	"ContractTrader/internal/config"
	"ContractTrader/internal/contract"
	"ContractTrader/internal/logger"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/notifier"
	"ContractTrader/internal/recorder"
	"ContractTrader/internal/scheduler"
	"ContractTrader/internal/server"
	"ContractTrader/internal/trader"
)

func main() {
	_ = godotenv.Load()

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	cfgPath := flag.String("config", defaultPath, "path to a YAML or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}

	closer, err := logger.Init(logger.Config{Level: cfg.App.LogLevel, OutputFile: cfg.App.LogFile})
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	defer closer.Close()
	logrus.WithField("config", *cfgPath).Info("ContractTrader starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Error("ContractTrader stopped with error")
		closer.Close()
		os.Exit(1)
	}
	logrus.Info("ContractTrader stopped")
}

// run wires the trader and serves until ctx is done or a background task
// fails, whichever comes first.
func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RegisterContracts(); err != nil {
		return err
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logrus.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	memory := metrics.NewMemorySink(5000)
	sink := metrics.Multi(rec, memory)

	// Init accounts
	opts := client.Options{
		BaseURL:    cfg.Gateway.BaseURL,
		APIKey:     cfg.Gateway.APIKey,
		Timeout:    time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
		RetryCount: cfg.Gateway.RetryCount,
		ProxyURL:   cfg.Proxy,
	}
	accounts := make([]trader.Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		var c client.Client
		if cfg.Gateway.DryRun {
			c = dryRunClient(a.Name)
		} else {
			c = client.NewRESTClient(opts, a.Name, a.Token)
		}
		c = client.Track(c, metrics.NewEmitter(sink, metrics.Dimensions{metrics.DimAccount: a.Name}))
		accounts = append(accounts, trader.Account{Name: a.Name, Client: c, Listing: cfg.ListingFor(a.Name)})
	}
	logrus.WithFields(logrus.Fields{"accounts": len(accounts), "dry_run": cfg.Gateway.DryRun}).Info("accounts configured")

	tr := trader.New(accounts, cfg.Policy(), sink, cfg.Engine.Workers)

	g, gctx := errgroup.WithContext(ctx)

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var alerts scheduler.Notifier
	if cfg.NotificationsEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerts = tn
	}

	sched := scheduler.NewScheduler(gctx, tr, alerts, rec, cfg.CycleTimeout())
	if err := sched.Register(cfg.Schedule.CycleCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		g.Go(func() error {
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
		logrus.Info("Telegram polling started")
	}
	if cfg.Server.Addr != "" {
		srv := server.New(cfg.Server.Addr, sched, memory, rec)
		g.Go(func() error {
			if err := srv.ListenAndServe(gctx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}
	if cfg.Schedule.RunOnStart {
		logrus.Info("run_on_start enabled, executing trade cycle now")
		g.Go(func() error {
			if _, err := sched.RunNow(); err != nil {
				logrus.WithError(err).Warn("initial cycle skipped")
			}
			return nil
		})
	}

	logrus.Info("ContractTrader is running. Press Ctrl+C to stop.")
	<-gctx.Done()
	if ctx.Err() != nil {
		logrus.Info("shutdown signal received, stopping...")
	}
	return g.Wait()
}

// dryRunClient seeds an in-memory account with a small contract stock so a
// dry run exercises listing and bidding without a gateway.
func dryRunClient(name string) *client.MockClient {
	m := client.NewMockClient(name)
	m.Info = model.AccountInfo{Credits: 1000, ListingCapacity: 30, TradeEnabled: true}
	m.Storage = model.ItemCounts{
		contract.GoldPlayerResourceID: 5,
		contract.GoldCoachResourceID:  5,
	}
	return m
}
