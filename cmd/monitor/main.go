package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/api"
	"github.com/rank11/sol-wallet-monitor/internal/classifier"
	"github.com/rank11/sol-wallet-monitor/internal/detector"
	"github.com/rank11/sol-wallet-monitor/internal/dispatch"
	"github.com/rank11/sol-wallet-monitor/internal/market"
	"github.com/rank11/sol-wallet-monitor/internal/middleware"
	"github.com/rank11/sol-wallet-monitor/internal/monitor"
	"github.com/rank11/sol-wallet-monitor/internal/resolver"
	"github.com/rank11/sol-wallet-monitor/internal/watchlist"
	"github.com/rank11/sol-wallet-monitor/pkg/config"
	"github.com/rank11/sol-wallet-monitor/pkg/solanarpc"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	wallets, err := watchlist.NewRegistry(cfg.Wallets.File)
	if err != nil {
		log.Fatalf("Failed to load wallet list: %v", err)
	}
	log.WithField("wallets", len(wallets.Snapshot())).Info("Wallet list loaded")

	ledger := solanarpc.NewClient(cfg.RPC.Endpoint, cfg.RPC.RequestsPerSecond, cfg.RPCTimeout())

	// Market-data and risk collaborators share one HTTP timeout with the RPC.
	jupiter := market.NewJupiterClient(cfg.Market.JupiterURL, cfg.RPCTimeout())
	dex := market.NewDexScreenerClient(cfg.Market.DexScreenerURL, cfg.RPCTimeout())
	rugcheck := market.NewRugCheckClient(cfg.Market.RugCheckURL, cfg.RPCTimeout())
	marketResolver := market.NewResolver(jupiter, dex, rugcheck, cfg.CacheTTL())

	cls := classifier.New(marketResolver, classifier.Thresholds{
		LargeSwapSol:     cfg.Classify.LargeSwapSol,
		WrapToleranceSol: cfg.Classify.WrapToleranceSol,
		NoiseSol:         cfg.Classify.NoiseSol,
	})

	var notifier dispatch.Notifier
	if cfg.Dispatch.TelegramToken != "" {
		tg, err := dispatch.NewTelegramNotifier(cfg.Dispatch.TelegramToken, cfg.Dispatch.TelegramChatIDs)
		if err != nil {
			log.Fatalf("Failed to create Telegram notifier: %v", err)
		}
		notifier = tg
	} else {
		log.Warn("No Telegram token configured, running without notifications")
	}

	var mirror dispatch.Mirror
	if cfg.AMQP.URL != "" {
		publisher, err := config.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Fatalf("Failed to connect event mirror: %v", err)
		}
		defer publisher.Close()
		mirror = publisher
		log.WithField("queue", cfg.AMQP.Queue).Info("Event mirror connected")
	}

	ring := dispatch.NewEventRing(cfg.Dispatch.EventRingSize)
	dispatcher := dispatch.New(notifier, mirror, cfg.Dispatch.MinTransferSol, ring)

	det := detector.New(ledger, cfg.Poll.BatchSize, cfg.Poll.ChangeThresholdLam)
	retrier := resolver.New(ledger,
		cfg.Resolver.MaxAttempts,
		cfg.Resolver.MaxRateLimitWaits,
		time.Duration(cfg.Resolver.BaseDelayMs)*time.Millisecond,
		time.Duration(cfg.Resolver.MaxDelayMs)*time.Millisecond,
		time.Duration(cfg.Resolver.RateLimitDelayMs)*time.Millisecond,
	)
	pipeline := monitor.NewPipeline(retrier, ledger, cls, dispatcher)

	backoff := monitor.NewBackoff(cfg.MinInterval(), cfg.MaxInterval(), cfg.RelaxStep())
	runner := monitor.NewRunner(wallets, det, pipeline, backoff, cfg.Poll.Permits)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Housekeeping: wallet file reload, cache sweep, pruning of removed
	// wallets from the balance cache.
	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(cfg.Wallets.ReloadCron, func() {
		if err := wallets.Reload(); err != nil {
			log.Errorf("Wallet list reload failed: %v", err)
			return
		}
		det.Forget(wallets.Snapshot())
		marketResolver.Sweep()
	})
	if err != nil {
		log.Fatalf("Failed to schedule wallet reload: %v", err)
	}
	_, err = scheduler.AddFunc("0 0 0 * * *", func() {
		stats := runner.Stats()
		log.WithFields(log.Fields{
			"cycles":        stats.Cycles,
			"changes":       stats.Changes,
			"handle_errors": stats.HandleErrors,
			"rate_limits":   stats.RateLimits,
			"wallets":       stats.Wallets,
		}).Info("Daily monitor summary")
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily summary: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.RPC.WSEndpoint != "" {
		nudger := solanarpc.NewNudger(cfg.RPC.WSEndpoint, wallets.Addresses, func(address string) {
			runner.Nudge()
		})
		nudger.Start()
		defer nudger.Stop()
	}

	if cfg.API.Listen != "" {
		server := api.NewServer(wallets, det, ring, runner, middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.API.RequestsPerSecond,
			Burst:             cfg.API.Burst,
		})
		go func() {
			if err := server.Run(cfg.API.Listen); err != nil {
				log.Errorf("Status API stopped: %v", err)
			}
		}()
	}

	log.WithFields(log.Fields{
		"rpc":          cfg.RPC.Endpoint,
		"min_interval": cfg.MinInterval(),
		"max_interval": cfg.MaxInterval(),
	}).Info("Wallet monitor started")

	runner.Run(ctx)

	log.Info("Wallet monitor stopped")
}
