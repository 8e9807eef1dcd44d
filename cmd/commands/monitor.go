package commands

// Command to run the buy monitor: polling engine, alert dispatch and
// leaderboard maintenance. Implements graceful shutdown on SIGINT/SIGTERM.

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"spyton-bot/internal/clients_api/gecko"
	"spyton-bot/internal/config"
	"spyton-bot/internal/infra/log"
	"spyton-bot/internal/monitor"
	"spyton-bot/internal/storage"
	"spyton-bot/internal/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the buy monitor",
	Long:  `Poll GeckoTerminal for trades of every tracked token, alert qualifying buys and keep the leaderboards updated.`,
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.LogInfo("Starting SpyTON monitor",
		zap.String("gecko_base_url", cfg.Gecko.BaseURL),
		zap.Int("poll_seconds", cfg.Monitor.PollSeconds))

	store, err := storage.New(cfg.App.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.LogWarn("Failed to close registry", zap.Error(err))
		}
	}()

	messenger, err := telegram.NewClient(cfg.Telegram.BotToken, telegram.Links{
		TrendingURL:     cfg.Telegram.TrendingURL,
		ListingURL:      cfg.Telegram.ListingURL,
		BookTrendBotURL: cfg.Telegram.BookTrendBotURL,
		DTradeRefBase:   cfg.Telegram.DTradeRefBase,
	})
	if err != nil {
		return err
	}

	source := gecko.NewClient(gecko.ClientConfig{
		BaseURL:         cfg.Gecko.BaseURL,
		Network:         cfg.Gecko.Network,
		RequestTimeout:  time.Duration(cfg.Gecko.RequestTimeout) * time.Second,
		MaxRetries:      cfg.Gecko.MaxRetries,
		MaxResponseSize: cfg.Gecko.MaxResponseSize,
		RateLimit:       cfg.Gecko.RateLimit,
		RateBurst:       cfg.Gecko.RateBurst,
	})

	dispatcher := monitor.NewDispatcher(messenger, store)
	scheduler := monitor.NewScheduler(monitor.SchedulerConfig{
		PollInterval:   cfg.Monitor.PollInterval(),
		PerCallTimeout: time.Duration(cfg.Gecko.RequestTimeout) * time.Second,
		Window:         cfg.Monitor.Window(),
		Cooldown:       time.Duration(cfg.Monitor.CooldownSeconds) * time.Second,
		Backoff:        time.Duration(cfg.Monitor.BackoffSeconds) * time.Second,
		MaxConcurrent:  cfg.Monitor.MaxConcurrentPolls,
		TopN:           cfg.Monitor.LeaderboardTopN,
		SeenTTL:        time.Duration(cfg.Monitor.SeenTTLMinutes) * time.Minute,
		SeenMaxSize:    cfg.Monitor.SeenMaxSize,
	}, source, store, dispatcher)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	log.LogSuccess("Monitor is running", zap.String("status", "active"))

	<-ctx.Done()
	log.LogInfo("Shutdown signal received, gracefully stopping...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.LogSuccess("Monitor stopped gracefully")
	case <-time.After(10 * time.Second):
		log.LogWarn("Timeout waiting for monitor to stop")
	}

	return nil
}
