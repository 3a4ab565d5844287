// Command refbackd runs the Telegram bot daemon: the support-ticket
// relay, the chat registry and the cashback conversations.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/refback-io/refback/internal/bot"
	"github.com/refback-io/refback/internal/cashback"
	"github.com/refback-io/refback/internal/config"
	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/notify"
	"github.com/refback-io/refback/internal/relay"
	"github.com/refback-io/refback/internal/scheduler"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/internal/ticket"
	"github.com/refback-io/refback/pkg/protocol"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Bot.DataDir, 0o755); err != nil {
		logger.Error("failed to create data dir", "path", cfg.Bot.DataDir, "error", err)
		os.Exit(1)
	}
	st, err := store.Open(filepath.Join(cfg.Bot.DataDir, "refback.db"))
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// The owner chat is granted full admin rights on every start so a
	// fresh database is immediately operable.
	if cfg.Bot.OwnerChatID != 0 {
		if _, err := st.EnsureChat(cfg.Bot.OwnerChatID); err != nil {
			logger.Error("failed to bootstrap owner chat", "error", err)
			os.Exit(1)
		}
		if err := st.SetAdminLevel(cfg.Bot.OwnerChatID, protocol.LevelOwner); err != nil {
			logger.Error("failed to bootstrap owner chat", "error", err)
			os.Exit(1)
		}
	}

	gw, err := gateway.NewTelegram(cfg.Bot.Token, logger)
	if err != nil {
		logger.Error("failed to init telegram gateway", "error", err)
		os.Exit(1)
	}
	logger.Info("refbackd starting", "bot", gw.Username(), "internal_id", cfg.Bot.InternalID)

	notifier := notify.New(gw, st, cfg.Bot.SupportContact, logger)
	tickets := ticket.New(st, notifier, logger)
	dispatcher := relay.NewDispatcher(st, gw, notifier, logger)
	relaySched := relay.NewScheduler(dispatcher.Dispatch, logger)
	defer relaySched.Stop()
	capturer := relay.NewCapturer(st, relaySched,
		time.Duration(cfg.Bot.CoalesceDelayMS)*time.Millisecond, logger)
	calc := cashback.NewClient(cfg.Calc.ServiceURL)

	b := bot.New(bot.Config{
		Gateway:    gw,
		Store:      st,
		Ledger:     st,
		Tickets:    tickets,
		Capturer:   capturer,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		Calc:       calc,
		InternalID: cfg.Bot.InternalID,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Bot.PayoffSweepSchedule != "" {
		jobs := scheduler.New(logger)
		err := jobs.AddJob("payoff-sweep", cfg.Bot.PayoffSweepSchedule, func(ctx context.Context) {
			n, failed, err := notifier.BroadcastPayoffs(ctx)
			if err != nil {
				logger.Error("payoff sweep", "error", err)
				return
			}
			logger.Info("payoff sweep done", "notified", n, "failed", len(failed))
		})
		if err != nil {
			logger.Error("failed to schedule payoff sweep", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := jobs.Start(ctx); err != nil {
				logger.Error("job scheduler stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- gw.Start(ctx, b.HandleUpdate) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Error("gateway stopped", "error", err)
			os.Exit(1)
		}
	}
}
