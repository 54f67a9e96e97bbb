package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MatusOllah/slogcolor"

	"github.com/dbertolani/noise-guard/pkg/config"
	"github.com/dbertolani/noise-guard/pkg/directory"
	"github.com/dbertolani/noise-guard/pkg/dispatch"
	"github.com/dbertolani/noise-guard/pkg/notify"
	"github.com/dbertolani/noise-guard/pkg/routes"
	"github.com/dbertolani/noise-guard/pkg/store"
	"github.com/dbertolani/noise-guard/pkg/watcher"
)

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := *slogcolor.DefaultOptions
	opts.Level = lvl
	slog.SetDefault(slog.New(slogcolor.NewHandler(os.Stderr, &opts)))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration failed", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	if cfg.TelegramBotToken == "" {
		slog.Warn("TELEGRAM_BOT_TOKEN not configured, messages will fail to send")
	}

	stores, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("opening database failed", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	dir := directory.NewClient(cfg.Directory.APIBase, cfg.Directory.Timeout)
	defer dir.Stop()
	sender := notify.NewTelegramSender(cfg.TelegramBotToken)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := dispatch.New(stores, sender, cfg.DispatchInterval)
	go dispatcher.Run(ctx)

	statusRouter := routes.NewStatusRouter(stores)
	if cfg.StatusListenAddr != "" {
		go func() {
			slog.Info("status API listening", "addr", cfg.StatusListenAddr)
			if err := statusRouter.Serve(cfg.StatusListenAddr); err != nil {
				slog.Error("status API failed", "error", err)
			}
		}()
		defer statusRouter.Shutdown(context.Background())
	}

	w := watcher.New(watcher.Options{
		BrokerHost:           cfg.Mqtt.Host,
		BrokerPort:           cfg.Mqtt.Port,
		Username:             cfg.Mqtt.Username,
		Password:             cfg.Mqtt.Password,
		Topic:                cfg.Mqtt.Topic,
		NoiseThreshold:       cfg.Noise.Threshold,
		NotificationInterval: cfg.Noise.NotificationInterval,
		MaxHopsAllowed:       cfg.Noise.MaxHopsAllowed,
	}, stores, dir, sender)

	if err := w.Run(ctx); err != nil {
		slog.Error("watcher failed", "error", err)
		os.Exit(1)
	}
}
