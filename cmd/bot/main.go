package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"hwbot/internal/config"
	"hwbot/internal/digest"
	"hwbot/internal/homework"
	"hwbot/internal/notify"
	"hwbot/internal/poller"
	"hwbot/internal/storage"
	"hwbot/internal/transport"
	"hwbot/internal/transport/telegram"
	"hwbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./hwbot.yaml", "path to optional yaml config")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := logx.NewConsole("info")

	// Missing secrets are the only fatal startup condition the spec allows;
	// everything after this point keeps running and reports errors to chat.
	secrets, err := config.LoadSecrets()
	if err != nil {
		boot.Error("required configuration missing", logx.Err(err))
		os.Exit(1)
	}

	mgr := config.NewManager(cfgPath, boot)
	fileCfg, err := mgr.Load()
	if err != nil {
		boot.Error("config file invalid", logx.Err(err), logx.String("path", cfgPath))
		os.Exit(1)
	}

	adapter, err := telegram.New(telegram.Config{Token: secrets.TelegramToken}, boot)
	if err != nil {
		boot.Error("telegram bot init failed", logx.Err(err))
		os.Exit(1)
	}

	target := transport.ChatTarget{
		ChatID:   secrets.TelegramChatID,
		ThreadID: fileCfg.Notify.ThreadID,
	}

	logSvc, log := logx.New(toLogxConfig(fileCfg.Logging), adapter, target)
	defer logSvc.Close()

	store := openStore(fileCfg.Storage, log)
	if store != nil {
		defer store.Close()
	}

	notifier := notify.New(notify.Config{
		Target:     target,
		RatePerSec: fileCfg.Notify.RatePerSec,
	}, adapter, store, log)

	client := homework.NewClient(fileCfg.Endpoint, secrets.HomeworkToken, log)

	interval := secrets.PollInterval
	if d, err := config.ParseDurationField("poll_interval", fileCfg.PollInterval); err != nil {
		log.Warn("bad poll_interval in config file; using environment value", logx.Err(err))
	} else if d > 0 {
		interval = d
	}

	p := poller.New(poller.Config{
		Interval:  interval,
		StartFrom: fileCfg.DebugEpoch,
		Heartbeat: watchdogHeartbeat(interval, log),
	}, client, notifier, log)

	dig := digest.New(digest.Config{
		Schedule: fileCfg.Digest.Schedule,
		Timezone: fileCfg.Digest.Timezone,
	}, notifier, p.Stats, log)
	if err := dig.Start(ctx); err != nil {
		log.Error("digest disabled", logx.Err(err))
	}
	defer dig.Stop()

	mgr.OnChange(func(cfg *config.File) {
		logSvc.Apply(toLogxConfig(cfg.Logging))
		if d, err := config.ParseDurationField("poll_interval", cfg.PollInterval); err != nil {
			log.Warn("bad poll_interval on reload; keeping current", logx.Err(err))
		} else if d > 0 {
			p.SetInterval(d)
		}
	})
	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	err = p.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	_ = adapter.Stop(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Info("bot stopped", logx.Err(err))
	}
}

func toLogxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    c.Telegram.Enabled,
			MinLevel:   c.Telegram.MinLevel,
			RatePerSec: c.Telegram.RatePerSec,
		},
	}
}

// openStore opens the optional audit store. The audit log is observability
// only, so failures degrade to "disabled" instead of aborting startup.
func openStore(c config.StorageConfig, log logx.Logger) storage.Store {
	busy, err := config.ParseDurationField("storage.busy_timeout", c.BusyTimeout)
	if err != nil {
		log.Warn("bad storage.busy_timeout; using default", logx.Err(err))
		busy = 0
	}
	st, err := storage.Open(storage.Config{
		Driver:      c.Driver,
		Path:        c.Path,
		BusyTimeout: busy,
	}, log)
	if err != nil {
		log.Error("audit storage unavailable; continuing without it", logx.Err(err))
		return nil
	}
	return st
}

// watchdogHeartbeat wires the poll cadence to the systemd watchdog when one
// is configured (WatchdogSec in the unit). Returns nil otherwise.
func watchdogHeartbeat(interval time.Duration, log logx.Logger) func() {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d == 0 {
		return nil
	}
	if interval >= d {
		log.Warn("poll interval exceeds watchdog window; systemd may restart the bot",
			logx.Duration("interval", interval), logx.Duration("window", d))
	}
	log.Info("systemd watchdog enabled", logx.Duration("window", d))
	return func() {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	}
}
