package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"habitbot/internal/config"
	"habitbot/internal/eventbus"
	"habitbot/internal/reminders"
	"habitbot/internal/scheduler"
	"habitbot/internal/storage"
	"habitbot/internal/transport/telegram"
	"habitbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	defer logSvc.Close()
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	storeCfg, err := mapStorageConfig(cfg)
	if err != nil {
		return err
	}
	store, err := storage.Open(storeCfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		return err
	}
	defer store.Close()

	chanCfg, err := mapTelegramConfig(cfg)
	if err != nil {
		return err
	}
	channel, err := telegram.New(chanCfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}

	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		return err
	}
	sched := scheduler.New(schedCfg, log.With(logx.String("comp", "scheduler")))

	bus := eventbus.New()
	worker := reminders.NewWorker(store, sched, store, channel, bus, log.With(logx.String("comp", "delivery")))
	reconciler := reminders.NewReconciler(store, sched, store, worker, bus, log.With(logx.String("comp", "reconcile")))

	sched.Start(ctx)
	stats := reconciler.Run(ctx)
	log.Info("startup reconciliation complete",
		logx.Int("scheduled", stats.Scheduled), logx.Int("orphans", stats.Orphans), logx.Int("failed", stats.Failed))

	// Under systemd Type=notify this flips the unit to active; elsewhere it is
	// a no-op returning false.
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		log.Debug("systemd notified ready")
	}

	go observeEvents(ctx, bus, log.With(logx.String("comp", "events")))
	go watchConfig(ctx, cfgm, logSvc, sched, log)

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
	return nil
}

// observeEvents drains the reminder lifecycle events for operational
// visibility. Dropping events here is fine; they are advisory only.
func observeEvents(ctx context.Context, bus eventbus.Bus, log logx.Logger) {
	events, unsub := bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			log.Debug("event", logx.String("type", e.Type), logx.Any("data", e.Data))
		}
	}
}

// watchConfig hot-reloads the knobs that are safe to change at runtime:
// logging sinks/level and the scheduler timezone.
func watchConfig(ctx context.Context, cfgm *config.Manager, logSvc *logx.Service, sched *scheduler.Service, log logx.Logger) {
	if err := cfgm.Watch(ctx); err != nil {
		log.Warn("config watch unavailable", logx.Err(err))
		return
	}
	sub := cfgm.Subscribe(1)
	defer cfgm.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			logSvc.Apply(mapLoggingConfig(cfg))
			schedCfg, err := mapSchedulerConfig(cfg)
			if err != nil {
				log.Warn("reloaded scheduler config invalid; keeping previous", logx.Err(err))
				continue
			}
			sched.Apply(schedCfg)
		}
	}
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	op, err := config.ParseDurationOrDefault("storage.op_timeout", cfg.Storage.OpTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	path := cfg.Storage.Path
	if path == "" {
		path = "./habitbot.db"
	}
	return storage.Config{Path: path, BusyTimeout: busy, OpTimeout: op}, nil
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	send, err := config.ParseDurationOrDefault("telegram.send_timeout", cfg.Telegram.SendTimeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:       cfg.Telegram.Token,
		SendTimeout: send,
		RatePerSec:  cfg.Telegram.RatePerSec,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	delivery, err := config.ParseDurationOrDefault("scheduler.delivery_timeout", cfg.Scheduler.DeliveryTimeout, 10*time.Second)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Timezone:        cfg.Scheduler.Timezone,
		Workers:         cfg.Scheduler.Workers,
		DeliveryTimeout: delivery,
	}, nil
}
