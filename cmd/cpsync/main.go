package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cpsync/internal/anomaly"
	"cpsync/internal/api"
	"cpsync/internal/chargepoint"
	"cpsync/internal/config"
	"cpsync/internal/ledger"
	"cpsync/internal/logging"
	"cpsync/internal/merge"
	"cpsync/internal/normalize"
	"cpsync/internal/publish"
	"cpsync/internal/status"
	"cpsync/internal/upload"
	"cpsync/internal/worker"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "cpsync:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	norm, err := normalize.New(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	store, err := ledger.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer store.Close()

	transport := chargepoint.NewSOAPClient(cfg.API.Endpoint, cfg.API.Key, cfg.API.Secret, cfg.API.Timeout)
	fetcher := chargepoint.NewFetcher(transport)

	pub := publish.New(cfg.Publish, logger.With("component", "publish"))
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionLog := logger.With("worker", "sessions")
	alarmLog := logger.With("worker", "alarms")
	stationLog := logger.With("worker", "stations")

	sessions := merge.NewSessionEngine(fetcher, norm, store, sessionLog)
	alarms := merge.NewAlarmEngine(fetcher, norm, store, alarmLog)
	stations := merge.NewStationEngine(fetcher, norm, store, stationLog)
	scanner := anomaly.NewScanner(store, sessionLog)

	statusStore := status.NewStore(100)
	api.Start(ctx, cfg, statusStore, logger.With("component", "api"), version)

	sup := worker.NewSupervisor()
	sup.Add(&worker.Loop{
		Name:     "sessions",
		Interval: cfg.Sessions.Interval(),
		Cycle:    worker.SessionCycle(sessions, scanner, pub, sessionLog),
		Logger:   sessionLog,
		Retry:    cfg.Retry,
		Status:   statusStore,
	})
	sup.Add(&worker.Loop{
		Name:     "alarms",
		Interval: cfg.Alarms.Interval(),
		Cycle:    worker.AlarmCycle(alarms, pub, alarmLog),
		Logger:   alarmLog,
		Retry:    cfg.Retry,
		Status:   statusStore,
	})
	sup.Add(&worker.Loop{
		Name:     "stations",
		Interval: cfg.Stations.Interval(),
		Cycle:    worker.StationCycle(stations),
		Logger:   stationLog,
		Retry:    cfg.Retry,
		Status:   statusStore,
	})

	if cfg.Upload.Enabled {
		putter, err := upload.NewS3Putter(ctx, cfg.Upload.Region)
		if err != nil {
			return fmt.Errorf("s3 client: %w", err)
		}
		uploadLog := logger.With("worker", "upload")
		uploader := upload.New(putter, cfg.Upload.Bucket, cfg.Upload.Prefix, []string{
			cfg.Sessions.DataPath,
			cfg.Stations.DataPath,
			cfg.Alarms.DataPath,
			cfg.Anomalies.DataPath,
		}, uploadLog)
		sup.Add(&worker.Loop{
			Name:     "upload",
			Interval: cfg.Upload.Interval(),
			Cycle:    uploader.UploadAll,
			Logger:   uploadLog,
			Retry:    cfg.Retry,
			Status:   statusStore,
		})
	}

	logger.Info("cpsync starting",
		"storage", cfg.Storage.Driver,
		"publish", cfg.Publish.Enabled,
		"upload", cfg.Upload.Enabled)
	sup.Run(ctx)
	logger.Info("all workers stopped")
	return nil
}
