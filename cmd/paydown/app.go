package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/auth"
	"github.com/kmsantiago/paydown/internal/cache"
	"github.com/kmsantiago/paydown/internal/config"
	"github.com/kmsantiago/paydown/internal/logging"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
	"github.com/kmsantiago/paydown/internal/syncsvc"
)

var errUsage = errors.New("bad usage")

// probeTimeout bounds the startup connectivity check so offline commands
// stay fast.
const probeTimeout = 3 * time.Second

type app struct {
	cfg         config.Config
	log         *zap.Logger
	db          *sql.DB
	appConfig   *storage.AppConfigRepo
	syncState   *storage.SyncStateRepo
	remote      *remote.Client
	coordinator *syncsvc.Coordinator
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Env)

	db, err := storage.Open(context.Background(), cfg.DBPath)
	if err != nil {
		return nil, err
	}

	token, err := auth.LoadToken()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	client := remote.NewWithBaseURL(token, cfg.RemoteBaseURL)

	var store cache.Store
	if cfg.CacheRedisAddr != "" {
		store = cache.NewRedis(cfg.CacheRedisAddr)
	} else {
		store = cache.NewMemory()
	}

	syncStateRepo := storage.NewSyncStateRepo(db)
	coordinator := syncsvc.New(
		syncsvc.Config{
			InitialDebt:       cfg.InitialDebt,
			InitialMinPayment: cfg.InitialMinPayment,
			MonthlyRate:       cfg.MonthlyRate,
		},
		storage.NewDebtStateRepo(db),
		storage.NewPaymentsRepo(db),
		storage.NewMilestonesRepo(db),
		storage.NewQueueRepo(db),
		syncStateRepo,
		client,
		cache.New(store, cfg.CacheTTL),
		log,
	)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		appConfig:   storage.NewAppConfigRepo(db),
		syncState:   syncStateRepo,
		remote:      client,
		coordinator: coordinator,
	}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}

// probeConnectivity makes one bounded ping and records the result. One-shot
// commands call this instead of running the watcher.
func (a *app) probeConnectivity(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	a.coordinator.SetOnline(ctx, a.remote.Ping(probeCtx) == nil)
}

func (a *app) Run(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "status":
		a.probeConnectivity(ctx)
		return a.runStatus(ctx)
	case "pay":
		a.probeConnectivity(ctx)
		return a.runPay(ctx, args)
	case "adjust":
		a.probeConnectivity(ctx)
		return a.runAdjust(ctx, args)
	case "minpay":
		a.probeConnectivity(ctx)
		return a.runMinPay(ctx, args)
	case "simulate":
		return a.runSimulate(ctx, args)
	case "history":
		a.probeConnectivity(ctx)
		return a.runHistory(ctx)
	case "sync":
		return a.runSync(ctx)
	case "reset":
		a.probeConnectivity(ctx)
		return a.runReset(ctx, args)
	case "serve":
		return a.runServe(ctx)
	default:
		return errUsage
	}
}
