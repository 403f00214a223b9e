package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/syncsvc"
)

// runServe keeps the sync machinery alive until interrupted: the
// connectivity watcher drives queue replay, and remote subscriptions keep
// the local snapshots fresh. With PAYDOWN_OPS_ADDR set it also exposes
// /metrics and /healthz.
func (a *app) runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := syncsvc.NewWatcher(a.coordinator, a.cfg.SyncPoll)
	watcher.Start(ctx)
	defer watcher.Stop()

	payments, paymentsSub := a.remote.SubscribePayments(ctx, a.cfg.SyncPoll, 20, a.log)
	defer paymentsSub.Unsubscribe()
	debtStates, debtSub := a.remote.SubscribeDebtState(ctx, a.cfg.SyncPoll, a.log)
	defer debtSub.Unsubscribe()

	var srv *http.Server
	serverErr := make(chan error, 1)
	if a.cfg.OpsAddr != "" {
		srv = a.opsServer()
		go func() {
			a.log.Info("ops listener started", zap.String("addr", a.cfg.OpsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	fmt.Println("Syncing in the background. Press Ctrl-C to stop.")
	for {
		select {
		case <-ctx.Done():
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		case err := <-serverErr:
			return fmt.Errorf("ops listener: %w", err)
		case snapshot, ok := <-payments:
			if !ok {
				payments = nil
				continue
			}
			if err := a.coordinator.ApplyPaymentsSnapshot(ctx, snapshot); err != nil {
				a.log.Warn("apply payments snapshot failed", zap.Error(err))
			}
		case snapshot, ok := <-debtStates:
			if !ok {
				debtStates = nil
				continue
			}
			if err := a.coordinator.ApplyDebtSnapshot(ctx, snapshot); err != nil {
				a.log.Warn("apply debt snapshot failed", zap.Error(err))
			}
		}
	}
}

func (a *app) opsServer() *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		count, err := a.coordinator.QueueCount(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"online":      a.coordinator.Online(),
			"queue_depth": count,
		})
	})

	return &http.Server{
		Addr:              a.cfg.OpsAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
