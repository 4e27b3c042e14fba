// Command deltafeed runs the market-data fan-out service: the Market
// Simulator, Delta Engine and Fan-out Dispatcher pipeline behind a
// WebSocket transport and an admin HTTP API.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deltafeed/deltafeed/internal/adminapi"
	"github.com/deltafeed/deltafeed/internal/config"
	"github.com/deltafeed/deltafeed/internal/correlation"
	"github.com/deltafeed/deltafeed/internal/delta"
	"github.com/deltafeed/deltafeed/internal/dispatch"
	"github.com/deltafeed/deltafeed/internal/filter"
	"github.com/deltafeed/deltafeed/internal/instrument"
	"github.com/deltafeed/deltafeed/internal/registry"
	"github.com/deltafeed/deltafeed/internal/simulator"
	"github.com/deltafeed/deltafeed/internal/transport"
	"github.com/deltafeed/deltafeed/pkg/logger"
	"github.com/deltafeed/deltafeed/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "deltafeed: "+err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer log.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)

	store := instrument.NewStore()
	graph := correlation.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	engine := delta.New(store, log)
	sim := simulator.New(store, graph, engine, cfg.SimulatorConfig(), rand.New(rand.NewSource(time.Now().UnixNano())), log)
	reg := registry.New(cfg.RegistryDefaults())
	evaluator := filter.New(log)

	hub := transport.NewHub(store, reg, evaluator, log)
	dispatcher := dispatch.New(store, reg, evaluator, hub, m, log)

	seedExampleInstruments(store, graph, cfg)

	admin := adminapi.NewServer(store, graph, sim, reg, log)

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", hub.ServeWS)
	wsServer := &http.Server{Addr: cfg.ListenAddr, Handler: wsMux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		runTicker(groupCtx, cfg, sim, dispatcher, m, log)
		return nil
	})

	if cfg.ScenarioConfigFile != "" {
		script, err := config.LoadScenarioScript(cfg.ScenarioConfigFile)
		if err != nil {
			return fmt.Errorf("startup: %w", err)
		}
		group.Go(func() error {
			config.RunScenarioScript(groupCtx, script, sim)
			return nil
		})
	}

	group.Go(func() error {
		return admin.Run(groupCtx, cfg.AdminListenAddr)
	})

	group.Go(func() error {
		errCh := make(chan error, 1)
		go func() {
			if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()
		select {
		case <-groupCtx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return wsServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	})

	log.Info("deltafeed started", zap.String("wsAddr", cfg.ListenAddr), zap.String("adminAddr", cfg.AdminListenAddr))
	return group.Wait()
}

// runTicker drives the Tick Generator on a wall-clock cadence until ctx is
// cancelled, per spec.md §5's scheduling model.
func runTicker(ctx context.Context, cfg *config.Config, sim *simulator.Simulator, dispatcher *dispatch.Dispatcher, m *metrics.Metrics, log *zap.Logger) {
	ticker := time.NewTicker(time.Duration(cfg.UpdateFrequencyMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("ticker: shutting down")
			return
		case now := <-ticker.C:
			sim.Tick(now, func(d *delta.Delta) {
				m.IncDeltaEmitted()
				dispatcher.Dispatch(d)
			})
			m.IncTick()
		}
	}
}
