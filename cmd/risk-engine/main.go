package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantedge/options-risk-engine/config"
	"github.com/quantedge/options-risk-engine/internal/advisor"
	"github.com/quantedge/options-risk-engine/internal/engine"
	"github.com/quantedge/options-risk-engine/internal/feed"
	"github.com/quantedge/options-risk-engine/internal/pricing"
	"github.com/quantedge/options-risk-engine/internal/sim"
	"github.com/quantedge/options-risk-engine/internal/store"
	"github.com/quantedge/options-risk-engine/internal/ws"
	"github.com/quantedge/options-risk-engine/pkg/api"
	"github.com/quantedge/options-risk-engine/pkg/metrics"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("risk-engine.main")
	log.Infof("Starting %s", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	pricer, err := pricing.NewEngine(pricing.Config{
		RiskFreeRate:      cfg.Engine.RiskFreeRate,
		DefaultVolatility: cfg.Engine.DefaultVolatility,
		DividendYield:     cfg.Engine.DividendYield,
	})
	if err != nil {
		log.Fatalf("Failed to create pricing engine: %v", err)
	}

	simulator, err := sim.New(sim.Config{
		NumPaths:          cfg.MonteCarlo.NumPaths,
		NumDays:           cfg.MonteCarlo.NumDays,
		RiskFreeRate:      cfg.Engine.RiskFreeRate,
		DefaultVolatility: cfg.Engine.DefaultVolatility,
		Antithetic:        cfg.MonteCarlo.Antithetic,
		SamplePaths:       cfg.MonteCarlo.SamplePaths,
		Seed:              cfg.MonteCarlo.Seed,
	})
	if err != nil {
		log.Fatalf("Failed to create simulator: %v", err)
	}

	adv := advisor.New(advisor.Config{
		DeltaNeutralThreshold:  cfg.Risk.DeltaNeutralThreshold,
		ConcentrationWarning:   cfg.Risk.ConcentrationWarning,
		ThetaDecayWarning:      cfg.Risk.ThetaDecayWarning,
		VaRWarning:             cfg.Risk.VaRWarning,
		VegaWarning:            cfg.Risk.VegaWarning,
		LossProbabilityWarning: cfg.Risk.LossProbabilityWarning,
		ExpiryWindowDays:       cfg.Risk.ExpiryWindowDays,
		ProfitTakePct:          cfg.Risk.ProfitTakePct,
		StopLossPct:            cfg.Risk.StopLossPct,
		ScoreMedium:            cfg.Risk.ScoreMedium,
		ScoreHigh:              cfg.Risk.ScoreHigh,
		ScoreCritical:          cfg.Risk.ScoreCritical,
	})

	eng := engine.New(pricer, simulator, adv, recorder)

	reportStore := store.NewReportStore()
	snapshotStore := store.NewSnapshotStore()

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Kafka feed: portfolio updates in, reports out.
	if cfg.Kafka.Enabled {
		consumer := feed.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.InputTopic, cfg.Kafka.ConsumerGroup)
		producer := feed.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ReportTopic)
		defer consumer.Close()
		defer producer.Close()

		go func() {
			err := consumer.Run(ctx, func(ctx context.Context, input *engine.AnalysisInput) error {
				result, err := eng.Analyze(ctx, input)
				if err != nil {
					return err
				}
				reportStore.Set(result.Report)
				for _, snap := range input.Snapshots {
					snapshotStore.Put(snap)
				}
				hub.BroadcastReport(result.Report)
				return producer.PublishReport(ctx, result.Report)
			})
			if err != nil && ctx.Err() == nil {
				log.Errorf("Kafka consumer stopped: %v", err)
			}
		}()
	}

	handlers := api.CreateHandlers(eng, pricer, simulator, adv, reportStore, snapshotStore, hub)
	server := api.NewServer(api.Config{
		Host:        cfg.API.Host,
		Port:        cfg.API.Port,
		MetricsPath: cfg.Metrics.Path,
	}, handlers, recorder)

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("API server stopped: %v", err)
			cancel()
		}
	}()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Infof("Received signal %v, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}
	cancel()
	log.Info("Shutdown complete")
}
