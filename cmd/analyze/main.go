// Command analyze runs one analysis cycle over a portfolio file and prints
// the resulting report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/quantedge/options-risk-engine/config"
	"github.com/quantedge/options-risk-engine/internal/advisor"
	"github.com/quantedge/options-risk-engine/internal/engine"
	"github.com/quantedge/options-risk-engine/internal/pricing"
	"github.com/quantedge/options-risk-engine/internal/sim"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

func main() {
	inputPath := flag.String("input", "", "path to a JSON analysis input file (positions, snapshots, account)")
	seed := flag.Int64("seed", 0, "override the Monte Carlo seed (0 uses config)")
	full := flag.Bool("full", false, "print Greeks and simulation output alongside the report")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init("warn", cfg.App.Environment)
	log := logger.GetLogger("analyze.main")

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -input portfolio.json [-seed N] [-full]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Reading input file: %v", err)
	}
	var input engine.AnalysisInput
	if err := json.Unmarshal(data, &input); err != nil {
		log.Fatalf("Decoding input file: %v", err)
	}

	pricer, err := pricing.NewEngine(pricing.Config{
		RiskFreeRate:      cfg.Engine.RiskFreeRate,
		DefaultVolatility: cfg.Engine.DefaultVolatility,
		DividendYield:     cfg.Engine.DividendYield,
	})
	if err != nil {
		log.Fatalf("Creating pricing engine: %v", err)
	}

	simSeed := cfg.MonteCarlo.Seed
	if *seed != 0 {
		simSeed = *seed
	}
	simulator, err := sim.New(sim.Config{
		NumPaths:          cfg.MonteCarlo.NumPaths,
		NumDays:           cfg.MonteCarlo.NumDays,
		RiskFreeRate:      cfg.Engine.RiskFreeRate,
		DefaultVolatility: cfg.Engine.DefaultVolatility,
		Antithetic:        cfg.MonteCarlo.Antithetic,
		SamplePaths:       cfg.MonteCarlo.SamplePaths,
		Seed:              simSeed,
	})
	if err != nil {
		log.Fatalf("Creating simulator: %v", err)
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

	eng := engine.New(pricer, simulator, adv, nil)
	result, err := eng.Analyze(context.Background(), &input)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	var out any = result.Report
	if *full {
		out = result
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Encoding output: %v", err)
	}
	fmt.Println(string(encoded))
}
