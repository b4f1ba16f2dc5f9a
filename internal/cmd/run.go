// Package cmd wires together configuration, logging, sample-data discovery, the server
// registry, and the orchestrator into the single entry point the CLI binary calls.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/karlmdavis/fhir-benchmarks/internal/config"
	"github.com/karlmdavis/fhir-benchmarks/internal/fhirserver"
	"github.com/karlmdavis/fhir-benchmarks/internal/logging"
	"github.com/karlmdavis/fhir-benchmarks/internal/orchestrator"
	"github.com/karlmdavis/fhir-benchmarks/internal/provenance"
	"github.com/karlmdavis/fhir-benchmarks/internal/results"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// checkPrereqs runs `docker-compose --help` and fails fast if it does not exit 0, per
// spec §6: the orchestrator cannot launch a single server without it.
func checkPrereqs() error {
	if err := exec.Command("docker-compose", "--help").Run(); err != nil {
		return fmt.Errorf("prerequisite check failed: `docker-compose --help`: %w", err)
	}
	return nil
}

// Run is the orchestrator's single entry point: load configuration, verify
// prerequisites, ensure sample data exists, then drive every registered server plugin
// through the full benchmark suite and print the resulting JSON document to stdout
// (spec §4.10, §6). Returns a non-zero-worthy error only for the fatal, process-wide
// failure classes named in spec §7 (config, prereqs, sample data); per-server failures
// are captured in the emitted document instead.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.InitLogrus(os.Getenv("DEBUG") == "true", cfg.LogFile)
	if cfg.ZapEnabled {
		if err := logging.InitZapLoggerSimple(os.Getenv("DEBUG") == "true"); err != nil {
			log.WithError(err).Warn("failed to initialize zap logger; continuing with logrus only")
		} else {
			defer func() { _ = logging.ZapSync() }()
		}
	}

	log.Info("checking prerequisites")
	if err := checkPrereqs(); err != nil {
		return err
	}

	benchmarkDir, err := config.BenchmarkDir()
	if err != nil {
		return fmt.Errorf("resolving benchmark directory: %w", err)
	}

	log.WithField("population_size", cfg.PopulationSize).Info("ensuring sample data is generated")
	dataDir := config.SyntheticDataDir(benchmarkDir)
	generatorScript := benchmarkDir + "/synthetic-data/generate-synthetic-data.sh"
	generatorWorkDir := benchmarkDir + "/synthetic-data"
	sampleData, err := sampledata.EnsureGenerated(generatorScript, generatorWorkDir, dataDir, cfg.PopulationSize)
	if err != nil {
		return fmt.Errorf("loading sample data: %w", err)
	}

	registry := fhirserver.Registry(benchmarkDir)
	serverNames := make([]string, 0, len(registry))
	for _, plugin := range registry {
		serverNames = append(serverNames, string(plugin.Name()))
	}

	bootTime := time.Now()
	metadata := provenance.Gather(benchmarkDir)
	doc := results.NewFrameworkResults(bootTime, results.BenchmarkConfig{
		Iterations:        cfg.Iterations,
		OperationTimeout:  results.NewMillisDuration(cfg.OperationTimeout),
		ConcurrencyLevels: cfg.ConcurrencyLevels,
		PopulationSize:    cfg.PopulationSize,
	}, metadata, serverNames)

	ctx := context.Background()
	orchestrator.Run(ctx, doc, registry, sampleData, cfg)

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results document: %w", err)
	}

	fmt.Println(string(encoded))
	return nil
}
