// Package config provides configuration management for the benchmark orchestrator.
// It loads tunables from environment variables (with optional .env file support) and
// resolves the project's root directory so that sample-data and server-control-script
// paths can be built relative to it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Environment variable keys recognized by AppConfig. All are optional; defaults are the
// default* constants below.
const (
	EnvKeyIterations        = "FHIR_BENCH_ITERATIONS"
	EnvKeyOperationTimeout  = "FHIR_BENCH_OPERATION_TIMEOUT_MS"
	EnvKeyConcurrencyLevels = "FHIR_BENCH_CONCURRENCY_LEVELS"
	EnvKeyPopulationSize    = "FHIR_BENCH_POPULATION_SIZE"
	EnvKeyZapEnabled        = "FHIR_BENCH_ZAP_ENABLED"
	EnvKeyLogFile           = "FHIR_BENCH_LOG_FILE"
)

const (
	defaultIterations       = 1000
	defaultOperationTimeout = 10000 // milliseconds
	defaultConcurrencyLevel = "1,10"
	defaultPopulationSize   = 100
)

// AppConfig is the typed view of every tunable this orchestrator reads at startup.
type AppConfig struct {
	// Iterations is the maximum number of iterations to exercise each operation for,
	// during a benchmark run.
	Iterations uint32

	// OperationTimeout is the maximum amount of time to let any individual operation
	// being benchmarked run for.
	OperationTimeout time.Duration

	// ConcurrencyLevels is the list of concurrency levels to test at, in the order they
	// should be run. Each operation is tested once per level.
	ConcurrencyLevels []uint32

	// PopulationSize is the maximum synthetic patient population size to benchmark with.
	PopulationSize uint32

	// ZapEnabled turns on the optional high-throughput structured logger alongside logrus.
	ZapEnabled bool

	// LogFile, if set, additionally writes rotated log output to this path.
	LogFile string
}

// Load reads an AppConfig from the process environment, first loading a `.env` file from
// the working directory if one is present. Variables already set in the environment are
// never overridden by the `.env` file's contents.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("unable to load .env file; continuing with process environment only")
	}

	iterations, err := readUint32(EnvKeyIterations, defaultIterations)
	if err != nil {
		return nil, err
	}

	operationTimeoutMs, err := readUint32(EnvKeyOperationTimeout, defaultOperationTimeout)
	if err != nil {
		return nil, err
	}

	concurrencyLevels, err := readConcurrencyLevels()
	if err != nil {
		return nil, err
	}

	populationSize, err := readUint32(EnvKeyPopulationSize, defaultPopulationSize)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		Iterations:        iterations,
		OperationTimeout:  time.Duration(operationTimeoutMs) * time.Millisecond,
		ConcurrencyLevels: concurrencyLevels,
		PopulationSize:    populationSize,
		ZapEnabled:        os.Getenv(EnvKeyZapEnabled) == "true",
		LogFile:           os.Getenv(EnvKeyLogFile),
	}, nil
}

func readUint32(key string, fallback uint32) (uint32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %s=%q: %w", key, raw, err)
	}
	return uint32(parsed), nil
}

func readConcurrencyLevels() ([]uint32, error) {
	raw, ok := os.LookupEnv(EnvKeyConcurrencyLevels)
	if !ok || raw == "" {
		raw = defaultConcurrencyLevel
	}

	parts := strings.Split(raw, ",")
	levels := make([]uint32, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		parsed, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("unable to parse %s=%q: %w", EnvKeyConcurrencyLevels, raw, err)
		}
		levels = append(levels, uint32(parsed))
	}
	return levels, nil
}

// BenchmarkDir returns the root directory for the benchmark project: the Git repository's
// top-level directory. It handles two cases: running from this module's own directory (in
// which case the parent is returned), or running from the repository root directly.
func BenchmarkDir() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve current directory: %w", err)
	}

	if filepath.Base(currentDir) == "fhir-benchmarks" {
		return filepath.Dir(currentDir), nil
	}

	if _, err := os.Stat(filepath.Join(currentDir, ".git")); err == nil {
		return currentDir, nil
	}

	return "", fmt.Errorf("unable to find benchmark directory from current directory: %q", currentDir)
}

// SyntheticDataDir returns the directory that the synthetic-data generator writes its
// output to, relative to the benchmark root.
func SyntheticDataDir(benchmarkDir string) string {
	return filepath.Join(benchmarkDir, "synthetic-data", "target", "fhir")
}

// ServerBuildsDir returns the directory containing a given server's control script.
func ServerBuildsDir(benchmarkDir, slug string) string {
	return filepath.Join(benchmarkDir, "server_builds", slug)
}
