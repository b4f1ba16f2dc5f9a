// Package operations implements the two benchmarked FHIR operations (spec §4.7):
// read-only `metadata` and write `POST /Organization`. Both drive the server handle
// through the Concurrent Operation Driver, accumulate an HDR histogram per concurrency
// level, and emit a results.ServerOperationLog.
package operations

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/karlmdavis/fhir-benchmarks/internal/config"
	"github.com/karlmdavis/fhir-benchmarks/internal/fhirserver"
	"github.com/karlmdavis/fhir-benchmarks/internal/results"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// Benchmark is one operation this orchestrator knows how to drive against a live
// server handle, across every configured concurrency level.
type Benchmark interface {
	// Name identifies the operation in the results document, e.g. "metadata".
	Name() string

	// Run drives this operation against handle at every level in cfg.ConcurrencyLevels,
	// using sampleData for any resources it needs, and returns the accumulated log.
	Run(ctx context.Context, handle fhirserver.Handle, sampleData *sampledata.SampleData, cfg *config.AppConfig) results.ServerOperationLog
}

// Registry returns the closed, ordered set of operation benchmarks the orchestrator
// runs against every server (spec §4.10: "a closed set defined in code").
func Registry() []Benchmark {
	return []Benchmark{
		&MetadataBenchmark{},
		&OrganizationBenchmark{},
	}
}

// RunAll drives every registered benchmark against handle in order, logging progress as
// it goes (spec §4.10 step 2).
func RunAll(ctx context.Context, handle fhirserver.Handle, sampleData *sampledata.SampleData, cfg *config.AppConfig) []results.ServerOperationLog {
	benchmarks := Registry()
	logs := make([]results.ServerOperationLog, 0, len(benchmarks))

	for _, b := range benchmarks {
		log.WithFields(log.Fields{
			"server":    handle.Plugin().Name(),
			"operation": b.Name(),
		}).Info("running operation benchmark")

		logs = append(logs, b.Run(ctx, handle, sampleData, cfg))
	}

	return logs
}
