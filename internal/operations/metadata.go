package operations

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/karlmdavis/fhir-benchmarks/internal/concurrency"
	"github.com/karlmdavis/fhir-benchmarks/internal/config"
	"github.com/karlmdavis/fhir-benchmarks/internal/fhirerr"
	"github.com/karlmdavis/fhir-benchmarks/internal/fhirserver"
	"github.com/karlmdavis/fhir-benchmarks/internal/httpclient"
	"github.com/karlmdavis/fhir-benchmarks/internal/iteration"
	"github.com/karlmdavis/fhir-benchmarks/internal/metrics"
	"github.com/karlmdavis/fhir-benchmarks/internal/results"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// MetadataBenchmark drives `GET <base>/metadata` at each configured concurrency level: a
// read-only, stateless operation with no setup between iterations (spec §4.7.1).
type MetadataBenchmark struct{}

func (b *MetadataBenchmark) Name() string { return "metadata" }

func (b *MetadataBenchmark) Run(ctx context.Context, handle fhirserver.Handle, _ *sampledata.SampleData, cfg *config.AppConfig) results.ServerOperationLog {
	entry := results.ServerOperationLog{Operation: b.Name()}

	for _, level := range cfg.ConcurrencyLevels {
		measurement, errs := b.runLevel(ctx, handle, cfg, level)
		entry.Measurements = append(entry.Measurements, measurement)
		entry.Errors = append(entry.Errors, errs...)
	}

	return entry
}

func (b *MetadataBenchmark) runLevel(ctx context.Context, handle fhirserver.Handle, cfg *config.AppConfig, level uint32) (results.ServerOperationMeasurement, []string) {
	histogram := metrics.NewHistogram()

	items := make([]concurrency.Item, cfg.Iterations)
	for i := range items {
		items[i] = func(itemCtx context.Context) *iteration.State {
			return b.runOne(itemCtx, handle)
		}
	}

	started := time.Now()
	outcomes := concurrency.Run(ctx, concurrency.Config{Concurrency: level, Timeout: cfg.OperationTimeout}, items)
	completed := time.Now()

	var iterationsFailed uint32
	var errs []string
	for _, outcome := range outcomes {
		if outcome.State.Succeeded() {
			metrics.RecordMillis(histogram, outcome.State.Duration().Milliseconds())
			continue
		}
		iterationsFailed++
		if outcome.State.Err != nil {
			log.WithFields(log.Fields{
				"server":    handle.Plugin().Name(),
				"operation": b.Name(),
				"iteration": outcome.Index,
			}).WithError(outcome.State.Err).Warn("iteration failed")
			errs = append(errs, outcome.State.Err.Error())
		}
	}

	derived, err := metrics.Derive(metrics.Measurement{
		Histogram:           histogram,
		ExecutionDuration:   completed.Sub(started),
		IterationsSucceeded: uint32(len(outcomes)) - iterationsFailed,
	})
	if err != nil {
		errs = append(errs, err.Error())
	}

	return results.ServerOperationMeasurement{
		ConcurrentUsers:   level,
		Started:           started,
		Completed:         completed,
		ExecutionDuration: results.NewDuration(completed.Sub(started)),
		IterationsFailed:  iterationsFailed,
		IterationsSkipped: 0,
		Metrics:           toServerOperationMetrics(derived),
	}, errs
}

func (b *MetadataBenchmark) runOne(ctx context.Context, handle fhirserver.Handle) *iteration.State {
	state := iteration.Start(time.Now())

	req, err := handle.NewRequest(ctx, http.MethodGet, "metadata", nil)
	if err != nil {
		state.Complete(time.Now(), fhirerr.NewTransportError(err))
		return state
	}

	resp, err := handle.Client().Do(req)
	if err != nil {
		state.Complete(time.Now(), fhirerr.NewTransportError(err))
		return state
	}
	defer httpclient.DrainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		state.Complete(time.Now(), fhirerr.NewOperationError(resp.StatusCode, nil))
		return state
	}

	state.Complete(time.Now(), nil)
	return state
}

// toServerOperationMetrics is shared by every benchmark to convert the internal
// metrics.Derived payload into the wire-format results.ServerOperationMetrics.
func toServerOperationMetrics(d *metrics.Derived) results.ServerOperationMetrics {
	if d == nil {
		return results.ServerOperationMetrics{}
	}
	return results.ServerOperationMetrics{
		ThroughputPerSecond:    d.ThroughputPerSecond,
		LatencyMillisMean:      d.Percentiles.Mean,
		LatencyMillisP50:       d.Percentiles.P50,
		LatencyMillisP90:       d.Percentiles.P90,
		LatencyMillisP99:       d.Percentiles.P99,
		LatencyMillisP999:      d.Percentiles.P999,
		LatencyMillisP100:      d.Percentiles.P100,
		LatencyHistogram:       d.HistoBlob,
		LatencyHistogramHgrmGz: d.HistoGzipBase64,
	}
}
