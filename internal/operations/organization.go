package operations

import (
	"context"
	"fmt"
	"math"
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

// organizationContentType is required on every create per spec §4.7.2.
const organizationContentType = "application/fhir+json"

// OrganizationBenchmark drives `POST <base>/Organization` at each configured
// concurrency level. Sample data is finite, so iterations are amortized over groups,
// each preceded by a full expunge of the server's content (spec §4.7.2).
type OrganizationBenchmark struct{}

func (b *OrganizationBenchmark) Name() string { return "POST /Organization" }

func (b *OrganizationBenchmark) Run(ctx context.Context, handle fhirserver.Handle, sampleData *sampledata.SampleData, cfg *config.AppConfig) results.ServerOperationLog {
	entry := results.ServerOperationLog{Operation: b.Name()}

	sampleCount, err := countOrganizations(sampleData)
	if err != nil {
		entry.Errors = append(entry.Errors, fmt.Sprintf("unable to count available Organization samples: %v", err))
		return entry
	}
	if sampleCount == 0 {
		entry.Errors = append(entry.Errors, "no Organization samples available")
		return entry
	}

	for _, level := range cfg.ConcurrencyLevels {
		measurement, errs := b.runLevel(ctx, handle, sampleData, cfg, level, sampleCount)
		entry.Measurements = append(entry.Measurements, measurement)
		entry.Errors = append(entry.Errors, errs...)
	}

	return entry
}

func countOrganizations(sampleData *sampledata.SampleData) (uint32, error) {
	it := sampledata.NewResourceIter(sampleData, "Organization")
	var count uint32
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	return count, it.Err()
}

// runLevel implements the per-concurrency-level group loop of spec §4.7.2.
func (b *OrganizationBenchmark) runLevel(ctx context.Context, handle fhirserver.Handle, sampleData *sampledata.SampleData, cfg *config.AppConfig, level, sampleCount uint32) (results.ServerOperationMeasurement, []string) {
	histogram := metrics.NewHistogram()
	groups := uint32(math.Ceil(float64(cfg.Iterations) / float64(sampleCount)))

	started := time.Now()

	var (
		iterationsAttempted uint32
		iterationsFailed    uint32
		iterationsSkipped   uint32
		executionDuration   time.Duration
		errs                []string
	)

	for g := uint32(1); g <= groups; g++ {
		remaining := cfg.Iterations - iterationsAttempted
		groupSize := sampleCount
		if remaining < groupSize {
			groupSize = remaining
		}
		if groupSize == 0 {
			break
		}

		if err := handle.ExpungeAllContent(ctx); err != nil {
			log.WithFields(log.Fields{
				"server":    handle.Plugin().Name(),
				"operation": b.Name(),
				"group":     g,
			}).WithError(err).Warn("expunge failed mid-benchmark; ending measurement early")
			iterationsSkipped += remaining
			errs = append(errs, fmt.Sprintf("expunge failed before group %d: %v", g, err))
			break
		}

		samples, err := takeOrganizations(sampleData, groupSize)
		if err != nil {
			iterationsSkipped += remaining
			errs = append(errs, fmt.Sprintf("unable to load group %d sample data: %v", g, err))
			break
		}

		items := make([]concurrency.Item, len(samples))
		for i, sample := range samples {
			sample := sample
			items[i] = func(itemCtx context.Context) *iteration.State {
				return b.runOne(itemCtx, handle, sample)
			}
		}

		groupStarted := time.Now()
		outcomes := concurrency.Run(ctx, concurrency.Config{Concurrency: level, Timeout: cfg.OperationTimeout}, items)
		executionDuration += time.Since(groupStarted)

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
					"group":     g,
					"iteration": outcome.Index,
				}).WithError(outcome.State.Err).Warn("iteration failed")
				errs = append(errs, outcome.State.Err.Error())
			}
		}

		iterationsAttempted += groupSize
	}

	completed := time.Now()

	derived, err := metrics.Derive(metrics.Measurement{
		Histogram:           histogram,
		ExecutionDuration:   executionDuration,
		IterationsSucceeded: iterationsAttempted - iterationsFailed,
	})
	if err != nil {
		errs = append(errs, err.Error())
	}

	return results.ServerOperationMeasurement{
		ConcurrentUsers:   level,
		Started:           started,
		Completed:         completed,
		ExecutionDuration: results.NewDuration(executionDuration),
		IterationsFailed:  iterationsFailed,
		IterationsSkipped: iterationsSkipped,
		Metrics:           toServerOperationMetrics(derived),
	}, errs
}

// takeOrganizations obtains a fresh iterator of Organization samples (re-reading the
// hospitals file from scratch, per spec §4.7.2 "obtain a fresh iterator of up to
// group_size Organization samples") and takes the first n of them. Reuse of the same
// samples across groups is intentional: the expunge before each group guarantees no
// server ever sees a duplicate within one database lifetime.
func takeOrganizations(sampleData *sampledata.SampleData, n uint32) ([]sampledata.SampleResource, error) {
	it := sampledata.NewResourceIter(sampleData, "Organization")
	samples := make([]sampledata.SampleResource, 0, n)
	for uint32(len(samples)) < n {
		sample, ok := it.Next()
		if !ok {
			break
		}
		samples = append(samples, *sample)
	}
	return samples, it.Err()
}

func (b *OrganizationBenchmark) runOne(ctx context.Context, handle fhirserver.Handle, sample sampledata.SampleResource) *iteration.State {
	state := iteration.Start(time.Now())

	fudged := handle.Plugin().FudgeSampleResource(sample)

	req, err := handle.NewRequest(ctx, http.MethodPost, "Organization", fudged.ResourceJSON)
	if err != nil {
		state.Complete(time.Now(), fhirerr.NewTransportError(err))
		return state
	}
	req.Header.Set("Content-Type", organizationContentType)

	resp, err := handle.Client().Do(req)
	if err != nil {
		state.Complete(time.Now(), fhirerr.NewTransportError(err))
		return state
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := httpclient.ReadAndClose(resp)
		state.Complete(time.Now(), fhirerr.NewOperationError(resp.StatusCode, body))
		return state
	}
	httpclient.DrainAndClose(resp)

	state.Complete(time.Now(), nil)
	return state
}
