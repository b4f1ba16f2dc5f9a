// Package orchestrator implements the outer loop (spec §4.10): launch each registered
// server plugin in turn, drive every operation benchmark against it, shut it down, and
// record the outcome of each step into a results.FrameworkResults document.
package orchestrator

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/karlmdavis/fhir-benchmarks/internal/config"
	"github.com/karlmdavis/fhir-benchmarks/internal/fhirserver"
	"github.com/karlmdavis/fhir-benchmarks/internal/logging"
	"github.com/karlmdavis/fhir-benchmarks/internal/operations"
	"github.com/karlmdavis/fhir-benchmarks/internal/results"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// Run drives every plugin in registry sequentially (spec §5: "they bind the same
// well-known local ports"), filling in doc's pre-allocated ServerResult slots as it
// goes, and sets doc.Completed once every server has been processed.
func Run(ctx context.Context, doc *results.FrameworkResults, registry []fhirserver.Plugin, sampleData *sampledata.SampleData, cfg *config.AppConfig) {
	for _, plugin := range registry {
		runServer(ctx, doc, plugin, sampleData, cfg)
	}
	doc.Finish(time.Now())
}

func runServer(ctx context.Context, doc *results.FrameworkResults, plugin fhirserver.Plugin, sampleData *sampledata.SampleData, cfg *config.AppConfig) {
	serverResult := doc.ServerResultFor(string(plugin.Name()))
	if serverResult == nil {
		log.WithField("server", plugin.Name()).Error("no results slot registered for plugin; skipping")
		return
	}

	log.WithField("server", plugin.Name()).Info("launching server")
	launchStarted := time.Now()
	handle, err := plugin.Launch(ctx)
	launchLog := &results.FrameworkOperationLog{
		Started:   launchStarted,
		Completed: time.Now(),
		Outcome:   results.Ok(),
	}
	if err != nil {
		log.WithField("server", plugin.Name()).WithError(err).Error("launch failed")
		launchLog.Outcome = results.Errs(err.Error())
		serverResult.Launch = launchLog
		return
	}
	serverResult.Launch = launchLog

	log.WithField("server", plugin.Name()).Info("server ready; running benchmarks")
	serverResult.Operations = operations.RunAll(ctx, handle, sampleData, cfg)
	logOperationSummaries(string(plugin.Name()), serverResult.Operations)

	log.WithField("server", plugin.Name()).Info("shutting down server")
	shutdownStarted := time.Now()
	shutdownErr := handle.Shutdown()
	shutdownLog := &results.FrameworkOperationLog{
		Started:   shutdownStarted,
		Completed: time.Now(),
		Outcome:   results.Ok(),
	}
	if shutdownErr != nil {
		log.WithField("server", plugin.Name()).WithError(shutdownErr).Error("shutdown failed")
		shutdownLog.Outcome = results.Errs(shutdownErr.Error())
	}
	serverResult.Shutdown = shutdownLog
}

// logOperationSummaries emits one line per measurement. When Zap has been enabled (high
// iteration counts make logrus's reflection-based formatting noticeable), it logs through
// Zap's structured fields instead of logrus.
func logOperationSummaries(serverName string, logs []results.ServerOperationLog) {
	for _, opLog := range logs {
		for _, m := range opLog.Measurements {
			durationMs := float64(m.Completed.Sub(m.Started).Milliseconds())
			if logging.ZapEnabled() {
				logging.Zap().Info("operation measurement completed",
					logging.ZapServer(serverName),
					logging.ZapOperation(opLog.Operation),
					logging.ZapConcurrency(m.ConcurrentUsers),
					logging.ZapIterations(m.IterationsFailed+m.IterationsSkipped),
					logging.ZapDurationMs(durationMs),
				)
				continue
			}
			log.WithFields(log.Fields{
				"server":            serverName,
				"operation":         opLog.Operation,
				"concurrent_users":  m.ConcurrentUsers,
				"iterations_failed": m.IterationsFailed,
				"duration_ms":       durationMs,
			}).Info("operation measurement completed")
		}
	}
}
