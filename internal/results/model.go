package results

import "time"

// FrameworkResults is the single JSON document this orchestrator ever emits: the
// complete record of one benchmark run across every registered server (spec §3, §4.9).
// Field order here is the serialization contract — golden-file tests assert textual
// equality, so fields must never be reordered once added.
type FrameworkResults struct {
	Started   time.Time          `json:"started"`
	Completed *time.Time         `json:"completed"`
	Config    BenchmarkConfig    `json:"config"`
	Metadata  FrameworkMetadata  `json:"benchmark_metadata"`
	Servers   []ServerResult     `json:"servers"`
}

// BenchmarkConfig is the wire form of config.AppConfig's benchmark tunables (its logging
// settings are not included), with
// OperationTimeout serialized as a millisecond integer rather than the ISO-8601-flavored
// Duration every other duration in this document uses (spec §4.9).
type BenchmarkConfig struct {
	Iterations        uint32         `json:"iterations"`
	OperationTimeout  MillisDuration `json:"operation_timeout"`
	ConcurrencyLevels []uint32       `json:"concurrency_levels"`
	PopulationSize    uint32         `json:"population_size"`
}

// FrameworkMetadata is build/runtime provenance captured once per run (spec §3).
type FrameworkMetadata struct {
	BuildProfile string `json:"build_profile"`
	GitBranch    string `json:"git_branch"`
	GitVersion   string `json:"git_version"`
	GitSHA       string `json:"git_sha"`
	CPUCores     int    `json:"cpu_cores"`
	CPUBrand     string `json:"cpu_brand"`
	CPUFreqMHz   uint64 `json:"cpu_freq_mhz"`
}

// ServerResult is the per-server slice of a FrameworkResults: its launch outcome, the
// operation benchmarks run against it (absent if launch failed), and its shutdown
// outcome (spec §3).
type ServerResult struct {
	Server     string                `json:"server"`
	Launch     *FrameworkOperationLog `json:"launch"`
	Operations []ServerOperationLog   `json:"operations"`
	Shutdown   *FrameworkOperationLog `json:"shutdown"`
}

// FrameworkOperationLog records one timestamped lifecycle operation (launch or
// shutdown) and its outcome.
type FrameworkOperationLog struct {
	Started   time.Time       `json:"started"`
	Completed time.Time       `json:"completed"`
	Outcome   OperationResult `json:"outcome"`
}

// ServerOperationLog is every measurement taken for one benchmarked operation (e.g.
// "metadata" or "POST /Organization") against one server, one per concurrency level.
type ServerOperationLog struct {
	Operation    string                      `json:"operation"`
	Errors       []string                    `json:"errors"`
	Measurements []ServerOperationMeasurement `json:"measurements"`
}

// ServerOperationMeasurement is the result of running one operation at one concurrency
// level: timing, success/failure/skip counts, and derived metrics (spec §3, §4.7).
type ServerOperationMeasurement struct {
	ConcurrentUsers    uint32                 `json:"concurrent_users"`
	Started            time.Time              `json:"started"`
	Completed          time.Time              `json:"completed"`
	ExecutionDuration  Duration               `json:"execution_duration"`
	IterationsFailed   uint32                 `json:"iterations_failed"`
	IterationsSkipped  uint32                 `json:"iterations_skipped"`
	Metrics            ServerOperationMetrics `json:"metrics"`
}

// ServerOperationMetrics is the derived throughput/latency summary for one measurement,
// plus both histogram serializations that accompany it (spec §4.8).
type ServerOperationMetrics struct {
	ThroughputPerSecond    float64 `json:"throughput_per_second"`
	LatencyMillisMean      float64 `json:"latency_millis_mean"`
	LatencyMillisP50       int64   `json:"latency_millis_p50"`
	LatencyMillisP90       int64   `json:"latency_millis_p90"`
	LatencyMillisP99       int64   `json:"latency_millis_p99"`
	LatencyMillisP999      int64   `json:"latency_millis_p999"`
	LatencyMillisP100      int64   `json:"latency_millis_p100"`
	LatencyHistogram       string  `json:"latency_histogram"`
	LatencyHistogramHgrmGz string  `json:"latency_histogram_hgrm_gzip"`
}

// NewFrameworkResults starts a new results document at the given time, with a fixed
// server slot for every plugin in the registry (spec §3: "the set is fixed before any
// server runs").
func NewFrameworkResults(started time.Time, cfg BenchmarkConfig, metadata FrameworkMetadata, serverNames []string) *FrameworkResults {
	servers := make([]ServerResult, 0, len(serverNames))
	for _, name := range serverNames {
		servers = append(servers, ServerResult{Server: name})
	}

	return &FrameworkResults{
		Started:  started,
		Config:   cfg,
		Metadata: metadata,
		Servers:  servers,
	}
}

// ServerResultFor returns a pointer to the ServerResult slot for the given server name,
// so the orchestrator can fill it in as that server's run progresses. Returns nil if no
// slot exists for that name, which would indicate a registry/results mismatch bug.
func (r *FrameworkResults) ServerResultFor(name string) *ServerResult {
	for i := range r.Servers {
		if r.Servers[i].Server == name {
			return &r.Servers[i]
		}
	}
	return nil
}

// Finish marks the run as complete at the given time.
func (r *FrameworkResults) Finish(completed time.Time) {
	r.Completed = &completed
}
