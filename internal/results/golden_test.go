package results

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

// TestFrameworkResultsFieldOrder asserts that FrameworkResults encodes with its
// declared field order preserved (spec §4.9, §8), by comparing textually against a
// checked-in golden fixture. A semantic JSON-equality comparison would not catch a
// field reordering, which is the whole point of this test.
func TestFrameworkResultsFieldOrder(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)
	t2 := time.Date(2024, 1, 1, 0, 5, 5, 0, time.UTC)
	t3 := time.Date(2024, 1, 1, 0, 5, 10, 0, time.UTC)
	tFinish := time.Date(2024, 1, 1, 0, 5, 15, 0, time.UTC)

	doc := &FrameworkResults{
		Started:   t0,
		Completed: &tFinish,
		Config: BenchmarkConfig{
			Iterations:        2,
			OperationTimeout:  NewMillisDuration(10 * time.Second),
			ConcurrencyLevels: []uint32{1, 2},
			PopulationSize:    10,
		},
		Metadata: FrameworkMetadata{
			BuildProfile: "release",
			GitBranch:    "main",
			GitVersion:   "go1.24.0",
			GitSHA:       "abc123",
			CPUCores:     4,
			CPUBrand:     "amd64",
			CPUFreqMHz:   0,
		},
		Servers: []ServerResult{
			{
				Server: "fake-server",
				Launch: &FrameworkOperationLog{Started: t0, Completed: t1, Outcome: Ok()},
				Operations: []ServerOperationLog{
					{
						Operation: "metadata",
						Errors:    []string{},
						Measurements: []ServerOperationMeasurement{
							{
								ConcurrentUsers:   1,
								Started:           t1,
								Completed:         t2,
								ExecutionDuration: NewDuration(5 * time.Minute),
								IterationsFailed:  0,
								IterationsSkipped: 0,
								Metrics: ServerOperationMetrics{
									ThroughputPerSecond:    5,
									LatencyMillisMean:      1,
									LatencyMillisP50:       1,
									LatencyMillisP90:       1,
									LatencyMillisP99:       1,
									LatencyMillisP999:      1,
									LatencyMillisP100:      1,
									LatencyHistogram:       "abc==",
									LatencyHistogramHgrmGz: "def==",
								},
							},
						},
					},
				},
				Shutdown: &FrameworkOperationLog{Started: t2, Completed: t3, Outcome: Ok()},
			},
		},
	}

	got, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}

	want, err := os.ReadFile("testdata/framework_results.golden.json")
	if err != nil {
		t.Fatalf("reading golden fixture: %v", err)
	}

	if string(got) != string(want) {
		t.Errorf("FrameworkResults JSON does not match golden fixture:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
