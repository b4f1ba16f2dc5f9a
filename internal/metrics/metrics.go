package metrics

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Measurement is everything DeriveMetrics needs to turn one operation benchmark's raw
// recordings into the metrics payload the result document carries.
type Measurement struct {
	Histogram           *hdrhistogram.Histogram
	ExecutionDuration    time.Duration
	IterationsSucceeded  uint32
}

// Derived is the fully computed metrics payload for one measurement (spec §4.8, §4.9):
// throughput, percentiles, and both histogram serializations.
type Derived struct {
	ThroughputPerSecond float64
	Percentiles         Percentiles
	HistoBlob           string
	HistoGzipBase64     string
}

// Derive computes every metric spec §4.8 requires for one completed measurement.
func Derive(m Measurement) (*Derived, error) {
	blob, err := EncodeHistoBlob(m.Histogram)
	if err != nil {
		return nil, fmt.Errorf("deriving metrics: %w", err)
	}

	gzipBlob, err := EncodeHistoGzipBase64(m.Histogram)
	if err != nil {
		return nil, fmt.Errorf("deriving metrics: %w", err)
	}

	return &Derived{
		ThroughputPerSecond: Throughput(m.IterationsSucceeded, m.ExecutionDuration.Seconds()),
		Percentiles:         DerivePercentiles(m.Histogram),
		HistoBlob:           blob,
		HistoGzipBase64:     gzipBlob,
	}, nil
}
