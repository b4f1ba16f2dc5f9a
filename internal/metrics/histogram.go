// Package metrics implements the HDR-histogram-based latency/throughput aggregator
// (spec §4.8): one histogram per measurement, derived percentiles, and the two
// histogram serializations that accompany every ServerOperationMetrics.
package metrics

import (
	"github.com/HdrHistogram/hdrhistogram-go"
)

// Precision settings shared by every histogram this orchestrator records: milliseconds,
// 3 significant digits, covering 1ms to 1 hour (spec §4.8 — histograms are never
// mergeable across measurements, so a generous fixed range avoids ever needing resize).
const (
	histogramMinMillis        = 1
	histogramMaxMillis        = 60 * 60 * 1000
	histogramSignificantDigit = 3
)

// NewHistogram constructs a fresh, empty latency histogram for one measurement.
func NewHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(histogramMinMillis, histogramMaxMillis, histogramSignificantDigit)
}

// RecordMillis records one successful iteration's latency, in milliseconds. Values
// outside the histogram's trackable range are clamped rather than dropped, so that a
// single pathological outlier never loses the rest of the measurement.
func RecordMillis(h *hdrhistogram.Histogram, millis int64) {
	if millis < histogramMinMillis {
		millis = histogramMinMillis
	}
	if millis > histogramMaxMillis {
		millis = histogramMaxMillis
	}
	_ = h.RecordValue(millis)
}

// Percentiles holds the percentile/derived-statistic summary for one measurement.
type Percentiles struct {
	Mean float64
	P50  int64
	P90  int64
	P99  int64
	P999 int64
	P100 int64
}

// DerivePercentiles extracts the percentile summary spec §4.8 requires from h.
func DerivePercentiles(h *hdrhistogram.Histogram) Percentiles {
	return Percentiles{
		Mean: h.Mean(),
		P50:  h.ValueAtQuantile(50),
		P90:  h.ValueAtQuantile(90),
		P99:  h.ValueAtQuantile(99),
		P999: h.ValueAtQuantile(99.9),
		P100: h.ValueAtQuantile(100),
	}
}

// Throughput computes iterations-succeeded-per-second given the measurement's execution
// window. Returns 0 if the window is non-positive (e.g. every iteration failed instantly).
func Throughput(iterationsSucceeded uint32, executionSeconds float64) float64 {
	if executionSeconds <= 0 {
		return 0
	}
	return float64(iterationsSucceeded) / executionSeconds
}
