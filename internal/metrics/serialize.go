package metrics

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/klauspost/compress/gzip"
)

// histoBlobEncodingVersion is passed to Histogram.Encode, which takes the encoding
// version cookie (not a compression level); the V2 compressed format is the one the
// library supports.
const histoBlobEncodingVersion = hdrhistogram.V2CompressedEncodingCookieBase

// EncodeHistoBlob serializes h into the compact binary blob (base64'd for embedding in
// JSON) stored alongside every measurement's derived percentiles, so that a later tool
// can recompute percentiles the orchestrator itself didn't emit (spec §4.8, §4.9). This
// uses the histogram library's own V2 compressed encoding rather than a JSON dump of its
// snapshot, so the blob stays small even for histograms with a wide significant-figures
// range.
func EncodeHistoBlob(h *hdrhistogram.Histogram) (string, error) {
	raw, err := h.Encode(histoBlobEncodingVersion)
	if err != nil {
		return "", fmt.Errorf("encoding histogram: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeHistoBlob is the inverse of EncodeHistoBlob.
func DecodeHistoBlob(blob string) (*hdrhistogram.Histogram, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding histogram blob: %w", err)
	}

	h, err := hdrhistogram.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding histogram: %w", err)
	}
	return h, nil
}

// percentileTicksPerHalfDistance matches the convention used by HDR Histogram's own
// percentile-distribution printer: each halving of the remaining distance to the 100th
// percentile gets this many evenly spaced ticks.
const percentileTicksPerHalfDistance = 5

// percentileLadder returns the percentile values to print, converging toward 100 by
// repeatedly halving the remaining distance and taking percentileTicksPerHalfDistance
// ticks across each half, the same resolution-doubling HDR Histogram uses so that low
// percentiles print coarsely and the tail prints with increasing precision.
func percentileLadder() []float64 {
	var ladder []float64
	remaining := 100.0
	percentile := 0.0
	for i := 0; i < 40 && remaining > 1e-9; i++ {
		tick := remaining / float64(percentileTicksPerHalfDistance) / 2.0
		for j := 0; j < percentileTicksPerHalfDistance; j++ {
			percentile += tick
			ladder = append(ladder, percentile)
		}
		remaining /= 2.0
	}
	ladder = append(ladder, 100.0)
	return ladder
}

// percentileDistributionText renders h as a human-readable percentile distribution table,
// in the style of HDR Histogram's own output: value, percentile, running count, and the
// inverse of the tail probability, five decimal places throughout.
func percentileDistributionText(h *hdrhistogram.Histogram) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%12s %14s %10s %14s\n\n", "Value", "Percentile", "TotalCount", "1/(1-Percentile)")

	total := h.TotalCount()
	bars := h.Distribution()
	for _, percentile := range percentileLadder() {
		value := h.ValueAtQuantile(percentile)
		var running int64
		for _, bar := range bars {
			if bar.From <= value {
				running += bar.Count
			}
		}
		fraction := percentile / 100.0
		inverse := "inf"
		if fraction < 1.0 {
			inverse = fmt.Sprintf("%14.5f", 1.0/(1.0-fraction))
		}
		fmt.Fprintf(&buf, "%12.5f %14.5f %10d %s\n", float64(value), fraction*100.0, running, inverse)
	}

	snapshot := h.Export()
	fmt.Fprintf(&buf, "#[Mean       = %12.5f, StdDeviation   = %12.5f]\n", h.Mean(), h.StdDev())
	fmt.Fprintf(&buf, "#[Max        = %12d, Total count    = %12d]\n", h.Max(), total)
	fmt.Fprintf(&buf, "#[Buckets    = %12d, SignificantDigits = %9d]\n", len(snapshot.Counts), snapshot.SignificantFigures)

	return buf.String()
}

// EncodeHistoGzipBase64 renders h's percentile distribution as text, gzips it, and
// base64-encodes the result (spec §4.9's "hgrm" export). This mirrors the `.hgrm` export
// tooling ships alongside HDR Histogram bindings, compressed for inline embedding in JSON.
func EncodeHistoGzipBase64(h *hdrhistogram.Histogram) (string, error) {
	text := percentileDistributionText(h)

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("gzipping percentile distribution: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("closing gzip writer: %w", err)
	}

	return base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}
