package metrics

import (
	"testing"
	"time"
)

func TestHistogramRoundTrip(t *testing.T) {
	h := NewHistogram()
	for _, v := range []int64{1, 5, 10, 100, 1000} {
		RecordMillis(h, v)
	}

	blob, err := EncodeHistoBlob(h)
	if err != nil {
		t.Fatalf("EncodeHistoBlob() error = %v", err)
	}

	decoded, err := DecodeHistoBlob(blob)
	if err != nil {
		t.Fatalf("DecodeHistoBlob() error = %v", err)
	}

	if decoded.TotalCount() != h.TotalCount() {
		t.Errorf("TotalCount() = %d, want %d", decoded.TotalCount(), h.TotalCount())
	}
	if decoded.ValueAtQuantile(50) != h.ValueAtQuantile(50) {
		t.Errorf("ValueAtQuantile(50) = %d, want %d", decoded.ValueAtQuantile(50), h.ValueAtQuantile(50))
	}
	if decoded.Max() != h.Max() {
		t.Errorf("Max() = %d, want %d", decoded.Max(), h.Max())
	}
}

func TestEncodeHistoGzipBase64Decodes(t *testing.T) {
	h := NewHistogram()
	RecordMillis(h, 42)

	encoded, err := EncodeHistoGzipBase64(h)
	if err != nil {
		t.Fatalf("EncodeHistoGzipBase64() error = %v", err)
	}
	if encoded == "" {
		t.Fatal("EncodeHistoGzipBase64() returned empty string")
	}
}

// TestDeriveUniformSamples matches spec §8 scenario 6: five 1ms samples over a one
// second execution window derive to throughput=5, mean=1, and every percentile=1.
func TestDeriveUniformSamples(t *testing.T) {
	h := NewHistogram()
	for i := 0; i < 5; i++ {
		RecordMillis(h, 1)
	}

	derived, err := Derive(Measurement{
		Histogram:           h,
		ExecutionDuration:   time.Second,
		IterationsSucceeded: 5,
	})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if derived.ThroughputPerSecond != 5.0 {
		t.Errorf("ThroughputPerSecond = %v, want 5.0", derived.ThroughputPerSecond)
	}
	if derived.Percentiles.Mean != 1.0 {
		t.Errorf("Mean = %v, want 1.0", derived.Percentiles.Mean)
	}
	for name, got := range map[string]int64{
		"P50": derived.Percentiles.P50, "P90": derived.Percentiles.P90,
		"P99": derived.Percentiles.P99, "P999": derived.Percentiles.P999,
		"P100": derived.Percentiles.P100,
	} {
		if got != 1 {
			t.Errorf("%s = %d, want 1", name, got)
		}
	}
}

func TestThroughputZeroWindow(t *testing.T) {
	if got := Throughput(5, 0); got != 0 {
		t.Errorf("Throughput() = %v, want 0", got)
	}
	if got := Throughput(5, -1); got != 0 {
		t.Errorf("Throughput() = %v, want 0", got)
	}
}
