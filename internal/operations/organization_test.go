package operations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/karlmdavis/fhir-benchmarks/internal/config"
	"github.com/karlmdavis/fhir-benchmarks/internal/metrics"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

func writeHospitalsBundle(t *testing.T, dir string, orgCount int) string {
	t.Helper()
	var entries string
	for i := 0; i < orgCount; i++ {
		if i > 0 {
			entries += ","
		}
		entries += `{"resource":{"resourceType":"Organization","id":"org-` + string(rune('a'+i)) + `"}}`
	}
	path := filepath.Join(dir, "hospitalInformation1.json")
	content := `{"resourceType":"Bundle","entry":[` + entries + `]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing hospitals bundle: %v", err)
	}
	return path
}

// TestOrganizationBenchmarkGroupingMath matches spec §8 scenario 4: iterations=25 over
// 10 available samples groups into exactly 3 groups (10, 10, 5), each preceded by an
// expunge, summing to 25 attempted iterations.
func TestOrganizationBenchmarkGroupingMath(t *testing.T) {
	dir := t.TempDir()
	hospitals := writeHospitalsBundle(t, dir, 10)
	practitioners := filepath.Join(dir, "practitionerInformation1.json")
	if err := os.WriteFile(practitioners, []byte(`{"resourceType":"Bundle","entry":[]}`), 0o644); err != nil {
		t.Fatalf("writing practitioners bundle: %v", err)
	}
	data := &sampledata.SampleData{Hospitals: hospitals, Practitioners: practitioners}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	handle := &fakeHandle{plugin: &fakePlugin{name: "fake"}, client: server.Client(), baseURL: server.URL + "/"}
	cfg := &config.AppConfig{Iterations: 25, OperationTimeout: 1_000_000_000, ConcurrencyLevels: []uint32{1}}

	b := &OrganizationBenchmark{}
	log := b.Run(context.Background(), handle, data, cfg)

	if handle.expungeCalls != 3 {
		t.Errorf("expungeCalls = %d, want 3", handle.expungeCalls)
	}

	if len(log.Measurements) != 1 {
		t.Fatalf("got %d measurements, want 1", len(log.Measurements))
	}
	m := log.Measurements[0]
	hist, err := metrics.DecodeHistoBlob(m.Metrics.LatencyHistogram)
	if err != nil {
		t.Fatalf("DecodeHistoBlob() error = %v", err)
	}

	accounted := m.IterationsFailed + m.IterationsSkipped + uint32(hist.TotalCount())
	if accounted != cfg.Iterations {
		t.Errorf("iterations accounted for = %d, want %d", accounted, cfg.Iterations)
	}
	if m.IterationsSkipped != 0 {
		t.Errorf("IterationsSkipped = %d, want 0 (no expunge failure)", m.IterationsSkipped)
	}
}

func TestOrganizationBenchmarkExpungeFailureSkipsRemainder(t *testing.T) {
	dir := t.TempDir()
	hospitals := writeHospitalsBundle(t, dir, 5)
	practitioners := filepath.Join(dir, "practitionerInformation1.json")
	if err := os.WriteFile(practitioners, []byte(`{"resourceType":"Bundle","entry":[]}`), 0o644); err != nil {
		t.Fatalf("writing practitioners bundle: %v", err)
	}
	data := &sampledata.SampleData{Hospitals: hospitals, Practitioners: practitioners}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	handle := &fakeHandle{
		plugin:     &fakePlugin{name: "fake"},
		client:     server.Client(),
		baseURL:    server.URL + "/",
		expungeErr: errExpungeBoom,
	}
	cfg := &config.AppConfig{Iterations: 10, OperationTimeout: 1_000_000_000, ConcurrencyLevels: []uint32{1}}

	b := &OrganizationBenchmark{}
	log := b.Run(context.Background(), handle, data, cfg)

	m := log.Measurements[0]
	if m.IterationsSkipped != 10 {
		t.Errorf("IterationsSkipped = %d, want 10", m.IterationsSkipped)
	}
	if handle.expungeCalls != 1 {
		t.Errorf("expungeCalls = %d, want 1", handle.expungeCalls)
	}
}

type expungeBoomError struct{}

func (expungeBoomError) Error() string { return "expunge boom" }

var errExpungeBoom = expungeBoomError{}
