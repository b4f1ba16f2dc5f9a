// Package sampledata exposes the generated synthetic FHIR bundle files as typed,
// deduplicated, lazily-read streams of sample resources, per spec §4.1. It also owns the
// "is the existing data set reusable, or does it need regenerating" decision, since that
// decision and the file-classification discovery contract are tightly coupled.
package sampledata

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SampleData is the classified set of generated FHIR bundle files.
type SampleData struct {
	// Hospitals is the single Bundle file containing every Organization resource.
	Hospitals string
	// Practitioners is the single Bundle file containing every Practitioner resource.
	Practitioners string
	// Patients is zero or more per-patient Bundle files.
	Patients []string
}

// generatorConfig is the sentinel written alongside generated data, used to decide
// whether an existing data set can be reused for a given population size.
type generatorConfig struct {
	PopulationSize uint32 `json:"population_size"`
}

// EnsureGenerated returns the SampleData for the given population size, regenerating it
// via the external synthetic-data generator script if no matching data set already
// exists on disk. dataDir is expected to be config.SyntheticDataDir(benchmarkDir);
// generatorScript is the path to synthetic-data/generate-synthetic-data.sh.
func EnsureGenerated(generatorScript, generatorWorkDir, dataDir string, populationSize uint32) (*SampleData, error) {
	wanted := generatorConfig{PopulationSize: populationSize}
	configPath := filepath.Join(dataDir, "config.json")

	if existing, ok := readGeneratorConfig(configPath); ok && existing == wanted {
		log.WithField("population_size", populationSize).Debug("reusing existing sample data set")
		return FindSampleData(dataDir)
	}

	log.WithField("population_size", populationSize).Info("sample data: generating...")

	if err := os.RemoveAll(dataDir); err != nil {
		return nil, fmt.Errorf("unable to clear stale sample data directory %q: %w", dataDir, err)
	}

	cmd := exec.Command(generatorScript, "-p", fmt.Sprintf("%d", populationSize))
	cmd.Dir = generatorWorkDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("synthetic data generator failed: %w\noutput:\n%s", err, output)
	}

	log.Info("sample data: generated.")

	if err := writeGeneratorConfig(configPath, wanted); err != nil {
		return nil, err
	}

	return FindSampleData(dataDir)
}

func readGeneratorConfig(path string) (generatorConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return generatorConfig{}, false
	}

	var cfg generatorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return generatorConfig{}, false
	}
	return cfg, true
}

func writeGeneratorConfig(path string, cfg generatorConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to marshal sample data config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write sample data config file %q: %w", path, err)
	}
	return nil
}

// FindSampleData classifies the files in dataDir by filename prefix, per spec §4.1:
// exactly one `hospitalInformation*` file, exactly one `practitionerInformation*` file,
// `config.json` ignored, everything else treated as a patient bundle.
func FindSampleData(dataDir string) (*SampleData, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read sample data directory %q: %w", dataDir, err)
	}

	var hospitals, practitioners string
	var patients []string

	for _, entry := range entries {
		name := entry.Name()
		switch {
		case name == "config.json":
			continue
		case strings.HasPrefix(name, "hospitalInformation"):
			if hospitals != "" {
				return nil, fmt.Errorf("multiple hospitalInformation files found in %q", dataDir)
			}
			hospitals = filepath.Join(dataDir, name)
		case strings.HasPrefix(name, "practitionerInformation"):
			if practitioners != "" {
				return nil, fmt.Errorf("multiple practitionerInformation files found in %q", dataDir)
			}
			practitioners = filepath.Join(dataDir, name)
		default:
			patients = append(patients, filepath.Join(dataDir, name))
		}
	}

	if hospitals == "" {
		return nil, fmt.Errorf("no hospitalInformation file found in %q", dataDir)
	}
	if practitioners == "" {
		return nil, fmt.Errorf("no practitionerInformation file found in %q", dataDir)
	}

	sort.Strings(patients)
	return &SampleData{Hospitals: hospitals, Practitioners: practitioners, Patients: patients}, nil
}
