package fhirserver

import (
	"path/filepath"
	"time"

	"github.com/tidwall/sjson"

	"github.com/karlmdavis/fhir-benchmarks/internal/config"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// Registry returns the fixed, closed set of server plugins available to the
// orchestrator (spec §4.2). The registry is a static composition in code; it is not
// data-driven at runtime.
func Registry(benchmarkDir string) []Plugin {
	return []Plugin{
		newHapiJPAPlugin(benchmarkDir),
		newFirelySparkPlugin(benchmarkDir),
		newIBMFHIRPlugin(benchmarkDir),
	}
}

// FindByName does a linear search over the registry for a plugin with the given name,
// matching spec §4.2's "name lookup is linear over the small list."
func FindByName(registry []Plugin, name Name) Plugin {
	for _, p := range registry {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func newHapiJPAPlugin(benchmarkDir string) Plugin {
	slug := "hapi-fhir-jpaserver"
	return NewDockerComposePlugin(DockerComposePluginConfig{
		Name:             Name("hapi-fhir-jpaserver"),
		ControlScript:    filepath.Join(config.ServerBuildsDir(benchmarkDir, slug), "fhir-server.sh"),
		ControlScriptDir: config.ServerBuildsDir(benchmarkDir, slug),
		BaseURL:          "http://localhost:8080/hapi-fhir-jpaserver/",
		ReadyTimeout:     5 * time.Minute,
		Auth:             &BasicAuth{Username: "fhiruser", Password: "change-password"},
		ExpungeEndpoint:  "$expunge?expungeEverything=true",
	})
}

func newFirelySparkPlugin(benchmarkDir string) Plugin {
	slug := "firely-spark"
	return NewDockerComposePlugin(DockerComposePluginConfig{
		Name:             Name("firely-spark"),
		ControlScript:    filepath.Join(config.ServerBuildsDir(benchmarkDir, slug), "fhir-server.sh"),
		ControlScriptDir: config.ServerBuildsDir(benchmarkDir, slug),
		BaseURL:          "http://localhost:5555/",
		ReadyTimeout:     2 * time.Minute,
		// Spark has no documented bulk-expunge endpoint in this benchmark harness;
		// fall back to shutdown+relaunch (ExpungeEndpoint left empty).
	})
}

func newIBMFHIRPlugin(benchmarkDir string) Plugin {
	slug := "ibm-fhir-server"
	return NewDockerComposePlugin(DockerComposePluginConfig{
		Name:             Name("ibm-fhir-server"),
		ControlScript:    filepath.Join(config.ServerBuildsDir(benchmarkDir, slug), "fhir-server.sh"),
		ControlScriptDir: config.ServerBuildsDir(benchmarkDir, slug),
		BaseURL:          "https://localhost:9443/fhir-server/api/v4/",
		ReadyTimeout:     5 * time.Minute,
		Auth:             &BasicAuth{Username: "fhiruser", Password: "change-password"},
		ExpungeEndpoint:  "$expunge?expungeEverything=true",
		Fudge:            fudgeStripID,
	})
}

// fudgeStripID removes the client-supplied "id" field from a sample resource. IBM FHIR
// Server rejects a create (POST) request that includes one, so this per-server exception
// strips it before submission (spec §4.2, §11 server-plugin notes).
func fudgeStripID(res sampledata.SampleResource) sampledata.SampleResource {
	stripped, err := sjson.DeleteBytes(res.ResourceJSON, "id")
	if err != nil {
		return res
	}
	res.ResourceJSON = stripped
	return res
}
