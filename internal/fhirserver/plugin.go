// Package fhirserver implements the Server Plugin Registry and Server Lifecycle Driver
// (spec §4.2, §4.3): the closed set of FHIR server implementations this orchestrator
// knows how to launch, probe to readiness, drive, and tear down, each via a Docker
// Compose wrapper script.
package fhirserver

import (
	"context"
	"net/http"

	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// Name uniquely identifies a server plugin. Equality is by textual value.
type Name string

// BasicAuth holds static HTTP Basic credentials used by plugins whose servers require
// authentication (spec §4.4: "one server uses fhiruser:change-password").
type BasicAuth struct {
	Username string
	Password string
}

// Plugin is a static descriptor of one supported FHIR server implementation: a name, the
// means to launch it, and any per-server request/resource customization it needs.
type Plugin interface {
	// Name returns this plugin's unique Name.
	Name() Name

	// Launch starts the server and blocks until it is ready to serve requests, or the
	// launch fails. Implementations must not load any data during launch; the server
	// must come up with an empty database.
	Launch(ctx context.Context) (Handle, error)

	// FudgeSampleResource lets a plugin sanitize a sample resource before it is
	// submitted, to work around a non-compliant server. The default, for compliant
	// servers, is the identity function. Every such hack is a documented,
	// per-server exception, not a general transformation pipeline (spec §4.2).
	FudgeSampleResource(res sampledata.SampleResource) sampledata.SampleResource
}

// Handle represents a live, running instance of a Plugin's server.
type Handle interface {
	// Plugin returns the Plugin that produced this Handle.
	Plugin() Plugin

	// BaseURL returns the base URL for the running server. Always ends in "/".
	BaseURL() string

	// Client returns the pooled *http.Client to use for every request to this server.
	// The same client is reused across the handle's whole lifetime so that connection
	// pooling is effective.
	Client() *http.Client

	// NewRequest builds an *http.Request against this server with any plugin-specific
	// customization (e.g. Basic auth headers) already applied.
	NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error)

	// EmitLogs returns the full captured log output from the server and its
	// dependencies, via the control script's `logs --no-color` subcommand.
	EmitLogs() (string, error)

	// EmitLogsInfo logs the full captured log content at info level, for failure paths.
	EmitLogsInfo()

	// ExpungeAllContent returns the server to an empty-database state, as if it had
	// just been launched.
	ExpungeAllContent(ctx context.Context) error

	// Shutdown tears down the server. Idempotence is not required.
	Shutdown() error
}
