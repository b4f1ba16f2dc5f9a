package fhirserver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/karlmdavis/fhir-benchmarks/internal/fhirerr"
	"github.com/karlmdavis/fhir-benchmarks/internal/httpclient"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
	"github.com/karlmdavis/fhir-benchmarks/internal/waitutil"
)

// readinessPollInterval is the fixed sleep between readiness probes (spec §4.3).
const readinessPollInterval = 500 * time.Millisecond

// expungeStrategy selects how a DockerComposePlugin returns its server to an empty
// database: either a native endpoint, or a full shutdown+relaunch.
type expungeStrategy int

const (
	// expungeViaEndpoint POSTs to ExpungeEndpoint and expects a 2xx response.
	expungeViaEndpoint expungeStrategy = iota
	// expungeViaRelaunch shuts the server down and launches it again from scratch.
	expungeViaRelaunch
)

// DockerComposePlugin represents one FHIR server implementation that is launched and
// managed via a per-server Docker Compose wrapper script (spec §4.2, §4.3).
type DockerComposePlugin struct {
	name             Name
	controlScript    string
	controlScriptDir string
	baseURL          string
	readyTimeout     time.Duration
	auth             *BasicAuth
	expunge          expungeStrategy
	expungeEndpoint  string
	fudge            func(sampledata.SampleResource) sampledata.SampleResource
}

// DockerComposePluginConfig is the constructor input for DockerComposePlugin.
type DockerComposePluginConfig struct {
	Name             Name
	ControlScript    string
	ControlScriptDir string
	BaseURL          string
	ReadyTimeout     time.Duration
	Auth             *BasicAuth
	ExpungeEndpoint  string // empty means "expunge via relaunch"
	Fudge            func(sampledata.SampleResource) sampledata.SampleResource
}

// NewDockerComposePlugin constructs a DockerComposePlugin from its configuration.
func NewDockerComposePlugin(cfg DockerComposePluginConfig) *DockerComposePlugin {
	strategy := expungeViaRelaunch
	if cfg.ExpungeEndpoint != "" {
		strategy = expungeViaEndpoint
	}

	readyTimeout := cfg.ReadyTimeout
	if readyTimeout == 0 {
		readyTimeout = 5 * time.Minute
	}

	fudge := cfg.Fudge
	if fudge == nil {
		fudge = func(r sampledata.SampleResource) sampledata.SampleResource { return r }
	}

	return &DockerComposePlugin{
		name:             cfg.Name,
		controlScript:    cfg.ControlScript,
		controlScriptDir: cfg.ControlScriptDir,
		baseURL:          cfg.BaseURL,
		readyTimeout:     readyTimeout,
		auth:             cfg.Auth,
		expunge:          strategy,
		expungeEndpoint:  cfg.ExpungeEndpoint,
		fudge:            fudge,
	}
}

func (p *DockerComposePlugin) Name() Name { return p.name }

func (p *DockerComposePlugin) FudgeSampleResource(res sampledata.SampleResource) sampledata.SampleResource {
	return p.fudge(res)
}

func (p *DockerComposePlugin) Launch(ctx context.Context) (Handle, error) {
	if _, err := p.runControlScript(ctx, "up", "--detach"); err != nil {
		return nil, fmt.Errorf("launching %q: %w", p.name, err)
	}

	handle := &dockerComposeHandle{
		plugin:     p,
		httpClient: httpclient.GetPool().GetClient(string(p.name)),
	}

	if err := p.waitForReady(ctx, handle); err != nil {
		handle.EmitLogsInfo()
		return nil, err
	}

	return handle, nil
}

// waitForReady polls GET <base>/metadata every 500ms until it succeeds or the plugin's
// readiness deadline elapses (spec §4.3).
func (p *DockerComposePlugin) waitForReady(ctx context.Context, handle *dockerComposeHandle) error {
	deadline := time.Now().Add(p.readyTimeout)

	for {
		ready, err := probeMetadata(ctx, handle)
		if ready {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for server %q to become ready: %w", p.name, err)
		}

		if !waitutil.SleepWithContext(ctx, readinessPollInterval) {
			return fmt.Errorf("readiness wait for server %q cancelled: %w", p.name, ctx.Err())
		}
	}
}

func probeMetadata(ctx context.Context, handle *dockerComposeHandle) (bool, error) {
	req, err := handle.NewRequest(ctx, http.MethodGet, "metadata", nil)
	if err != nil {
		return false, err
	}

	resp, err := handle.Client().Do(req)
	if err != nil {
		return false, err
	}
	defer httpclient.DrainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return true, nil
}

// runControlScript runs the plugin's control script with the given subcommand/args,
// returning a *fhirerr.ChildProcessFailure on non-zero exit.
func (p *DockerComposePlugin) runControlScript(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.controlScript, args...)
	cmd.Dir = p.controlScriptDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.WithFields(log.Fields{"server": p.name, "command": strings.Join(args, " ")}).Info("running control script")

	err := cmd.Run()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &fhirerr.ChildProcessFailure{
			ServerName: string(p.name),
			Command:    strings.Join(args, " "),
			ExitCode:   exitCode,
			Message:    "control script failed",
			Stdout:     stdout.String(),
			Stderr:     stderr.String(),
		}
	}

	return stdout.Bytes(), nil
}

// dockerComposeHandle is a running instance of a DockerComposePlugin's server.
type dockerComposeHandle struct {
	plugin     *DockerComposePlugin
	httpClient *http.Client
}

func (h *dockerComposeHandle) Plugin() Plugin { return h.plugin }

func (h *dockerComposeHandle) BaseURL() string { return h.plugin.baseURL }

func (h *dockerComposeHandle) Client() *http.Client { return h.httpClient }

func (h *dockerComposeHandle) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	url := strings.TrimSuffix(h.plugin.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, httpclient.NewPooledRequestBody(body))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, http.NoBody)
	}
	if err != nil {
		return nil, fmt.Errorf("building request for %q: %w", url, err)
	}

	if h.plugin.auth != nil {
		req.SetBasicAuth(h.plugin.auth.Username, h.plugin.auth.Password)
	}

	return req, nil
}

func (h *dockerComposeHandle) EmitLogs() (string, error) {
	output, err := h.plugin.runControlScript(context.Background(), "logs", "--no-color")
	if err != nil {
		return "", err
	}
	return string(output), nil
}

func (h *dockerComposeHandle) EmitLogsInfo() {
	logs, err := h.EmitLogs()
	if err != nil {
		log.WithError(err).WithField("server", h.plugin.name).Warn("unable to capture server logs")
		return
	}
	log.WithField("server", h.plugin.name).Infof("full docker-compose logs:\n%s", logs)
}

func (h *dockerComposeHandle) ExpungeAllContent(ctx context.Context) error {
	switch h.plugin.expunge {
	case expungeViaEndpoint:
		req, err := h.NewRequest(ctx, http.MethodPost, h.plugin.expungeEndpoint, nil)
		if err != nil {
			return err
		}
		resp, err := h.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("expunge request failed: %w", err)
		}
		defer httpclient.DrainAndClose(resp)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("expunge returned status %d", resp.StatusCode)
		}
		return nil
	case expungeViaRelaunch:
		if err := h.Shutdown(); err != nil {
			return err
		}
		relaunched, err := h.plugin.Launch(ctx)
		if err != nil {
			return err
		}
		*h = *(relaunched.(*dockerComposeHandle))
		return nil
	default:
		return fmt.Errorf("unknown expunge strategy for %q", h.plugin.name)
	}
}

func (h *dockerComposeHandle) Shutdown() error {
	_, err := h.plugin.runControlScript(context.Background(), "down")
	return err
}
