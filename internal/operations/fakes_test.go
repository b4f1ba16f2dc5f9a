package operations

import (
	"context"
	"net/http"
	"strings"

	"github.com/karlmdavis/fhir-benchmarks/internal/fhirserver"
	"github.com/karlmdavis/fhir-benchmarks/internal/sampledata"
)

// fakePlugin and fakeHandle are in-process test doubles driving the operation
// benchmarks against a net/http/httptest server, testing against a real (if local)
// listener rather than mocking the transport.
type fakePlugin struct {
	name  fhirserver.Name
	fudge func(sampledata.SampleResource) sampledata.SampleResource
}

func (p *fakePlugin) Name() fhirserver.Name { return p.name }

func (p *fakePlugin) Launch(ctx context.Context) (fhirserver.Handle, error) {
	return nil, nil
}

func (p *fakePlugin) FudgeSampleResource(res sampledata.SampleResource) sampledata.SampleResource {
	if p.fudge != nil {
		return p.fudge(res)
	}
	return res
}

type fakeHandle struct {
	plugin       fhirserver.Plugin
	client       *http.Client
	baseURL      string
	expungeErr   error
	expungeCalls int
}

func (h *fakeHandle) Plugin() fhirserver.Plugin { return h.plugin }
func (h *fakeHandle) BaseURL() string           { return h.baseURL }
func (h *fakeHandle) Client() *http.Client      { return h.client }

func (h *fakeHandle) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	url := strings.TrimSuffix(h.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	var reader *strings.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	} else {
		reader = strings.NewReader("")
	}
	return http.NewRequestWithContext(ctx, method, url, reader)
}

func (h *fakeHandle) EmitLogs() (string, error) { return "", nil }
func (h *fakeHandle) EmitLogsInfo()             {}

func (h *fakeHandle) ExpungeAllContent(ctx context.Context) error {
	h.expungeCalls++
	return h.expungeErr
}

func (h *fakeHandle) Shutdown() error { return nil }
