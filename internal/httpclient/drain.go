package httpclient

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// DrainAndClose drains and closes an HTTP response body so the underlying connection
// can be returned to the pool. Every benchmarked request must call this, win or lose
// (spec §4.7.1: "the body is always drained to release the connection").
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		log.WithError(err).Debug("failed to drain response body")
	}

	if err := resp.Body.Close(); err != nil {
		log.WithError(err).Debug("failed to close response body")
	}
}

// ReadAndClose drains the full response body into memory (for error-detail inspection)
// and closes it. Returns whatever bytes were read even if Close subsequently errors.
func ReadAndClose(resp *http.Response) []byte {
	if resp == nil || resp.Body == nil {
		return nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Debug("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Debug("failed to read response body")
	}
	return body
}
