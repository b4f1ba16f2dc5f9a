// Package fhirerr provides FHIR-response error classification and the structured errors
// that the server lifecycle driver returns when a control script fails.
package fhirerr

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// OperationOutcome holds the diagnostic fields extracted from a FHIR OperationOutcome
// JSON body, when a non-2xx response happens to carry one. This is best-effort and
// diagnostic only: it is never used to reclassify a response's success/failure, which is
// determined purely by HTTP status code.
type OperationOutcome struct {
	// Severity is the first issue's severity (e.g. "error", "fatal").
	Severity string
	// Code is the first issue's FHIR issue-type code (e.g. "invalid", "processing").
	Code string
	// Diagnostics concatenates every issue's diagnostics text, one per line.
	Diagnostics string
}

// ParseOperationOutcome extracts diagnostic detail from a response body that may or may
// not be a FHIR OperationOutcome resource. Returns nil if the body isn't one.
func ParseOperationOutcome(body []byte) *OperationOutcome {
	if gjson.GetBytes(body, "resourceType").String() != "OperationOutcome" {
		return nil
	}

	issues := gjson.GetBytes(body, "issue")
	if !issues.IsArray() {
		return nil
	}

	outcome := &OperationOutcome{}
	var diagnostics []string
	issues.ForEach(func(_, issue gjson.Result) bool {
		if outcome.Severity == "" {
			outcome.Severity = issue.Get("severity").String()
			outcome.Code = issue.Get("code").String()
		}
		if d := issue.Get("diagnostics").String(); d != "" {
			diagnostics = append(diagnostics, d)
		}
		return true
	})

	for i, d := range diagnostics {
		if i > 0 {
			outcome.Diagnostics += "\n"
		}
		outcome.Diagnostics += d
	}

	return outcome
}

// OperationError describes why a single benchmarked operation (one iteration) failed:
// a non-2xx response, a transport-level error, or a timeout.
type OperationError struct {
	// StatusCode is 0 for transport errors/timeouts, otherwise the HTTP response status.
	StatusCode int
	// Message is a short human-readable description.
	Message string
	// Outcome carries the parsed OperationOutcome, if the response body was one.
	Outcome *OperationOutcome
}

func (e *OperationError) Error() string {
	if e.Outcome != nil && e.Outcome.Diagnostics != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.StatusCode, e.Outcome.Diagnostics)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// NewOperationError builds an OperationError from a non-2xx response, parsing any
// OperationOutcome present in the body for diagnostic context.
func NewOperationError(statusCode int, body []byte) *OperationError {
	return &OperationError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("unexpected status code %d", statusCode),
		Outcome:    ParseOperationOutcome(body),
	}
}

// NewTransportError builds an OperationError for a transport-level failure (connection
// refused, DNS failure, etc.) that never produced an HTTP response.
func NewTransportError(err error) *OperationError {
	return &OperationError{Message: fmt.Sprintf("transport error: %v", err)}
}

// NewTimeoutError builds an OperationError for an iteration that exceeded its timeout.
func NewTimeoutError() *OperationError {
	return &OperationError{Message: "operation timed out"}
}
