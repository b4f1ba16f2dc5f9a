// Package results implements the FrameworkResults data model (spec §3, §4.9): the JSON
// document this orchestrator prints to stdout once a run completes, including its two
// non-standard scalar encodings (ISO-8601-flavored durations, and a millisecond-integer
// exception for the configured operation timeout).
package results

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration wraps time.Duration with the ISO-8601-flavored JSON encoding spec §9 requires:
// `"PT{seconds}.{nanoseconds}S"`, where the nanosecond component is the raw remainder (not
// zero-padded to nine digits), and decoding accepts anything matching a permissive
// `PT\d+\.\d+S` pattern rather than full ISO-8601 duration grammar.
type Duration time.Duration

var durationPattern = regexp.MustCompile(`^PT(\d+)\.(\d+)S$`)

// NewDuration converts a standard library Duration into the wire type.
func NewDuration(d time.Duration) Duration { return Duration(d) }

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	std := time.Duration(d)
	seconds := int64(std / time.Second)
	nanos := int64(std % time.Second)
	if nanos < 0 {
		nanos = -nanos
	}
	return []byte(fmt.Sprintf(`"PT%d.%dS"`, seconds, nanos)), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("duration %q does not match PT<seconds>.<nanoseconds>S", s)
	}

	seconds, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parsing duration seconds: %w", err)
	}
	nanos, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parsing duration nanoseconds: %w", err)
	}

	*d = Duration(time.Duration(seconds)*time.Second + time.Duration(nanos)*time.Nanosecond)
	return nil
}

// MillisDuration is the one exception to the Duration encoding above: the configured
// operation timeout is serialized as a plain integer count of milliseconds (spec §9).
type MillisDuration time.Duration

// NewMillisDuration converts a standard library Duration into the wire type.
func NewMillisDuration(d time.Duration) MillisDuration { return MillisDuration(d) }

// Std returns the underlying time.Duration.
func (d MillisDuration) Std() time.Duration { return time.Duration(d) }

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	millis := int64(time.Duration(d) / time.Millisecond)
	return []byte(strconv.FormatInt(millis, 10)), nil
}

func (d *MillisDuration) UnmarshalJSON(data []byte) error {
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing operation_timeout milliseconds: %w", err)
	}
	*d = MillisDuration(time.Duration(millis) * time.Millisecond)
	return nil
}
