// Package iteration implements the typed state progression used to track one attempt at
// a benchmarked operation, from start through completion to a final success/failure
// classification.
package iteration

import "time"

// State is the terminal record of one iteration's attempt: its start/end timestamps and
// whatever error, if any, it failed with. Once Complete is called, the timestamps are
// final regardless of how the outcome is later classified — duration measurement and
// success/failure classification are deliberately separate concerns (spec §4.5).
type State struct {
	Started   time.Time
	Completed time.Time
	Err       error
}

// Start begins a new iteration attempt, recording the current time as its start.
func Start(now time.Time) *State {
	return &State{Started: now}
}

// Complete finalizes the iteration's timestamps and outcome. err is nil for success.
func (s *State) Complete(now time.Time, err error) {
	s.Completed = now
	s.Err = err
}

// Succeeded reports whether this iteration completed without error. Calling this before
// Complete returns false, since Completed will be the zero time and Err nil.
func (s *State) Succeeded() bool {
	return !s.Completed.IsZero() && s.Err == nil
}

// Duration returns the elapsed time between Started and Completed. It is only meaningful
// once Complete has been called.
func (s *State) Duration() time.Duration {
	return s.Completed.Sub(s.Started)
}
