// Package concurrency implements the bounded-parallelism driver used to run every
// operation benchmark: given a stream of work items and a concurrency level N, it keeps
// at most N items in flight, applies a per-item timeout, and collects outcomes in
// completion order. There is no fairness or weighting to do here — every item targets
// the same single server under test — so this is deliberately simpler than a multi-queue
// scheduler would be.
package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/karlmdavis/fhir-benchmarks/internal/fhirerr"
	"github.com/karlmdavis/fhir-benchmarks/internal/iteration"
)

// Item is one unit of work to be driven: it receives a context already scoped to the
// item's timeout and must return the completed iteration state.
type Item func(ctx context.Context) *iteration.State

// Outcome pairs an item's index (its position in the input stream, useful for logging)
// with its finished iteration state.
type Outcome struct {
	Index int
	State *iteration.State
}

// Config controls one run of the driver.
type Config struct {
	// Concurrency is the maximum number of items in flight at once.
	Concurrency uint32
	// Timeout bounds each individual item; on elapse the item is recorded as failed with
	// fhirerr.NewTimeoutError() and its in-flight work is abandoned.
	Timeout time.Duration
}

// Run drives every item in items to completion under the given Config, returning their
// outcomes in completion order (not submission order — spec §4.6 explicitly permits
// this since metrics do not depend on ordering). The in-flight goroutine count never
// exceeds cfg.Concurrency. There is no retry: each item gets exactly one attempt.
func Run(ctx context.Context, cfg Config, items []Item) []Outcome {
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}

	outcomes := make([]Outcome, 0, len(items))
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		sem <- struct{}{}
		wg.Add(1)

		go func(index int, work Item) {
			defer wg.Done()
			defer func() { <-sem }()

			state := runOne(ctx, cfg.Timeout, work)

			mu.Lock()
			outcomes = append(outcomes, Outcome{Index: index, State: state})
			mu.Unlock()
		}(i, item)
	}

	wg.Wait()
	return outcomes
}

// runOne executes a single item under its own timeout-scoped context. If the item does
// not return before the timeout elapses, the iteration is recorded as failed and the
// item's own context is cancelled so any in-flight HTTP request is aborted.
func runOne(parent context.Context, timeout time.Duration, item Item) *iteration.State {
	itemCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	started := iteration.Start(time.Now())
	result := make(chan *iteration.State, 1)

	go func() {
		result <- item(itemCtx)
	}()

	select {
	case state := <-result:
		return state
	case <-itemCtx.Done():
		started.Complete(time.Now(), fhirerr.NewTimeoutError())
		return started
	}
}
