package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karlmdavis/fhir-benchmarks/internal/iteration"
)

func TestRunAllSucceed(t *testing.T) {
	items := make([]Item, 20)
	for i := range items {
		items[i] = func(ctx context.Context) *iteration.State {
			s := iteration.Start(time.Now())
			s.Complete(time.Now(), nil)
			return s
		}
	}

	outcomes := Run(context.Background(), Config{Concurrency: 4, Timeout: time.Second}, items)

	if len(outcomes) != len(items) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(items))
	}
	for _, o := range outcomes {
		if !o.State.Succeeded() {
			t.Errorf("outcome %d: expected success", o.Index)
		}
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	const concurrency = 3
	var inFlight int32
	var maxObserved int32
	var mu sync.Mutex

	items := make([]Item, 30)
	for i := range items {
		items[i] = func(ctx context.Context) *iteration.State {
			cur := atomic.AddInt32(&inFlight, 1)
			mu.Lock()
			if cur > maxObserved {
				maxObserved = cur
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)

			s := iteration.Start(time.Now())
			s.Complete(time.Now(), nil)
			return s
		}
	}

	Run(context.Background(), Config{Concurrency: concurrency, Timeout: time.Second}, items)

	if maxObserved > concurrency {
		t.Errorf("observed %d items in flight, want at most %d", maxObserved, concurrency)
	}
}

func TestRunTimeoutFailsIteration(t *testing.T) {
	items := []Item{
		func(ctx context.Context) *iteration.State {
			<-ctx.Done()
			s := iteration.Start(time.Now())
			s.Complete(time.Now(), ctx.Err())
			return s
		},
	}

	outcomes := Run(context.Background(), Config{Concurrency: 1, Timeout: 10 * time.Millisecond}, items)

	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].State.Succeeded() {
		t.Error("expected timed-out iteration to be recorded as failed")
	}
	if outcomes[0].State.Err == nil {
		t.Error("expected a timeout error to be recorded")
	}
}

func TestRunZeroConcurrencyDefaultsToOne(t *testing.T) {
	items := []Item{
		func(ctx context.Context) *iteration.State {
			s := iteration.Start(time.Now())
			s.Complete(time.Now(), nil)
			return s
		},
	}

	outcomes := Run(context.Background(), Config{Concurrency: 0, Timeout: time.Second}, items)
	if len(outcomes) != 1 || !outcomes[0].State.Succeeded() {
		t.Errorf("expected one successful outcome, got %+v", outcomes)
	}
}
