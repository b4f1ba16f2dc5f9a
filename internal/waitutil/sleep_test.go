package waitutil

import (
	"context"
	"testing"
	"time"
)

func TestSleepWithContext(t *testing.T) {
	tests := []struct {
		name        string
		duration    time.Duration
		cancelAfter time.Duration // 0 means never cancel
		wantResult  bool
	}{
		{
			name:       "completes without cancellation",
			duration:   10 * time.Millisecond,
			wantResult: true,
		},
		{
			name:        "interrupted by cancellation",
			duration:    time.Second,
			cancelAfter: 5 * time.Millisecond,
			wantResult:  false,
		},
		{
			name:        "already cancelled context returns immediately",
			duration:    time.Second,
			cancelAfter: -1,
			wantResult:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if tt.cancelAfter < 0 {
				cancel()
			} else if tt.cancelAfter > 0 {
				go func() {
					time.Sleep(tt.cancelAfter)
					cancel()
				}()
			}

			start := time.Now()
			got := SleepWithContext(ctx, tt.duration)
			elapsed := time.Since(start)

			if got != tt.wantResult {
				t.Errorf("SleepWithContext() = %v, want %v", got, tt.wantResult)
			}
			if !tt.wantResult && elapsed >= tt.duration {
				t.Errorf("SleepWithContext() took %v, expected early return before %v", elapsed, tt.duration)
			}
		})
	}
}

func TestSleepWithContextNilContext(t *testing.T) {
	start := time.Now()
	got := SleepWithContext(nil, 10*time.Millisecond)
	if !got {
		t.Error("SleepWithContext(nil, ...) should always return true")
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("SleepWithContext(nil, ...) returned before the duration elapsed")
	}
}
