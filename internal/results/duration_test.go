package results

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "one second plus change", d: time.Second + 234*time.Nanosecond, want: `"PT1.234S"`},
		{name: "zero", d: 0, want: `"PT0.0S"`},
		{name: "sub-second", d: 500 * time.Millisecond, want: `"PT0.500000000S"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDuration(tt.d).MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	durations := []time.Duration{
		0,
		time.Second + 234*time.Nanosecond,
		10 * time.Millisecond,
		90 * time.Minute,
	}

	for _, d := range durations {
		original := NewDuration(d)

		encoded, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", d, err)
		}

		var decoded Duration
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", encoded, err)
		}

		if decoded.Std() != d {
			t.Errorf("round trip of %v produced %v (via %s)", d, decoded.Std(), encoded)
		}
	}
}

func TestDurationUnmarshalRejectsMalformed(t *testing.T) {
	bad := []string{`"PT1S"`, `"1.234"`, `"PT1.234"`, `"PTx.0S"`}
	for _, s := range bad {
		var d Duration
		if err := json.Unmarshal([]byte(s), &d); err == nil {
			t.Errorf("Unmarshal(%s) expected error, got nil", s)
		}
	}
}

func TestMillisDurationMarshalJSON(t *testing.T) {
	got, err := NewMillisDuration(10 * time.Second).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(got) != "10000" {
		t.Errorf("MarshalJSON() = %s, want 10000", got)
	}
}

func TestMillisDurationRoundTrip(t *testing.T) {
	original := NewMillisDuration(10000 * time.Millisecond)

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded MillisDuration
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", encoded, err)
	}

	if decoded.Std() != original.Std() {
		t.Errorf("round trip produced %v, want %v", decoded.Std(), original.Std())
	}
}
