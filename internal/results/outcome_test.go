package results

import (
	"encoding/json"
	"testing"
)

func TestOperationResultMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		r    OperationResult
		want string
	}{
		{name: "ok", r: Ok(), want: `{"Ok":[]}`},
		{name: "single error", r: Errs("boom"), want: `{"Errs":["boom"]}`},
		{name: "multiple errors", r: Errs("a", "b"), want: `{"Errs":["a","b"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.r)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOperationResultRoundTrip(t *testing.T) {
	for _, original := range []OperationResult{Ok(), Errs("one"), Errs("one", "two")} {
		encoded, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var decoded OperationResult
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", encoded, err)
		}

		if decoded.IsOk() != original.IsOk() || len(decoded.Errs) != len(original.Errs) {
			t.Errorf("round trip of %+v produced %+v", original, decoded)
		}
	}
}
