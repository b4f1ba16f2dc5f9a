package results

import "encoding/json"

// OperationResult is the externally-tagged success/failure enum spec §9 requires:
// `{"Ok": []}` on success, or `{"Errs": [messages]}` on failure. A zero-value
// OperationResult (no Errs) marshals as Ok.
type OperationResult struct {
	Errs []string
}

// Ok returns a successful OperationResult.
func Ok() OperationResult { return OperationResult{} }

// Errs returns a failed OperationResult carrying the given messages.
func Errs(messages ...string) OperationResult { return OperationResult{Errs: messages} }

// IsOk reports whether this result represents success.
func (r OperationResult) IsOk() bool { return len(r.Errs) == 0 }

func (r OperationResult) MarshalJSON() ([]byte, error) {
	if r.IsOk() {
		return []byte(`{"Ok":[]}`), nil
	}
	return json.Marshal(struct {
		Errs []string `json:"Errs"`
	}{r.Errs})
}

func (r *OperationResult) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if raw, ok := tagged["Errs"]; ok {
		return json.Unmarshal(raw, &r.Errs)
	}
	r.Errs = nil
	return nil
}
