package models

import (
	"encoding/json"
	"fmt"
)

// State is a schema-less document snapshot stored on audit entries.
// Its shape depends on the audited entity.
type State map[string]any

// StateOf snapshots v using its JSON field names. A nil v yields a nil State.
func StateOf(v any) (State, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %T is not an object: %w", v, err)
	}
	return s, nil
}
