package pgdb

import (
	"encoding/json"
	"fmt"
)

// Structured sub-documents (history, breakdown, milestones, team,
// negotiations, spec) live in jsonb columns; these helpers are the only
// (de)serialization points for them.

func marshalColumn(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb column: %w", err)
	}

	return b, nil
}

func unmarshalColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal jsonb column: %w", err)
	}

	return nil
}
