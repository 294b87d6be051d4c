package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/moveng/internal/model"
)

// marshalBody converts a snapshot's collections to canonical JSON TEXT.
// Meta is stored in columns, not in the body.
func marshalBody(s *model.Snapshot) (string, error) {
	content := *s
	content.Meta = nil
	data, err := model.MarshalCanonical(&content)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), nil
}

// unmarshalBody parses a stored body back into a normalized snapshot.
func unmarshalBody(data string) (*model.Snapshot, error) {
	var s model.Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	return s.Normalize(), nil
}

