package validate

import (
	"bytes"
	"encoding/json"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/schema"
)

// ImportJSON decodes an externally supplied snapshot and validates it. The
// document's shape is checked against the CUE schema first, so type errors
// are reported as *model.ImportError before any referential check runs. A
// snapshot without movements is rejected.
func ImportJSON(data []byte) (*model.Snapshot, []Warning, error) {
	if err := schema.Check(data); err != nil {
		return nil, nil, err
	}

	var s model.Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return nil, nil, &model.ImportError{Message: "decode snapshot", Err: err}
	}
	if len(s.Movements) == 0 {
		return nil, nil, &model.ImportError{Message: "no movements found in snapshot"}
	}
	return Snapshot(&s, nil)
}
