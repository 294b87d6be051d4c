package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/moveng/internal/compiler"
	"github.com/roach88/moveng/internal/model"
)

// Export writes every record of s below dir in the movements/<id>/...
// layout and returns the written paths, relative to dir, in collection
// order. Assembling dir again yields the same records. A record whose id
// would place it outside dir fails with compiler.ErrUnsafePath.
func Export(s *model.Snapshot, dir string) ([]string, error) {
	var written []string
	for _, c := range model.Collections {
		for _, r := range s.Records(c) {
			rel, err := compiler.RecordPath(r)
			if err != nil {
				return written, fmt.Errorf("export: %w", err)
			}
			data, err := compiler.Render(r)
			if err != nil {
				return written, err
			}
			full := filepath.Join(dir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return written, fmt.Errorf("export %s: %w", rel, err)
			}
			if err := os.WriteFile(full, data, 0o644); err != nil {
				return written, fmt.Errorf("export %s: %w", rel, err)
			}
			written = append(written, rel)
		}
	}
	return written, nil
}

// ExportMovement writes only the records scoped to movementID.
func ExportMovement(s *model.Snapshot, movementID, dir string) ([]string, error) {
	if _, ok := s.Find(model.Movements, movementID); !ok {
		return nil, fmt.Errorf("unknown movement %q", movementID)
	}
	return Export(s.ForMovement(movementID), dir)
}
