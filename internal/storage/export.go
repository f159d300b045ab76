package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/treelights/internal/color"
)

// ExportData is a run flattened into one JSON document. Colors encode as
// "#rrggbb" strings.
type ExportData struct {
	RunMetadata
	Data [][]color.RGB `json:"data"`
}

// Export writes a run's metadata and frames as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, Data: frames})
}
