package report

import (
	"encoding/json"
	"io"

	"boxmeta/domain/run"
)

// JSONRenderer writes the report as indented JSON. Field names are stable
// and not localized.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSON renderer
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Format() string      { return "json" }
func (r *JSONRenderer) ContentType() string { return "application/json" }

// Render writes the report
func (r *JSONRenderer) Render(w io.Writer, report *run.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
