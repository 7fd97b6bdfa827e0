package report

import (
	"encoding/json"
	"io"

	"boxmeta/domain/run"

	"gopkg.in/yaml.v3"
)

// YAMLRenderer writes the report as YAML with the same keys as the JSON form
type YAMLRenderer struct{}

// NewYAMLRenderer creates a YAML renderer
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

func (r *YAMLRenderer) Format() string      { return "yaml" }
func (r *YAMLRenderer) ContentType() string { return "application/yaml" }

// Render writes the report. The JSON encoding is parsed into a node tree so
// key order and json tags carry over unchanged.
func (r *YAMLRenderer) Render(w io.Writer, report *run.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow style inherited from JSON
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
