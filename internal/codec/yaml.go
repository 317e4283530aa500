package codec

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"reachgraph/internal/domain"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlSnapshot lists nodes one per entry, which reads better than the
// parallel arrays of the JSON form
type yamlSnapshot struct {
	Sequence  uint64     `yaml:"sequence"`
	Round     uint64     `yaml:"round"`
	Reason    string     `yaml:"reason,omitempty"`
	CreatedAt time.Time  `yaml:"created_at"`
	Nodes     []yamlNode `yaml:"nodes"`
	Edges     []string   `yaml:"edges"`
}

type yamlNode struct {
	Index  int               `yaml:"index"`
	Label  string            `yaml:"label"`
	X      float64           `yaml:"x"`
	Y      float64           `yaml:"y"`
	Status string            `yaml:"status"`
	Color  domain.ColorClass `yaml:"color"`
}

// ParseEndpoints reads a YAML list or a document with an endpoints key
func (c *YAMLCodec) ParseEndpoints(r io.Reader) ([]string, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return list, nil
	}

	var doc endpointList
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.Endpoints, nil
}

// Export writes the snapshot as YAML
func (c *YAMLCodec) Export(snap domain.Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		Sequence:  snap.Sequence,
		Round:     snap.Round,
		Reason:    string(snap.Reason),
		CreatedAt: snap.CreatedAt,
		Nodes:     make([]yamlNode, len(snap.Positions)),
		Edges:     make([]string, len(snap.Edges)),
	}
	for i, pos := range snap.Positions {
		ys.Nodes[i] = yamlNode{
			Index:  i,
			Label:  snap.Labels[i],
			X:      pos.X,
			Y:      pos.Y,
			Status: snap.Colors[i].String(),
			Color:  snap.Colors[i].Color(),
		}
	}
	for i, e := range snap.Edges {
		ys.Edges[i] = e.String()
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(ys); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
