package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"reachgraph/internal/domain"
	"reachgraph/internal/layout"
)

func testSnapshot() domain.Snapshot {
	nodes := []domain.Node{domain.NewNode("8.8.8.8"), domain.NewNode("8.8.4.4")}
	layout.Apply(nodes, 5)
	nodes[0].Status = domain.StatusConnected
	nodes[1].Status = domain.StatusDisconnected
	snap := domain.NewSnapshot(nodes)
	snap.Sequence = 4
	snap.Round = 2
	snap.Reason = domain.ReasonRound
	return snap
}

func TestForFormat(t *testing.T) {
	for _, name := range []string{"json", "yaml", "YML", " table "} {
		t.Run(name, func(t *testing.T) {
			e, err := ForFormat(name)
			require.NoError(t, err)
			assert.NotEmpty(t, e.Format())
		})
	}

	_, err := ForFormat("xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(testSnapshot(), &buf))

	var got struct {
		Sequence     uint64            `json:"sequence"`
		Labels       []string          `json:"labels"`
		Colors       []string          `json:"colors"`
		ColorClasses []string          `json:"color_classes"`
		Edges        []domain.Edge     `json:"edges"`
		Positions    []domain.Position `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, uint64(4), got.Sequence)
	assert.Equal(t, []string{"", "8.8.8.8", "8.8.4.4"}, got.Labels)
	assert.Equal(t, []string{"unknown", "connected", "disconnected"}, got.Colors)
	assert.Equal(t, []string{"orange", "green", "red"}, got.ColorClasses)
	assert.Equal(t, []domain.Edge{{From: 0, To: 1}, {From: 0, To: 2}}, got.Edges)
	assert.InDelta(t, -5, got.Positions[2].X, 1e-9)
}

func TestYAMLExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(testSnapshot(), &buf))

	var got yamlSnapshot
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	require.Len(t, got.Nodes, 3)
	assert.Equal(t, "8.8.8.8", got.Nodes[1].Label)
	assert.Equal(t, "connected", got.Nodes[1].Status)
	assert.Equal(t, domain.ColorRed, got.Nodes[2].Color)
	assert.Equal(t, []string{"0-1", "0-2"}, got.Edges)
	assert.Equal(t, "round", got.Reason)
}

func TestTableExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableCodec().Export(testSnapshot(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "INDEX"))
	assert.Contains(t, lines[1], "(hub)")
	assert.Contains(t, lines[2], "8.8.8.8")
	assert.Contains(t, lines[2], "5.00")
	assert.Contains(t, lines[2], "connected")
	assert.Contains(t, lines[3], "-5.00")
}

func TestParseEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		input    string
		want     []string
	}{
		{"json list", "hosts.json", `["8.8.8.8", "1.1.1.1"]`, []string{"8.8.8.8", "1.1.1.1"}},
		{"json object", "hosts.json", `{"endpoints": ["8.8.8.8"]}`, []string{"8.8.8.8"}},
		{"yaml list", "hosts.yaml", "- 8.8.8.8\n- example.com\n", []string{"8.8.8.8", "example.com"}},
		{"yaml object", "hosts.yml", "endpoints:\n  - 8.8.4.4\n", []string{"8.8.4.4"}},
		{"empty yaml", "hosts.yaml", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImporterFor(tt.filename).ParseEndpoints(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		_, err := NewJSONCodec().ParseEndpoints(strings.NewReader(`{"endpoints": 3}`))
		assert.Error(t, err)
	})
}
