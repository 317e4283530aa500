// Package codec exports snapshots and imports endpoint lists.
package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"reachgraph/internal/domain"
)

// Importer reads an endpoint list
type Importer interface {
	ParseEndpoints(r io.Reader) ([]string, error)
	Format() string
}

// Exporter writes a snapshot
type Exporter interface {
	Export(snap domain.Snapshot, w io.Writer) error
	Format() string
}

var exporters = map[string]Exporter{
	"json":  NewJSONCodec(),
	"yaml":  NewYAMLCodec(),
	"yml":   NewYAMLCodec(),
	"table": NewTableCodec(),
}

// Formats lists the names accepted by ForFormat
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the exporter for name
func ForFormat(name string) (Exporter, error) {
	e, ok := exporters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return e, nil
}

// ImporterFor picks an importer from a file name extension. Anything that
// is not .json is read as YAML, which also accepts JSON.
func ImporterFor(filename string) Importer {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		return NewJSONCodec()
	}
	return NewYAMLCodec()
}

// endpointList accepts either a bare list or an object with an endpoints key
type endpointList struct {
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
}
