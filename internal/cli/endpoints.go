package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"reachgraph/internal/codec"
	"reachgraph/internal/config"
	"reachgraph/internal/errors"
)

// endpointSource replaces the configured endpoint list with addresses given
// on the command line or read from a list file
type endpointSource struct {
	file string
}

func (s *endpointSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "endpoints-file", "", "read endpoints from a JSON or YAML list, - for stdin")
}

// resolve returns the endpoints to monitor and whether they replace the
// configured list. Explicit addresses win over the file.
func (s *endpointSource) resolve(cfg *config.Config, addresses []string, stdin io.Reader) ([]string, bool, error) {
	if len(addresses) > 0 {
		return addresses, true, nil
	}
	if s.file == "" {
		return cfg.Endpoints, false, nil
	}

	list, err := readEndpoints(s.file, stdin)
	if err != nil {
		return nil, false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read endpoints from "+s.file,
			"The file must hold a list of addresses or an endpoints key")
	}
	return list, true, nil
}

// readEndpoints parses an endpoint list file, picking the format from its
// extension. "-" reads YAML (or JSON) from stdin.
func readEndpoints(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return codec.ImporterFor("").ParseEndpoints(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return codec.ImporterFor(path).ParseEndpoints(f)
}
