package transport

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrNoEndpoint is returned when every resolution source comes up empty.
var ErrNoEndpoint = errors.New("transport: no endpoint found")

// EnvEndpoint is the environment variable consulted when no explicit
// endpoint is given.
const EnvEndpoint = "PLOTSTREAM_SOCKET"

// DiscoveryFileName is the well-known file a renderer writes into a
// temporary directory to advertise its endpoint.
const DiscoveryFileName = "plotstream-discovery.json"

// discoveryDoc is the schema of the discovery file. Only socketPath is
// required; the file may carry comments or trailing commas (it is parsed
// leniently), and unknown fields are ignored.
type discoveryDoc struct {
	SocketPath string `json:"socketPath"`
}

// configDoc is the schema of the optional per-user config file.
type configDoc struct {
	Endpoint string `yaml:"endpoint"`
}

// ResolveEndpoint finds the renderer endpoint. Resolution order:
//
//  1. the explicit argument, when non-empty
//  2. the PLOTSTREAM_SOCKET environment variable
//  3. the per-user config file (plotstream/config.yaml under the
//     user config directory)
//  4. a discovery file scan over the candidate temporary directories;
//     the first file with a well-formed endpoint wins
func ResolveEndpoint(explicit string) (Endpoint, error) {
	if explicit != "" {
		return ParseEndpoint(explicit)
	}

	if env := os.Getenv(EnvEndpoint); env != "" {
		return ParseEndpoint(env)
	}

	if ep, ok := configFileEndpoint(); ok {
		return ParseEndpoint(ep)
	}

	for _, dir := range discoveryDirs() {
		path := filepath.Join(dir, DiscoveryFileName)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var doc discoveryDoc
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			continue
		}
		if doc.SocketPath == "" {
			continue
		}
		ep, err := ParseEndpoint(doc.SocketPath)
		if err != nil || ep.supported() != nil {
			continue
		}
		return ep, nil
	}

	return Endpoint{}, ErrNoEndpoint
}

// configFileEndpoint reads the endpoint from the per-user config file.
func configFileEndpoint() (string, bool) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(base, "plotstream", "config.yaml"))
	if err != nil {
		return "", false
	}
	var doc configDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", false
	}
	return doc.Endpoint, doc.Endpoint != ""
}

// discoveryDirs returns the candidate directories for the discovery file,
// in precedence order, with duplicates removed.
func discoveryDirs() []string {
	candidates := []string{
		os.Getenv("TMPDIR"),
		os.Getenv("TMP"),
		os.Getenv("TEMP"),
		os.TempDir(),
		"/tmp",
	}
	seen := make(map[string]bool, len(candidates))
	dirs := candidates[:0]
	for _, d := range candidates {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs
}
