package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Talv/sc2-repdump/internal/roster"
	"github.com/Talv/sc2-repdump/schemas"
)

// RosterFile is the materialized roster the decoder supplies before
// accumulation begins. AuthorHandle identifies the map author and
// participates in bank signature digests.
type RosterFile struct {
	AuthorHandle  string          `json:"author_handle,omitempty"`
	Title         string          `json:"title,omitempty"`
	ClientVersion string          `json:"client_version,omitempty"`
	Timestamp     int64           `json:"timestamp,omitempty"`
	Players       []roster.Player `json:"players"`
}

// LoadRoster reads and validates a roster JSON file (".zst" suffix selects
// transparent decompression). Roster problems are load errors, not
// warnings: without a valid roster no event can be attributed.
func LoadRoster(path string) (RosterFile, error) {
	var rf RosterFile

	f, err := os.Open(path)
	if err != nil {
		return rf, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return rf, err
		}
		defer dec.Close()
		src = dec
	}

	b, err := io.ReadAll(src)
	if err != nil {
		return rf, err
	}

	schemaBytes, err := schemas.FS.ReadFile("roster.schema.json")
	if err != nil {
		return rf, fmt.Errorf("roster schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("roster.schema.json", strings.NewReader(string(schemaBytes))); err != nil {
		return rf, fmt.Errorf("roster schema: %w", err)
	}
	schema, err := c.Compile("roster.schema.json")
	if err != nil {
		return rf, fmt.Errorf("roster schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return rf, fmt.Errorf("roster %s: %w", path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return rf, fmt.Errorf("roster %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &rf); err != nil {
		return rf, fmt.Errorf("roster %s: %w", path, err)
	}
	return rf, nil
}
