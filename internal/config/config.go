// Package config loads the optional s2repdump.yaml tool configuration.
// Flags override whatever the file sets; a missing file means defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// OutDir is the root for rebuilt bank files: <out>/<handle>/<bank><ext>.
	OutDir string `yaml:"out_dir"`
	// Extension appended to rebuilt bank filenames.
	Extension string `yaml:"extension"`
	// Compact drops pretty-printing (indent + CRLF) from rendered banks.
	Compact bool `yaml:"compact"`

	Signature SignatureConfig `yaml:"signature"`

	// CatalogPath enables the SQLite reconstruction catalog when non-empty.
	CatalogPath string `yaml:"catalog_path,omitempty"`
}

type SignatureConfig struct {
	// Algorithm selects the signer strategy. Only "sha1" is known to match
	// the client; "none" omits signatures.
	Algorithm string `yaml:"algorithm"`
	// Verify compares recomputed signatures against the ones the client
	// recorded in the stream, warning on mismatch.
	Verify bool `yaml:"verify"`
	// AuthorHandle overrides the map author handle from the roster file.
	AuthorHandle string `yaml:"author_handle,omitempty"`
}

func Defaults() Config {
	return Config{
		OutDir:    "./out",
		Extension: ".SC2Bank",
		Signature: SignatureConfig{Algorithm: "sha1"},
	}
}

// Load reads path into a Config over defaults. An empty path returns the
// defaults as-is.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("s2repdump.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("s2repdump.yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.OutDir) == "" {
		c.OutDir = "./out"
	}
	if strings.TrimSpace(c.Extension) == "" {
		c.Extension = ".SC2Bank"
	}
	if strings.TrimSpace(c.Signature.Algorithm) == "" {
		c.Signature.Algorithm = "sha1"
	}
}

func (c Config) Validate() error {
	switch c.Signature.Algorithm {
	case "sha1", "none":
	default:
		return fmt.Errorf("unknown signature algorithm %q", c.Signature.Algorithm)
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension %q must start with a dot", c.Extension)
	}
	return nil
}
