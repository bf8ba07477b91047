// Package config reads and writes the engine's session configuration:
// remote repository list, mirrors, checksum policy, and local repository
// layout mode. The TOML is decoded straight into Config through go-toml's
// struct tags, with no separate raw struct, then defaults are applied.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// RepositoryConfig describes one configured remote repository.
type RepositoryConfig struct {
	ID       string `toml:"id"`
	URL      string `toml:"url"`
	Releases bool   `toml:"releases"`
	Snapshot bool   `toml:"snapshots"`
}

// MirrorConfig describes one groupId-prefix mirror rewrite.
type MirrorConfig struct {
	Prefix       string   `toml:"prefix"`
	RepositoryID string   `toml:"repositoryId"`
	Mirrored     []string `toml:"mirrorOf,omitempty"`
}

// ChecksumPolicyName is the TOML-facing spelling of connector.ChecksumPolicy.
type ChecksumPolicyName string

const (
	ChecksumPolicyFail   ChecksumPolicyName = "fail"
	ChecksumPolicyWarn   ChecksumPolicyName = "warn"
	ChecksumPolicyIgnore ChecksumPolicyName = "ignore"
)

// Config is the engine's session configuration.
type Config struct {
	LocalRepositoryPath  string             `toml:"localRepositoryPath"`
	SplitLocalRepository bool               `toml:"splitLocalRepository"`
	ChecksumPolicy       ChecksumPolicyName `toml:"checksumPolicy"`
	Repositories         []RepositoryConfig `toml:"repositories"`
	Mirrors              []MirrorConfig     `toml:"mirrors"`
}

// Default returns a Config with the engine's baseline defaults: fail-closed
// checksum policy, non-split local repository layout.
func Default() Config {
	return Config{ChecksumPolicy: ChecksumPolicyFail}
}

// Read parses a TOML config from r, applying defaults for any field TOML
// left at its zero value where the zero value wouldn't be a valid setting
// (an empty checksum policy, in particular, must not silently mean
// "ignore").
func Read(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config TOML")
	}
	if cfg.ChecksumPolicy == "" {
		cfg.ChecksumPolicy = ChecksumPolicyFail
	}
	return &cfg, nil
}

// ReadFile reads and parses the config at path.
func ReadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Write serializes cfg as TOML to w.
func Write(w io.Writer, cfg *Config) error {
	data, err := toml.Marshal(*cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	_, err = w.Write(data)
	return err
}

// WriteFile serializes cfg as TOML to path.
func WriteFile(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
