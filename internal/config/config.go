// Package config provides the noisekdf command configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/panda-coder/go-noise-kdf/hashfunc"
)

const (
	defaultHash     = "SHA256"
	defaultOutputs  = 2
	defaultLogLevel = "info"
)

// ErrInvalidOutputs is returned when the output count is not 2 or 3.
var ErrInvalidOutputs = errors.New("config: Outputs must be 2 or 3")

// Config is the noisekdf configuration.
type Config struct {
	// Hash is the Noise hash function name, eg: "SHA256" or "BLAKE2s".
	Hash string

	// Outputs is the number of HKDF outputs, 2 or 3.
	Outputs int

	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Hash:     defaultHash,
		Outputs:  defaultOutputs,
		LogLevel: defaultLogLevel,
	}
}

// FixupAndValidate applies defaults to config entries and validates the
// configuration.
func (c *Config) FixupAndValidate() error {
	if c.Hash == "" {
		c.Hash = defaultHash
	}
	if c.Outputs == 0 {
		c.Outputs = defaultOutputs
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if hashfunc.FromString(c.Hash) == nil {
		return fmt.Errorf("config: unknown Hash %q", c.Hash)
	}
	if c.Outputs != 2 && c.Outputs != 3 {
		return fmt.Errorf("%w, got %d", ErrInvalidOutputs, c.Outputs)
	}
	return nil
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)

	err := toml.Unmarshal(b, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
