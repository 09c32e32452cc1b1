package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultPort is used when no port is given on the command line or in the
// root directory's devserve.toml.
const DefaultPort = 8000

// FileName is the optional port file looked up in the root directory.
const FileName = "devserve.toml"

// ErrInvalidPort is returned for a port argument that is not an integer in
// the range 1-65535.
var ErrInvalidPort = errors.New("invalid port")

// Config holds the dev server configuration. It is fixed before the server
// starts and never mutated afterwards.
type Config struct {
	Server ServerConfig `toml:"server"`

	// Root is the absolute directory served over HTTP. It is not read from
	// the port file.
	Root string `toml:"-"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// Port returns the configured TCP port.
func (c *Config) Port() int {
	return c.Server.Port
}

// Load builds the config for root: it applies defaults, then the optional
// devserve.toml in root, then the port from args. args are the positional
// command-line arguments; a first argument is always parsed as the port,
// even when it is empty.
func Load(root string, args []string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := LoadFrom(filepath.Join(abs, FileName))
	if err != nil {
		return nil, err
	}
	cfg.Root = abs

	if len(args) > 0 {
		port, err := ParsePort(args[0])
		if err != nil {
			return nil, err
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads the port file at path, applying defaults.
// If the file doesn't exist, returns a config with defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Validate checks the port range.
func (c *Config) Validate() error {
	if !validPort(c.Server.Port) {
		return fmt.Errorf("%w: %d is out of range 1-65535", ErrInvalidPort, c.Server.Port)
	}
	return nil
}

// ParsePort parses a command-line port argument.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidPort, s)
	}
	if !validPort(port) {
		return 0, fmt.Errorf("%w: %d is out of range 1-65535", ErrInvalidPort, port)
	}
	return port, nil
}

// ProgramDir returns the directory containing the running executable, with
// symlinks resolved.
func ProgramDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
}
