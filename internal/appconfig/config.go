// Package appconfig assembles the runtime configuration for the envrc
// manager. The configuration is built once at process start from defaults,
// the environment, and an optional TOML file, and is passed explicitly to
// every component so nothing reads global state after startup.
package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/isseis/go-safe-envrc/internal/common"
)

// Environment variables consulted at startup.
const (
	// EnvConfigDir overrides the per-user configuration directory.
	EnvConfigDir = "SAFE_ENVRC_CONFIG_DIR"
)

// Default limits protecting the stores and parser from oversized inputs.
const (
	// DefaultMaxStoreSize is the maximum size of a persisted store file (1 MiB).
	DefaultMaxStoreSize = 1 << 20
	// DefaultMaxStoreEntries is the maximum number of entries in the permission store.
	DefaultMaxStoreEntries = 10000
	// DefaultMaxRCFileSize is the maximum size of a single rc file (256 KiB).
	DefaultMaxRCFileSize = 256 << 10
	// DefaultMaxExpansionDepth is the maximum nesting depth of ${VAR} references.
	DefaultMaxExpansionDepth = 10
	// DefaultRCFileName is the per-directory configuration file name.
	DefaultRCFileName = ".envrc"
)

// Persisted state file names inside the configuration directory.
const (
	permissionsFileName = "permissions.json"
	profilesFileName    = "profiles.json"
	configFileName      = "config.toml"
)

// Error definitions
var (
	// ErrHomeDirUnavailable is returned when the home directory cannot be determined.
	ErrHomeDirUnavailable = errors.New("home directory unavailable")
	// ErrInvalidConfigFile is returned when the optional config.toml cannot be parsed.
	ErrInvalidConfigFile = errors.New("invalid config file")
)

// Config holds the runtime configuration shared by all components.
type Config struct {
	// HomeDir is where the upward directory walk terminates.
	HomeDir string
	// ConfigDir holds the persisted permission and profile stores.
	ConfigDir string
	// RCFileName is the per-directory configuration file name.
	RCFileName string
	// TrustedBases are directories whose descendants are accepted without an
	// out-of-bounds warning.
	TrustedBases []string
	// WarningExemptions are path substrings exempt from the out-of-bounds
	// warning (development conveniences such as "/tmp").
	WarningExemptions []string
	// MaxStoreSize caps the size of a persisted store file before parsing.
	MaxStoreSize int64
	// MaxStoreEntries caps the number of permission store entries.
	MaxStoreEntries int
	// MaxRCFileSize caps the size of a single rc file.
	MaxRCFileSize int64
	// MaxExpansionDepth caps the nesting depth of ${VAR} references.
	MaxExpansionDepth int
}

// fileConfig is the subset of Config settable from config.toml.
type fileConfig struct {
	RCFileName        string   `toml:"rc_filename"`
	TrustedBases      []string `toml:"trusted_bases"`
	WarningExemptions []string `toml:"warning_exemptions"`
	MaxStoreEntries   int      `toml:"max_store_entries"`
}

// Load builds the configuration from defaults, the environment, and the
// optional config.toml in the configuration directory.
func Load(fs common.FileSystem) (*Config, error) {
	home, err := fs.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHomeDirUnavailable, err)
	}

	configDir := os.Getenv(EnvConfigDir)
	if configDir == "" {
		configDir = filepath.Join(home, ".config", "safe-envrc")
	}

	cfg := &Config{
		HomeDir:           home,
		ConfigDir:         configDir,
		RCFileName:        DefaultRCFileName,
		TrustedBases:      []string{home},
		WarningExemptions: []string{"/test", "/tmp"},
		MaxStoreSize:      DefaultMaxStoreSize,
		MaxStoreEntries:   DefaultMaxStoreEntries,
		MaxRCFileSize:     DefaultMaxRCFileSize,
		MaxExpansionDepth: DefaultMaxExpansionDepth,
	}

	if err := cfg.applyFile(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays settings from config.toml when the file exists.
func (c *Config) applyFile(fs common.FileSystem) error {
	path := filepath.Join(c.ConfigDir, configFileName)
	exists, err := fs.FileExists(path)
	if err != nil {
		slog.Warn("could not check for config file, using defaults",
			"path", path, "error", err)
		return nil
	}
	if !exists {
		return nil
	}

	content, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(content, &fc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfigFile, path, err)
	}

	if fc.RCFileName != "" {
		c.RCFileName = fc.RCFileName
	}
	if len(fc.TrustedBases) > 0 {
		c.TrustedBases = append(c.TrustedBases, fc.TrustedBases...)
	}
	if fc.WarningExemptions != nil {
		c.WarningExemptions = fc.WarningExemptions
	}
	if fc.MaxStoreEntries > 0 && fc.MaxStoreEntries <= DefaultMaxStoreEntries {
		c.MaxStoreEntries = fc.MaxStoreEntries
	}
	return nil
}

// PermissionsFile returns the path of the persisted permission store.
func (c *Config) PermissionsFile() string {
	return filepath.Join(c.ConfigDir, permissionsFileName)
}

// ProfilesFile returns the path of the persisted profile store.
func (c *Config) ProfilesFile() string {
	return filepath.Join(c.ConfigDir, profilesFileName)
}
