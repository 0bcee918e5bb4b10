// Package cli implements the safe-envrc command-line interface. Commands are
// thin glue over the core stores and loader; all policy lives in the internal
// packages they call into.
package cli

import (
	"io"
	"os"

	"github.com/isseis/go-safe-envrc/internal/appconfig"
	"github.com/isseis/go-safe-envrc/internal/common"
	"github.com/isseis/go-safe-envrc/internal/loader"
	"github.com/isseis/go-safe-envrc/internal/permission"
	"github.com/isseis/go-safe-envrc/internal/profile"
	"github.com/isseis/go-safe-envrc/internal/security"
)

// App bundles the configured core components used by the commands.
type App struct {
	Config    *appconfig.Config
	FS        common.FileSystem
	Validator *security.Validator
	Perms     *permission.Store
	Profiles  *profile.Store
	Loader    *loader.Loader

	Stdout io.Writer
}

// NewApp builds the application from the runtime configuration, loading the
// persisted stores.
func NewApp(cfg *appconfig.Config, fs common.FileSystem) (*App, error) {
	validator := security.NewValidator(cfg.TrustedBases, cfg.WarningExemptions)

	perms, err := permission.NewStore(cfg.PermissionsFile(), validator, fs, cfg.MaxStoreSize, cfg.MaxStoreEntries)
	if err != nil {
		return nil, err
	}
	profiles, err := profile.NewStore(cfg.ProfilesFile(), validator, fs, cfg.MaxStoreSize)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		FS:        fs,
		Validator: validator,
		Perms:     perms,
		Profiles:  profiles,
		Loader:    loader.New(cfg, validator, perms, profiles, fs),
		Stdout:    os.Stdout,
	}, nil
}

// dirArg returns the positional directory argument at index, falling back to
// the current working directory when absent.
func dirArg(args []string, index int) (string, error) {
	if len(args) > index {
		return args[index], nil
	}
	return os.Getwd()
}
