// Package loader walks the directory chain from a starting directory up to
// the home directory, loading each level's permission-gated configuration
// file and profile overlay, and merges the results so that variables defined
// nearer to the start directory override those defined further out.
package loader

import (
	"log/slog"
	"path/filepath"

	"github.com/isseis/go-safe-envrc/internal/appconfig"
	"github.com/isseis/go-safe-envrc/internal/common"
	"github.com/isseis/go-safe-envrc/internal/envfile"
	"github.com/isseis/go-safe-envrc/internal/permission"
	"github.com/isseis/go-safe-envrc/internal/profile"
	"github.com/isseis/go-safe-envrc/internal/safefileio"
	"github.com/isseis/go-safe-envrc/internal/security"
)

// SkipReason explains why a file contributed no variables. Per-file failures
// never abort a chain walk; the skip is recorded and the walk continues.
type SkipReason string

const (
	// SkipMissing means the file does not exist.
	SkipMissing SkipReason = "missing"
	// SkipNotAllowed means the file has no allow decision in the permission store.
	SkipNotAllowed SkipReason = "not_allowed"
	// SkipUnreadable means the file exists but could not be read.
	SkipUnreadable SkipReason = "unreadable"
	// SkipParseFailed means the file could not be parsed (including
	// interpolation cycles and depth overruns).
	SkipParseFailed SkipReason = "parse_failed"
)

// FileLoad is the outcome of loading one configuration file. Making the skip
// explicit keeps the "ignore and continue" policy a visible decision in the
// merge step instead of a swallowed exception.
type FileLoad struct {
	Path    string
	Vars    map[string]string
	Skipped bool
	Reason  SkipReason
	Err     error
}

// Loader merges per-directory configuration subject to permission checks.
type Loader struct {
	cfg       *appconfig.Config
	fs        common.FileSystem
	validator *security.Validator
	perms     *permission.Store
	profiles  *profile.Store
	parser    *envfile.Parser
}

// New creates a loader using the given stores and validator.
func New(cfg *appconfig.Config, validator *security.Validator, perms *permission.Store, profiles *profile.Store, fs common.FileSystem) *Loader {
	return &Loader{
		cfg:       cfg,
		fs:        fs,
		validator: validator,
		perms:     perms,
		profiles:  profiles,
		parser:    envfile.NewParser(cfg.MaxExpansionDepth),
	}
}

// LoadUpward builds the directory chain from startDir to the home directory
// (or the filesystem root, whichever is reached first) and merges each
// level's variables from the outermost directory inward, so a variable
// defined nearer to startDir always wins. Per-directory failures contribute
// no variables and never abort the walk.
func (l *Loader) LoadUpward(startDir string) (map[string]string, error) {
	chain, err := l.buildChain(startDir)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string)
	// chain is ordered innermost first; merge outermost first so inner
	// definitions overwrite outer ones.
	for i := len(chain) - 1; i >= 0; i-- {
		for _, load := range l.loadDirectory(chain[i]) {
			l.apply(merged, load)
		}
	}
	return merged, nil
}

// LoadSingle loads exactly one directory's configuration (base file plus
// profile overlay) with no ancestor walk. Used for command execution where
// the caller's ancestry must not leak into the target environment.
func (l *Loader) LoadSingle(dir string) (map[string]string, error) {
	resolved, err := l.validator.Validate(dir)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string)
	for _, load := range l.loadDirectory(resolved.String()) {
		l.apply(merged, load)
	}
	return merged, nil
}

// apply merges one file's outcome into the accumulated mapping.
func (l *Loader) apply(merged map[string]string, load FileLoad) {
	if load.Skipped {
		if load.Reason != SkipMissing {
			slog.Debug("configuration file skipped",
				"path", load.Path, "reason", string(load.Reason), "error", load.Err)
		}
		return
	}
	for name, value := range load.Vars {
		merged[name] = value
	}
}

// loadDirectory loads the base file and, when a profile is active for the
// directory, the profile overlay. The overlay is returned after the base so
// profile values win within the directory. Each file is permission-checked
// independently.
func (l *Loader) loadDirectory(dir string) []FileLoad {
	basePath := filepath.Join(dir, l.cfg.RCFileName)
	loads := []FileLoad{l.loadFile(basePath)}

	if name, ok := l.profiles.Active(dir); ok {
		loads = append(loads, l.loadFile(basePath+"."+name))
	}
	return loads
}

// loadFile loads and parses a single configuration file, subject to the
// permission check. All failures degrade to an explicit skip.
func (l *Loader) loadFile(path string) FileLoad {
	exists, err := l.fs.FileExists(path)
	if err != nil || !exists {
		return FileLoad{Path: path, Skipped: true, Reason: SkipMissing, Err: err}
	}

	if !l.perms.IsAllowed(path) {
		return FileLoad{Path: path, Skipped: true, Reason: SkipNotAllowed}
	}

	content, err := l.readFile(path)
	if err != nil {
		return FileLoad{Path: path, Skipped: true, Reason: SkipUnreadable, Err: err}
	}

	vars, err := l.parser.Parse(string(content))
	if err != nil {
		slog.Warn("configuration file failed to parse",
			"path", path, "error", err)
		return FileLoad{Path: path, Skipped: true, Reason: SkipParseFailed, Err: err}
	}

	return FileLoad{Path: path, Vars: vars}
}

// readFile reads the canonical form of path with the rc file size cap.
func (l *Loader) readFile(path string) ([]byte, error) {
	resolved, err := l.validator.Canonicalize(path)
	if err != nil {
		return nil, err
	}
	return safefileio.SafeReadFile(resolved.String(), l.cfg.MaxRCFileSize)
}
