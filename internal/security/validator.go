// Package security provides path-safety validation for the envrc manager.
// It canonicalizes user-supplied paths, rejects path-traversal attempts, and
// warns when a path lies outside the configured trusted base directories.
package security

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/isseis/go-safe-envrc/internal/common"
)

// Error definitions
var (
	// ErrPathTraversal is returned when a path contains a ".." segment.
	// This is always a hard failure, never downgraded to a warning.
	ErrPathTraversal = errors.New("path contains traversal segment")
)

// Validator validates filesystem paths against a set of trusted base
// directories. Validation is advisory except for the traversal check: paths
// outside every trusted base produce a warning, not an error.
type Validator struct {
	trustedBases []string
	exemptions   []string
}

// NewValidator creates a new path validator. trustedBases are the directories
// whose descendants are accepted silently; exemptions are path substrings
// exempt from the out-of-bounds warning.
func NewValidator(trustedBases, exemptions []string) *Validator {
	return &Validator{
		trustedBases: trustedBases,
		exemptions:   exemptions,
	}
}

// Canonicalize resolves a path to its stable identity form used as the key
// for permission and profile lookups. Resolution prefers full symlink
// resolution, then symlink resolution of the parent directory with the
// basename appended (for files that do not exist yet), then lexical
// resolution. A ".." segment anywhere in the raw input is rejected before any
// resolution takes place.
func (v *Validator) Canonicalize(path string) (common.ResolvedPath, error) {
	if path == "" {
		return "", common.ErrEmptyPath
	}
	if common.ContainsPathTraversalSegment(path) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s: %w", path, err)
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return common.NewResolvedPath(resolved)
	}

	// Target absent: resolve the parent and append the basename so a file
	// that is about to be created still gets a stable key.
	if parent, err := filepath.EvalSymlinks(filepath.Dir(absPath)); err == nil {
		return common.NewResolvedPath(filepath.Join(parent, filepath.Base(absPath)))
	}

	return common.NewResolvedPath(filepath.Clean(absPath))
}

// Validate canonicalizes the path and warns when the result lies outside
// every trusted base directory. The warning is advisory; only the traversal
// check fails hard.
func (v *Validator) Validate(path string) (common.ResolvedPath, error) {
	resolved, err := v.Canonicalize(path)
	if err != nil {
		return "", err
	}

	if !v.isWithinTrustedBase(resolved.String()) && !v.isExempt(resolved.String()) {
		slog.Warn("path outside trusted directories",
			"path", resolved.String(),
			"trusted_bases", v.trustedBases)
	}

	return resolved, nil
}

// isWithinTrustedBase reports whether the path equals or descends from any
// trusted base, with trailing slashes normalized.
func (v *Validator) isWithinTrustedBase(path string) bool {
	for _, base := range v.trustedBases {
		base = strings.TrimRight(base, string(filepath.Separator))
		if base == "" {
			continue
		}
		if path == base || strings.HasPrefix(path, base+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isExempt reports whether the path is exempt from the out-of-bounds warning:
// it contains a configured exemption substring, or any of its segments is a
// dot-directory (development checkouts under hidden directories).
func (v *Validator) isExempt(path string) bool {
	for _, sub := range v.exemptions {
		if strings.Contains(path, sub) {
			return true
		}
	}
	for _, segment := range strings.Split(path, string(filepath.Separator)) {
		if len(segment) > 1 && segment[0] == '.' {
			return true
		}
	}
	return false
}
