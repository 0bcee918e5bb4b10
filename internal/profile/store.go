// Package profile implements per-directory profile assignments. A profile is
// a named alternate configuration overlay: when a directory has an active
// profile, the loader merges "<rcfile>.<profile>" on top of the base file.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/isseis/go-safe-envrc/internal/common"
	"github.com/isseis/go-safe-envrc/internal/safefileio"
	"github.com/isseis/go-safe-envrc/internal/security"
)

const (
	storeFilePerm = 0o600
	storeDirPerm  = 0o700

	// MaxNameLength is the maximum length of a profile name.
	MaxNameLength = 64
)

// namePattern matches valid profile names.
var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Error definitions
var (
	// ErrInvalidProfileName is returned when a profile name does not match
	// the allowed pattern or exceeds the length cap.
	ErrInvalidProfileName = errors.New("invalid profile name")
)

// ValidateName checks a profile name against the allowed pattern and length cap.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidProfileName, name, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return nil
}

// Store is the persisted mapping from canonical directory path to active
// profile name.
type Store struct {
	filePath    string
	fs          common.FileSystem
	validator   *security.Validator
	maxSize     int64
	assignments map[string]string
}

// NewStore creates a store backed by filePath and loads its current contents.
// A missing or corrupt file yields an empty store (with a warning when
// corrupt); an oversized file is a hard error.
func NewStore(filePath string, validator *security.Validator, fs common.FileSystem, maxSize int64) (*Store, error) {
	s := &Store{
		filePath:    filePath,
		fs:          fs,
		validator:   validator,
		maxSize:     maxSize,
		assignments: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetActive records name as the active profile for dir and persists the store.
func (s *Store) SetActive(dir, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	resolved, err := s.validator.Validate(dir)
	if err != nil {
		return err
	}

	s.assignments[resolved.String()] = name
	if err := s.save(); err != nil {
		return err
	}

	slog.Info("profile activated", "directory", resolved.String(), "profile", name)
	return nil
}

// Active returns the active profile name for dir, if one is assigned.
func (s *Store) Active(dir string) (string, bool) {
	resolved, err := s.validator.Validate(dir)
	if err != nil {
		return "", false
	}
	name, ok := s.assignments[resolved.String()]
	return name, ok
}

// ClearActive removes the profile assignment for dir, if any.
func (s *Store) ClearActive(dir string) error {
	resolved, err := s.validator.Validate(dir)
	if err != nil {
		return err
	}
	if _, ok := s.assignments[resolved.String()]; !ok {
		return nil
	}
	delete(s.assignments, resolved.String())
	return s.save()
}

func (s *Store) load() error {
	exists, err := s.fs.FileExists(s.filePath)
	if err != nil || !exists {
		return nil
	}

	if info, err := s.fs.Lstat(s.filePath); err == nil && info.Mode().Perm()&0o022 != 0 {
		slog.Warn("profile store is writable by group or others",
			"path", s.filePath, "mode", fmt.Sprintf("%04o", info.Mode().Perm()))
	}

	content, err := safefileio.SafeReadFile(s.filePath, s.maxSize)
	if err != nil {
		if errors.Is(err, safefileio.ErrFileTooLarge) {
			return err
		}
		slog.Warn("profile store unreadable, treating as empty",
			"path", s.filePath, "error", err)
		return nil
	}

	var assignments map[string]string
	if err := json.Unmarshal(content, &assignments); err != nil {
		slog.Warn("profile store corrupt, treating as empty",
			"path", s.filePath, "error", err)
		return nil
	}
	if assignments == nil {
		return nil
	}

	s.assignments = assignments
	return nil
}

func (s *Store) save() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.filePath), storeDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := json.MarshalIndent(s.assignments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile store: %w", err)
	}
	return safefileio.AtomicWriteFile(s.filePath, content, storeFilePerm)
}
