// Package permission implements the persisted trust store consulted before
// any per-directory configuration file is loaded. Each entry records an
// explicit allow or deny decision for the canonical path of one file; absence
// of an entry means not allowed.
package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/isseis/go-safe-envrc/internal/common"
	"github.com/isseis/go-safe-envrc/internal/safefileio"
	"github.com/isseis/go-safe-envrc/internal/security"
)

// On-disk permission modes for the store and its parent directory.
const (
	storeFilePerm = 0o600
	storeDirPerm  = 0o700
)

// worldWritableBits are the group/other write bits checked for the advisory
// world-writable warning.
const worldWritableBits = 0o022

// Error definitions
var (
	// ErrStoreTooLarge is returned when the persisted store file exceeds the
	// configured size cap. This is a hard failure (DoS protection), unlike a
	// corrupt store which degrades to empty.
	ErrStoreTooLarge = errors.New("permission store file too large")

	// ErrTooManyEntries is returned when the persisted store holds more
	// entries than the configured cap.
	ErrTooManyEntries = errors.New("permission store has too many entries")
)

// Entry is one persisted trust decision.
type Entry struct {
	Allowed   bool  `json:"allowed"`
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
}

// Store is the persisted mapping from canonical file path to trust decision.
// Each CLI invocation is a fresh process, so the store is read once at
// construction and written back in full after every mutation.
type Store struct {
	filePath   string
	fs         common.FileSystem
	validator  *security.Validator
	maxSize    int64
	maxEntries int
	entries    map[string]Entry
}

// NewStore creates a store backed by filePath and loads its current contents.
// A missing file yields an empty store; a corrupt file yields an empty store
// with a warning; an oversized file or entry count is a hard error.
func NewStore(filePath string, validator *security.Validator, fs common.FileSystem, maxSize int64, maxEntries int) (*Store, error) {
	s := &Store{
		filePath:   filePath,
		fs:         fs,
		validator:  validator,
		maxSize:    maxSize,
		maxEntries: maxEntries,
		entries:    make(map[string]Entry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Allow records an allow decision for the file at path and persists the store.
func (s *Store) Allow(path string) error {
	return s.record(path, true)
}

// Deny records a deny decision for the file at path and persists the store.
func (s *Store) Deny(path string) error {
	return s.record(path, false)
}

func (s *Store) record(path string, allowed bool) error {
	resolved, err := s.validator.Validate(path)
	if err != nil {
		return err
	}

	s.entries[resolved.String()] = Entry{
		Allowed:   allowed,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.save(); err != nil {
		return err
	}

	slog.Info("permission recorded", "path", resolved.String(), "allowed", allowed)
	return nil
}

// IsAllowed reports whether the file at path has an explicit allow decision.
// A path that fails safety validation is simply not allowed, not an error,
// and a missing entry means not allowed (default deny).
func (s *Store) IsAllowed(path string) bool {
	resolved, err := s.validator.Validate(path)
	if err != nil {
		return false
	}
	entry, ok := s.entries[resolved.String()]
	return ok && entry.Allowed
}

// Lookup returns the entry for the canonical form of path, if any.
func (s *Store) Lookup(path string) (Entry, bool) {
	resolved, err := s.validator.Validate(path)
	if err != nil {
		return Entry{}, false
	}
	entry, ok := s.entries[resolved.String()]
	return entry, ok
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Prune removes entries whose target file no longer exists and reports how
// many were removed. The store is persisted only when something was removed.
func (s *Store) Prune() (int, error) {
	var removed int
	for path := range s.entries {
		exists, err := s.fs.FileExists(path)
		if err != nil {
			continue
		}
		if !exists {
			delete(s.entries, path)
			removed++
		}
	}

	if removed > 0 {
		if err := s.save(); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// load reads the persisted store. See NewStore for the failure semantics.
func (s *Store) load() error {
	exists, err := s.fs.FileExists(s.filePath)
	if err != nil || !exists {
		return nil
	}

	s.warnIfWorldWritable()

	content, err := safefileio.SafeReadFile(s.filePath, s.maxSize)
	if err != nil {
		if errors.Is(err, safefileio.ErrFileTooLarge) {
			return fmt.Errorf("%w: %s", ErrStoreTooLarge, s.filePath)
		}
		slog.Warn("permission store unreadable, treating as empty",
			"path", s.filePath, "error", err)
		return nil
	}

	var entries map[string]Entry
	if err := json.Unmarshal(content, &entries); err != nil {
		slog.Warn("permission store corrupt, treating as empty",
			"path", s.filePath, "error", err)
		return nil
	}

	if len(entries) > s.maxEntries {
		return fmt.Errorf("%w: %d entries (limit %d)", ErrTooManyEntries, len(entries), s.maxEntries)
	}
	if entries == nil {
		return nil
	}

	s.entries = entries
	return nil
}

// save persists the complete store with owner-only permissions, ensuring the
// configuration directory exists with owner-only traversal.
func (s *Store) save() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.filePath), storeDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode permission store: %w", err)
	}
	return safefileio.AtomicWriteFile(s.filePath, content, storeFilePerm)
}

func (s *Store) warnIfWorldWritable() {
	info, err := s.fs.Lstat(s.filePath)
	if err != nil {
		return
	}
	if info.Mode().Perm()&worldWritableBits != 0 {
		slog.Warn("permission store is writable by group or others",
			"path", s.filePath, "mode", fmt.Sprintf("%04o", info.Mode().Perm()))
	}
}
