// Package common provides shared interfaces and utilities used across the
// envrc manager packages.
//
//nolint:revive // var-naming: package name "common" is intentional for shared internal utilities
package common

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Error definitions for static error handling
var (
	ErrEmptyPath = errors.New("path cannot be empty")
)

// FileSystem defines the interface for file system operations.
// This interface allows for easy mocking in tests and provides a consistent API
// for file operations across all packages.
type FileSystem interface {
	// Lstat returns file information without following symlinks
	Lstat(path string) (fs.FileInfo, error)

	// FileExists checks if a file or directory exists
	FileExists(path string) (bool, error)

	// ReadFile reads the entire contents of a file
	ReadFile(path string) ([]byte, error)

	// MkdirAll creates a directory and all necessary parents with the specified permissions
	MkdirAll(path string, perm os.FileMode) error

	// UserHomeDir returns the current user's home directory
	UserHomeDir() (string, error)
}

// DefaultFileSystem implements FileSystem using standard os package functions
type DefaultFileSystem struct{}

// NewDefaultFileSystem creates a new DefaultFileSystem
func NewDefaultFileSystem() *DefaultFileSystem {
	return &DefaultFileSystem{}
}

// Lstat returns file information without following symlinks
func (fs *DefaultFileSystem) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// FileExists checks if a file or directory exists
func (fs *DefaultFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// ReadFile reads the entire contents of a file
func (fs *DefaultFileSystem) ReadFile(path string) ([]byte, error) {
	// #nosec G304 - callers validate paths before reading
	return os.ReadFile(path)
}

// MkdirAll creates a directory and all necessary parents with the specified permissions
func (fs *DefaultFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// UserHomeDir returns the current user's home directory
func (fs *DefaultFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// ResolvedPath is a type that represents a file path that has been resolved
// (e.g., through symlink resolution or absolute path conversion).
type ResolvedPath string

// NewResolvedPath creates a new ResolvedPath from a string.
// Returns an error if the path is empty.
func NewResolvedPath(path string) (ResolvedPath, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	return ResolvedPath(path), nil
}

func (p ResolvedPath) String() string {
	return string(p)
}

// ContainsPathTraversalSegment checks if a path contains ".." as a distinct path segment.
// This avoids false positives for legitimate filenames that contain ".." (e.g., "archive..zip")
func ContainsPathTraversalSegment(path string) bool {
	segments := strings.Split(path, string(filepath.Separator))
	return slices.Contains(segments, "..")
}
