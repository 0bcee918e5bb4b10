// Package safefileio provides secure file I/O operations with protection against
// common security vulnerabilities like symlink attacks and oversized inputs.
package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the specified path is a symbolic link, which is not allowed.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrFileTooLarge indicates that the file is too large.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotRegularFile indicates that the path exists but is not a regular file.
	ErrNotRegularFile = errors.New("not a regular file")
)
