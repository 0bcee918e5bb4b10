package safefileio

import (
	"fmt"
	"os"
	"path/filepath"
)

// SafeReadFile reads a file after verifying that the path refers to a regular
// file and that its size does not exceed maxSize. The size is checked with
// Lstat before reading so an oversized or irregular file is rejected without
// touching its contents. Symbolic links are refused; callers are expected to
// canonicalize paths first, so a remaining symlink indicates tampering.
func SafeReadFile(filePath string, maxSize int64) ([]byte, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, absPath)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, absPath, info.Size(), maxSize)
	}

	// #nosec G304 - the path was validated above
	return os.ReadFile(absPath)
}

// AtomicWriteFile replaces the file at filePath with content using a
// write-to-temp-then-rename sequence, so concurrent readers observe either the
// old or the new contents, never a partial write. The destination must not be
// a symbolic link; the temporary file is created in the destination directory
// with the requested permissions before the rename.
func AtomicWriteFile(filePath string, content []byte, perm os.FileMode) (err error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	if info, lerr := os.Lstat(absPath); lerr == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", ErrNotRegularFile, absPath)
		}
	} else if !os.IsNotExist(lerr) {
		return fmt.Errorf("failed to stat %s: %w", absPath, lerr)
	}

	dir := filepath.Dir(absPath)
	tmp, err := os.CreateTemp(dir, filepath.Base(absPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	// Remove the temporary file on any failure path.
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if _, err = tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err = os.Rename(tmpName, absPath); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmpName, absPath, err)
	}
	return nil
}
