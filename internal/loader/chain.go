package loader

import (
	"path/filepath"
	"syscall"
)

// dirIdentity identifies a physical directory by device and inode, so two
// path spellings that resolve to the same directory count as one visit.
type dirIdentity struct {
	dev uint64
	ino uint64
}

// buildChain returns the directory chain from startDir (innermost, first
// element) up to and including the home directory, or the filesystem root if
// startDir is not under home. The walk stops early when a directory's inode
// has already been visited, which breaks symlink cycles that lexical parent
// traversal alone would not catch.
func (l *Loader) buildChain(startDir string) ([]string, error) {
	start, err := l.validator.Validate(startDir)
	if err != nil {
		return nil, err
	}

	home := l.cfg.HomeDir
	if resolved, err := l.validator.Canonicalize(home); err == nil {
		home = resolved.String()
	}

	var chain []string
	visited := make(map[dirIdentity]bool)

	dir := start.String()
	for {
		if id, ok := identify(dir); ok {
			if visited[id] {
				break
			}
			visited[id] = true
		}
		chain = append(chain, dir)

		if dir == home {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // filesystem root
		}
		dir = parent
	}
	return chain, nil
}

// identify returns the device+inode identity of a directory. ok is false
// when the directory cannot be stat'ed or the platform does not expose
// inode numbers; the walk then falls back to lexical termination only.
func identify(dir string) (dirIdentity, bool) {
	var st syscall.Stat_t
	if err := syscall.Stat(dir, &st); err != nil {
		return dirIdentity{}, false
	}
	//nolint:unconvert // Dev/Ino widths differ across unix platforms
	return dirIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
