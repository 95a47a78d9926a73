package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ContainedPath joins a single file name onto dir. It fails when name is not a
// plain file name or when a symlink already sitting at that location points
// outside dir, dangling or not.
func ContainedPath(dir string, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("%q is not a plain file name", name)
	}
	joined := filepath.Join(dir, name)

	info, err := os.Lstat(joined)
	if errors.Is(err, os.ErrNotExist) {
		return joined, nil
	}
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return joined, nil
	}

	target, err := os.Readlink(joined)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	resolvedDir, err := resolveExisting(dir)
	if err != nil {
		return "", err
	}
	resolvedTarget, err := resolveExisting(target)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(resolvedDir, resolvedTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q links outside %q", joined, dir)
	}
	return joined, nil
}

// resolveExisting resolves symlinks in the longest existing prefix of path and
// keeps the missing suffix as written.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}
