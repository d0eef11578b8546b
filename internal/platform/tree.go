package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrFilesystem is matched by every *FSError.
var ErrFilesystem = errors.New("filesystem error")

// FSError records a failed filesystem operation.
type FSError struct {
	Op   string
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFilesystem) true for any FSError.
func (e *FSError) Is(target error) bool { return target == ErrFilesystem }

// Resolve joins rel onto root and rejects results that leave root.
func Resolve(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", &FSError{Op: "resolve", Path: rel, Err: errors.New("path must be relative")}
	}
	clean := filepath.Clean(filepath.Join(root, rel))
	base := filepath.Clean(root)
	if clean != base && !strings.HasPrefix(clean, base+string(filepath.Separator)) {
		return "", &FSError{Op: "resolve", Path: rel, Err: fmt.Errorf("escapes %s", root)}
	}
	return clean, nil
}

// EnsureTree creates root and every root/rel directory, including missing
// parents. Directories that already exist are left alone. It returns the
// absolute paths in argument order.
func EnsureTree(root string, rel ...string) ([]string, error) {
	if err := os.MkdirAll(root, DirPerm); err != nil {
		return nil, &FSError{Op: "mkdir", Path: root, Err: err}
	}
	created := make([]string, 0, len(rel))
	for _, r := range rel {
		path, err := Resolve(root, r)
		if err != nil {
			return created, err
		}
		if err := os.MkdirAll(path, DirPerm); err != nil {
			return created, &FSError{Op: "mkdir", Path: path, Err: err}
		}
		created = append(created, path)
	}
	return created, nil
}

// WriteFile overwrites root/rel with data, creating parent directories.
func WriteFile(root, rel string, data []byte, perm os.FileMode) (string, error) {
	path, err := Resolve(root, rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return "", &FSError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return "", &FSError{Op: "write", Path: path, Err: err}
	}
	// WriteFile keeps the old mode on existing files.
	if err := Chmod(path, perm); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveIfExists deletes the file root/rel. A missing file is not an error;
// the boolean reports whether anything was removed.
func RemoveIfExists(root, rel string) (bool, error) {
	path, err := Resolve(root, rel)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &FSError{Op: "remove", Path: path, Err: err}
	}
}

// IsEmptyDir reports whether path is missing or an empty directory.
func IsEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, &FSError{Op: "readdir", Path: path, Err: err}
	}
	return len(entries) == 0, nil
}
