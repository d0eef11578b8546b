package platform

import (
	"os"
	"runtime"
)

// Permission constants.
const (
	DirPerm        os.FileMode = 0755
	FilePerm       os.FileMode = 0644
	FilePermSecret os.FileMode = 0600
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return &FSError{Op: "chmod", Path: path, Err: err}
	}
	return nil
}
