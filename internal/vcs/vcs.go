package vcs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultIgnores are the root .gitignore entries every generated project
// gets.
var DefaultIgnores = []string{"node_modules", ".env", "dist"}

// Init creates a git repository at root on the main branch. It reports
// false without error when root is already a repository.
func Init(root string) (bool, error) {
	_, err := git.PlainInitWithOptions(root, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("initializing git repository at %s: %w", root, err)
	}
	return true, nil
}

// EnsureIgnored appends each missing line to root/.gitignore, creating the
// file if needed. Lines already present are left alone.
func EnsureIgnored(root string, lines ...string) ([]string, error) {
	path := filepath.Join(root, ".gitignore")

	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading .gitignore: %w", err)
	}

	present := make(map[string]bool)
	for _, l := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(l)] = true
	}

	var added []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || present[l] {
			continue
		}
		present[l] = true
		added = append(added, l)
	}
	if len(added) == 0 {
		return nil, nil
	}

	suffix := strings.Join(added, "\n") + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		suffix = "\n" + suffix
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening .gitignore for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(suffix); err != nil {
		return nil, fmt.Errorf("writing to .gitignore: %w", err)
	}
	return added, nil
}
