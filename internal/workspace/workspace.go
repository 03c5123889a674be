// Package workspace locates the repository root and reads working
// files relative to it.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RepoDir is the directory that marks a repository root.
const RepoDir = ".zit"

// ErrNoRepository is returned by FindRoot when no enclosing repository
// exists.
var ErrNoRepository = errors.New("not inside a repository (no " + RepoDir + " found)")

var ignoreDirs = map[string]bool{
	".git":         true,
	RepoDir:        true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// FindRoot walks upward from startDir to the nearest directory
// containing RepoDir.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, RepoDir)); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRepository
		}
		dir = parent
	}
}

// Worktree resolves and reads working files under a repository root.
type Worktree struct {
	root string
}

func NewWorktree(root string) *Worktree {
	return &Worktree{root: root}
}

func (w *Worktree) Root() string {
	return w.root
}

// Rel normalizes path to a slash-separated path relative to the root.
// Absolute paths and paths given relative to the current directory both
// come out the same way.
func (w *Worktree) Rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Read returns the content of the working file at the root-relative
// path.
func (w *Worktree) Read(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(w.root, filepath.FromSlash(relPath)))
}

// List returns the root-relative paths of every eligible working file,
// skipping ignored directories and hidden files.
func (w *Worktree) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if ShouldIgnore(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ShouldIgnore reports whether a root-relative path is outside the
// tracked tree: anything under an ignored or hidden directory, or a
// hidden file itself.
func ShouldIgnore(relPath string) bool {
	if relPath == "" {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
		if ignoreDirs[part] {
			return true
		}
	}
	return false
}
