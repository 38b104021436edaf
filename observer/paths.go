package observer

import (
	"path/filepath"
	"strings"
)

// RelativePath returns path relative to root using forward slashes. Paths
// that are already relative, or that live outside root, are returned
// cleaned but otherwise unchanged.
func RelativePath(root, path string) string {
	if path == "" {
		return ""
	}
	if root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

// absolutePath resolves a relative path against root so the file can be
// opened regardless of the process working directory.
func absolutePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}
