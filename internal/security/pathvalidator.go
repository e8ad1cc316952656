package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator handles path validation before deletion. It works on the
// path string alone so it applies to any filesystem; symlinks are refused
// by the cleaner after an Lstat. ValidateResolvedPath adds the symlink
// check for the real filesystem.
type PathValidator struct {
	protectedPaths []string
	allowedRoots   []string
}

// NewPathValidator creates a new PathValidator with default protected paths
func NewPathValidator() *PathValidator {
	return &PathValidator{
		protectedPaths: []string{
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/sbin",
			"/sys",
			"/usr",
			// Android system partitions
			"/system",
			"/vendor",
			"/product",
			"/apex",
			"/data/system",
			// macOS system directories
			"/System",
			"/Applications",
		},
	}
}

// ValidatePathForDeletion checks a path before deletion. It must be
// absolute and clean, free of control characters, outside the protected
// system paths and, when roots are configured, inside one of them.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	for _, r := range path {
		if r == 0 || r == '\n' || r == '\r' {
			return fmt.Errorf("path contains control characters: %q", path)
		}
	}

	if err := pv.checkProtectedPaths(path); err != nil {
		return err
	}

	if len(pv.allowedRoots) > 0 && !pv.underAllowedRoot(path) {
		return fmt.Errorf("path is outside the scanned roots: %s", path)
	}

	return nil
}

// checkProtectedPaths validates that a path is not in a protected system directory
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}
		if protected != "/" && strings.HasPrefix(cleanPath, protected+"/") {
			return fmt.Errorf("refusing to delete system path: %s", cleanPath)
		}
	}

	return nil
}

// ValidateResolvedPath runs ValidatePathForDeletion, then resolves the parent
// directory through symlinks and checks the resolved path again. Allowed
// roots match in either their configured or their resolved form. The file
// itself is not followed; the cleaner refuses symlinked files after Lstat.
func (pv *PathValidator) ValidateResolvedPath(path string) error {
	if err := pv.ValidatePathForDeletion(path); err != nil {
		return err
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to delete; Lstat reports the missing file
			return nil
		}
		return fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	resolved := filepath.Join(parent, filepath.Base(path))
	if resolved == path {
		return nil
	}

	if err := pv.checkProtectedPaths(resolved); err != nil {
		return err
	}

	if len(pv.allowedRoots) > 0 && !underRoots(resolved, pv.resolvedRoots()) {
		return fmt.Errorf("path resolves outside the scanned roots: %s -> %s", path, resolved)
	}

	return nil
}

func (pv *PathValidator) resolvedRoots() []string {
	roots := make([]string, 0, 2*len(pv.allowedRoots))
	for _, root := range pv.allowedRoots {
		roots = append(roots, root)
		if real, err := filepath.EvalSymlinks(root); err == nil && real != root {
			roots = append(roots, real)
		}
	}
	return roots
}

func (pv *PathValidator) underAllowedRoot(path string) bool {
	return underRoots(path, pv.allowedRoots)
}

func underRoots(path string, roots []string) bool {
	for _, root := range roots {
		if path != root && strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}

// IsProtectedPath checks if a path is a protected system path
func (pv *PathValidator) IsProtectedPath(path string) bool {
	return pv.checkProtectedPaths(filepath.Clean(path)) != nil
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	pv.protectedPaths = append(pv.protectedPaths, filepath.Clean(path))
}

// AllowRoot confines deletions to paths below root. With no roots allowed,
// every unprotected absolute path is accepted.
func (pv *PathValidator) AllowRoot(root string) {
	pv.allowedRoots = append(pv.allowedRoots, filepath.Clean(root))
}

// ValidateGlobPattern validates that a glob pattern is safe
func ValidateGlobPattern(pattern string) error {
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	// Try to match the pattern to ensure it's valid
	if _, err := filepath.Match(pattern, "test"); err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}
