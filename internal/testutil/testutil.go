// Package testutil provides test helpers and fixtures for sweeper tests.
// OS fixtures live under t.TempDir(); memory fixtures use afero.MemMapFs.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// TestFixture holds a filesystem and a storage-like directory layout
type TestFixture struct {
	T       *testing.T
	Fs      afero.Fs
	RootDir string // storage root

	CacheDir     string
	LogsDir      string
	TempDir      string
	DownloadDir  string
	DCIMDir      string
	DocumentsDir string
}

// NewFixture creates a fixture on the real filesystem under t.TempDir()
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()
	return newFixture(t, afero.NewOsFs(), t.TempDir())
}

// NewMemFixture creates a fixture on an in-memory filesystem rooted at
// /sdcard
func NewMemFixture(t *testing.T) *TestFixture {
	t.Helper()
	return newFixture(t, afero.NewMemMapFs(), "/sdcard")
}

func newFixture(t *testing.T, fs afero.Fs, root string) *TestFixture {
	f := &TestFixture{
		T:            t,
		Fs:           fs,
		RootDir:      root,
		CacheDir:     filepath.Join(root, "Android", "data", "com.example", "cache"),
		LogsDir:      filepath.Join(root, "logs"),
		TempDir:      filepath.Join(root, "tmp"),
		DownloadDir:  filepath.Join(root, "Download"),
		DCIMDir:      filepath.Join(root, "DCIM", "Camera"),
		DocumentsDir: filepath.Join(root, "Documents"),
	}

	dirs := []string{
		f.CacheDir,
		f.LogsDir,
		f.TempDir,
		f.DownloadDir,
		f.DCIMDir,
		f.DocumentsDir,
	}

	for _, dir := range dirs {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	return f
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := f.Path(relPath)
	if err := f.Fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		f.T.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}

	if err := afero.WriteFile(f.Fs, fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSizedFile creates a zero-filled file of the given size
func (f *TestFixture) CreateSizedFile(relPath string, size int) string {
	f.T.Helper()
	return f.CreateFile(relPath, make([]byte, size))
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, size int, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateSizedFile(relPath, size)
	f.SetModTime(fullPath, time.Now().Add(-age))
	return fullPath
}

// SetModTime sets both access and modification time of path
func (f *TestFixture) SetModTime(path string, t time.Time) {
	f.T.Helper()
	if err := f.Fs.Chtimes(path, t, t); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", path, err)
	}
}

// =============================================================================
// OS-only Helpers
// =============================================================================

// CreateSymlink creates a symbolic link. OS fixtures only.
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	linker, ok := f.Fs.(afero.Linker)
	if !ok {
		f.T.Skip("filesystem does not support symlinks")
	}

	fullLinkPath := f.Path(linkPath)
	if err := f.Fs.MkdirAll(filepath.Dir(fullLinkPath), 0755); err != nil {
		f.T.Fatalf("failed to create directory for %s: %v", fullLinkPath, err)
	}
	if err := linker.SymlinkIfPossible(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}

	return fullLinkPath
}

// CreateReadOnlyDir creates a directory holding one file that cannot be
// deleted. OS fixtures only.
func (f *TestFixture) CreateReadOnlyDir(relPath string) (dir, trapped string) {
	f.T.Helper()
	SkipIfRoot(f.T)

	dir = f.Path(relPath)
	trapped = f.CreateFile(filepath.Join(relPath, "trapped.txt"), []byte("trapped"))
	if err := f.Fs.Chmod(dir, 0555); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dir, err)
	}

	// Restore permissions so TempDir cleanup works
	f.T.Cleanup(func() {
		f.Fs.Chmod(dir, 0755)
	})

	return dir, trapped
}

// SkipIfRoot skips tests that rely on permission checks
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission checks do not apply")
	}
}

// =============================================================================
// Path and Assertion Helpers
// =============================================================================

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// FileExists checks if a file exists
func (f *TestFixture) FileExists(path string) bool {
	_, err := f.Fs.Stat(path)
	return err == nil
}

// AssertFileExists fails the test if the file doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected file to not exist: %s", path)
	}
}

// =============================================================================
// Fault Injection
// =============================================================================

// FaultFs wraps a filesystem and fails selected operations on selected
// paths. It does not implement afero.Lstater, so callers fall back to Stat.
type FaultFs struct {
	afero.Fs

	mu     sync.Mutex
	faults map[string]map[string]error
}

// Fault operation names
const (
	OpOpen   = "open"
	OpStat   = "stat"
	OpRemove = "remove"
)

// NewFaultFs wraps base
func NewFaultFs(base afero.Fs) *FaultFs {
	return &FaultFs{Fs: base, faults: make(map[string]map[string]error)}
}

// Fail makes op on path return err
func (fs *FaultFs) Fail(op, path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.faults[op] == nil {
		fs.faults[op] = make(map[string]error)
	}
	fs.faults[op][filepath.Clean(path)] = err
}

// Heal removes every fault on path
func (fs *FaultFs) Heal(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, m := range fs.faults {
		delete(m, filepath.Clean(path))
	}
}

func (fs *FaultFs) fault(op, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.faults[op][filepath.Clean(path)]
}

// Open implements afero.Fs
func (fs *FaultFs) Open(name string) (afero.File, error) {
	if err := fs.fault(OpOpen, name); err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return fs.Fs.Open(name)
}

// Stat implements afero.Fs
func (fs *FaultFs) Stat(name string) (os.FileInfo, error) {
	if err := fs.fault(OpStat, name); err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return fs.Fs.Stat(name)
}

// Remove implements afero.Fs
func (fs *FaultFs) Remove(name string) error {
	if err := fs.fault(OpRemove, name); err != nil {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	return fs.Fs.Remove(name)
}
