package cleaner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// errSymlink marks an entry that turned into a symlink after the scan
var errSymlink = errors.New("path is a symlink")

// SpecialFileError returns an error if mode is not a plain file that the
// cleaner may remove
func SpecialFileError(mode os.FileMode) error {
	switch {
	case mode&os.ModeSymlink != 0:
		return errSymlink
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("is a device file")
	case mode&os.ModeCharDevice != 0:
		return fmt.Errorf("is a character device")
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("is a named pipe (FIFO)")
	case mode.IsDir():
		return fmt.Errorf("is a directory")
	}
	return nil
}

// lstat stats path without following symlinks when fs supports it
func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// PermissionReport splits entries by whether their parent directory looks
// writable. It is a hint for previews; the delete itself decides.
type PermissionReport struct {
	Writable     []string
	ReadOnly     []string
	Inaccessible map[string]error
}

// AnalyzePermissions checks the parent directory of every path on fs
func AnalyzePermissions(fs afero.Fs, paths []string) *PermissionReport {
	report := &PermissionReport{Inaccessible: make(map[string]error)}

	for _, path := range paths {
		parent, err := fs.Stat(filepath.Dir(path))
		if err != nil {
			report.Inaccessible[path] = err
			continue
		}
		if parent.Mode().Perm()&0200 == 0 {
			report.ReadOnly = append(report.ReadOnly, path)
			continue
		}
		report.Writable = append(report.Writable, path)
	}

	return report
}
