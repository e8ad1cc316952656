package cleaner

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePermissions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sdcard/tmp/a.tmp", []byte("a"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/sdcard/locked/b.tmp", []byte("b"), 0644))
	require.NoError(t, fs.Chmod("/sdcard/locked", os.ModeDir|0555))

	report := AnalyzePermissions(fs, []string{
		"/sdcard/tmp/a.tmp",
		"/sdcard/locked/b.tmp",
		"/gone/c.tmp",
	})

	assert.Equal(t, []string{"/sdcard/tmp/a.tmp"}, report.Writable)
	assert.Equal(t, []string{"/sdcard/locked/b.tmp"}, report.ReadOnly)
	require.Len(t, report.Inaccessible, 1)
	assert.Contains(t, report.Inaccessible, "/gone/c.tmp")
}

func TestSpecialFileError(t *testing.T) {
	tests := []struct {
		name    string
		mode    os.FileMode
		wantErr bool
	}{
		{"regular file", 0644, false},
		{"directory", os.ModeDir | 0755, true},
		{"symlink", os.ModeSymlink | 0777, true},
		{"named pipe", os.ModeNamedPipe | 0644, true},
		{"socket", os.ModeSocket | 0644, true},
		{"device", os.ModeDevice | 0644, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SpecialFileError(tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
