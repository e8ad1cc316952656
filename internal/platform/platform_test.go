package platform

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	want := map[string]Platform{"android": Android, "darwin": MacOS, "linux": Linux}
	expected, ok := want[runtime.GOOS]
	if !ok {
		expected = Unknown
	}
	assert.Equal(t, expected, Detect())
}

func TestPlatformLayouts(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		os   Platform
	}{
		{"android", getAndroidInfo("/data/home", "u0"), Android},
		{"linux", getLinuxInfo("/home/u", "u"), Linux},
		{"macos", getMacOSInfo("/Users/u", "u"), MacOS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.os, tt.info.OS)
			require.NotEmpty(t, tt.info.StorageRoots)
			require.NotEmpty(t, tt.info.MediaRoots)
			for _, p := range append(tt.info.StorageRoots, tt.info.MediaRoots...) {
				assert.True(t, filepath.IsAbs(p), "%s must be absolute", p)
			}
		})
	}
}

func TestAndroidLayout(t *testing.T) {
	info := getAndroidInfo("/data/home", "u0")

	assert.Equal(t, []string{"/storage/emulated/0"}, info.StorageRoots)
	assert.Contains(t, info.MediaRoots, "/storage/emulated/0/DCIM")
	assert.Contains(t, info.InstalledAppDirs, "/data/app")
}

func TestUsage(t *testing.T) {
	info, err := Usage(t.TempDir())
	require.NoError(t, err)

	assert.Positive(t, info.Total)
	assert.LessOrEqual(t, info.Used, info.Total)
	assert.GreaterOrEqual(t, info.UsedPercent, 0.0)
	assert.LessOrEqual(t, info.UsedPercent, 100.0)
}

func TestUsageMissingPath(t *testing.T) {
	_, err := Usage(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
