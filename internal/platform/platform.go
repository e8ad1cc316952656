package platform

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v3/disk"
)

// Platform represents the operating system platform
type Platform string

const (
	Android Platform = "android"
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific storage locations
type Info struct {
	OS       Platform
	HomeDir  string
	Username string

	// StorageRoots are scanned for junk and large files
	StorageRoots []string
	// MediaRoots hold camera and screenshot images for the media index
	MediaRoots []string
	// InstalledAppDirs hold APKs that belong to installed apps
	InstalledAppDirs []string
	// ProtectedPaths are never deleted, on top of the system defaults
	ProtectedPaths []string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "android":
		return Android
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information
func GetInfo() (*Info, error) {
	platform := Detect()

	homeDir, username := currentUser()

	switch platform {
	case Android:
		return getAndroidInfo(homeDir, username), nil
	case MacOS:
		return getMacOSInfo(homeDir, username), nil
	case Linux:
		return getLinuxInfo(homeDir, username), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// currentUser falls back to $HOME where os/user cannot resolve the user,
// which is common on Android
func currentUser() (homeDir, username string) {
	if u, err := user.Current(); err == nil {
		return u.HomeDir, u.Username
	}
	homeDir, _ = os.UserHomeDir()
	return homeDir, os.Getenv("USER")
}

// GetUserConfigDir returns the directory sweeper keeps its config in
func GetUserConfigDir() (string, error) {
	switch Detect() {
	case Android:
		// Termux and similar shells set HOME to an app-private directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config"), nil
	case MacOS, Linux:
		// Try XDG_CONFIG_HOME first
		if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
			return configDir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config"), nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

// StorageInfo is the capacity of the volume holding a path
type StorageInfo struct {
	Path        string
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
}

// Usage returns capacity figures for the volume that holds path
func Usage(path string) (*StorageInfo, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage usage for %s: %w", path, err)
	}

	return &StorageInfo{
		Path:        stat.Path,
		Total:       stat.Total,
		Used:        stat.Used,
		Free:        stat.Free,
		UsedPercent: stat.UsedPercent,
	}, nil
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
