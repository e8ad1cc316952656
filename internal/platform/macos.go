package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:       MacOS,
		HomeDir:  homeDir,
		Username: username,
		StorageRoots: []string{
			filepath.Join(homeDir, "Library/Caches"),
			filepath.Join(homeDir, "Library/Logs"),
			filepath.Join(homeDir, "Downloads"),
		},
		MediaRoots: []string{
			filepath.Join(homeDir, "Pictures"),
			filepath.Join(homeDir, "Desktop"),
		},
		ProtectedPaths: []string{
			"/Library/System",
			"/private/var/db",
			filepath.Join(homeDir, "Library/Keychains"),
			filepath.Join(homeDir, "Library/Application Support"),
		},
	}
}
