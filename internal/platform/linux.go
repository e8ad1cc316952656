package platform

import "path/filepath"

// getAndroidInfo returns the shared storage layout of an Android device
func getAndroidInfo(homeDir, username string) *Info {
	const storage = "/storage/emulated/0"

	return &Info{
		OS:       Android,
		HomeDir:  homeDir,
		Username: username,
		StorageRoots: []string{
			storage,
		},
		MediaRoots: []string{
			filepath.Join(storage, "DCIM"),
			filepath.Join(storage, "Pictures"),
		},
		InstalledAppDirs: []string{
			"/data/app",
			"/system/app",
			"/system/priv-app",
		},
		ProtectedPaths: []string{
			"/data/data",
			filepath.Join(storage, "Android/obb"),
		},
	}
}

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	return &Info{
		OS:       Linux,
		HomeDir:  homeDir,
		Username: username,
		StorageRoots: []string{
			filepath.Join(homeDir, ".cache"),
			filepath.Join(homeDir, "Downloads"),
			filepath.Join(homeDir, ".local/share/Trash"),
		},
		MediaRoots: []string{
			filepath.Join(homeDir, "Pictures"),
		},
		ProtectedPaths: []string{
			"/home",
			"/opt",
			"/root",
			"/run",
			"/srv",
			"/var/lib",
			filepath.Join(homeDir, ".config"),
			filepath.Join(homeDir, ".ssh"),
		},
	}
}
