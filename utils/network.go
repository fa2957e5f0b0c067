package utils

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Common network mount prefixes on different platforms
var networkPrefixes = []string{
	"/mnt/",     // Linux NFS/SMB mounts
	"/media/",   // Linux removable/network media
	"/Volumes/", // macOS network volumes
}

// Network filesystem indicators in a path
var networkIndicators = []string{"nfs", "cifs", "smb", "webdav", "ftp", "sftp"}

// IsNetworkDrive detects if a path is on a network-mounted drive
func IsNetworkDrive(path string) bool {
	// Windows UNC paths, checked before converting to an absolute path
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, `\\`) {
		return true
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(absPath, prefix) {
			return true
		}
	}

	lowerPath := strings.ToLower(absPath)
	for _, indicator := range networkIndicators {
		if strings.Contains(lowerPath, indicator) {
			return true
		}
	}

	return false
}

// DefaultWorkers picks the transform worker count when the user asked for
// automatic sizing. Frames are written to the workspace, so a workspace on a
// network drive gets a single worker.
func DefaultWorkers(workDir string) int {
	if IsNetworkDrive(workDir) {
		return 1
	}
	return runtime.NumCPU()
}
