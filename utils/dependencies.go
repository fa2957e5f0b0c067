package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// ValidateFFmpegDependencies checks if ffmpeg and ffprobe are available in PATH
func ValidateFFmpegDependencies(ffmpeg, ffprobe string) error {
	// Check for ffprobe
	if _, err := exec.LookPath(ffprobe); err != nil {
		return fmt.Errorf("ffprobe (%s) not found in PATH. %s", ffprobe, getInstallationInstructions())
	}

	// Check for ffmpeg
	if _, err := exec.LookPath(ffmpeg); err != nil {
		return fmt.Errorf("ffmpeg (%s) not found in PATH. %s", ffmpeg, getInstallationInstructions())
	}

	return nil
}

// ValidateWorker checks that the colorization inference worker can be started
func ValidateWorker(worker string) error {
	if _, err := exec.LookPath(worker); err != nil {
		return fmt.Errorf("inference worker %q not found in PATH. Set VCOLOR_WORKER to the command that serves the colorization models", worker)
	}
	return nil
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install ffmpeg"
	case "linux":
		return "Install with: apt-get install ffmpeg (Ubuntu/Debian) or yum install ffmpeg (CentOS/RHEL)"
	case "windows":
		return "Download from https://ffmpeg.org/download.html and add to PATH"
	default:
		return "Download from https://ffmpeg.org/download.html"
	}
}
