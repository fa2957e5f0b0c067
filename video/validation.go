package video

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsVideoFile checks if the given file extension is one of known video file extensions
func IsVideoFile(path string) bool {
	var desiredExtensions = []string{".mp4", ".webm", ".mov", ".flv", ".mkv", ".avi", ".wmv", ".mpg"}

	ext := strings.ToLower(filepath.Ext(path)) // handle cases where extension is upper case

	for _, v := range desiredExtensions {
		if v == ext {
			return true
		}
	}
	return false
}

// ValidateInput checks that the source video exists and is a regular file
func ValidateInput(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input not accessible: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("input %s is a directory", path)
	}
	return nil
}

// ValidateOutput checks that the final artifact can be written to path: the
// extension must name a container ffmpeg can mux into, the parent directory
// must exist, and the output must not overwrite the input.
func ValidateOutput(input, output string) error {
	if !IsVideoFile(output) {
		return fmt.Errorf("output %s does not have a known video extension", output)
	}

	dir := filepath.Dir(output)
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory not accessible: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}

	inAbs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if inAbs == outAbs {
		return fmt.Errorf("output must not be the input file")
	}
	return nil
}

// extractFirstLine extracts just the first line from a multi-line string
func extractFirstLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		return strings.TrimSpace(lines[0])
	}
	return "no additional information available"
}
