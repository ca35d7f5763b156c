package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CreateConcatFile writes an ffmpeg concat demuxer list that shows every
// file for the given number of seconds. The last file is listed once more
// so the demuxer honors its duration.
func CreateConcatFile(files []string, seconds float64, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	duration := strconv.FormatFloat(seconds, 'f', -1, 64)
	for _, f := range files {
		if _, err := fmt.Fprintf(file, "file '%s'\nduration %s\n", concatPath(f), duration); err != nil {
			return err
		}
	}
	if len(files) > 0 {
		if _, err := fmt.Fprintf(file, "file '%s'\n", concatPath(files[len(files)-1])); err != nil {
			return err
		}
	}
	return file.Close()
}

func concatPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	// Convert to forward slashes for FFmpeg compatibility
	ffmpegPath := strings.ReplaceAll(absPath, "\\", "/")
	return strings.ReplaceAll(ffmpegPath, "'", "'\\''")
}

// ValidateFFmpegInstalled checks that the ffmpeg binary can be found
func ValidateFFmpegInstalled(binary string) error {
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s not found in PATH. Please install FFmpeg", binary)
	}
	return nil
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, 0755)
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
