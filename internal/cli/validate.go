package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDirectory checks that the path exists and is a directory, then
// returns the absolute path.
func ResolveDirectory(dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory not found: %s", dirPath)
		}
		return "", fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dirPath)
	}

	if absPath, err := filepath.Abs(dirPath); err == nil {
		dirPath = absPath
	}
	return dirPath, nil
}
