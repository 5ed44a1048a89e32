// Package files holds small local-filesystem helpers used around uploads.
package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// FindFiles walks a directory tree and returns the paths of files matching
// one of the given extensions. Extensions are compared case-insensitively
// and may be given with or without the leading dot.
func FindFiles(dir string, extensions []string) ([]string, error) {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, strings.ToLower(ext))
	}

	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range normalized {
			if ext == want {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}

	return found, nil
}

// RenameFile renames a file within its directory and returns the new path.
func RenameFile(path, newName string) (string, error) {
	newPath := filepath.Join(filepath.Dir(path), newName)
	if err := os.Rename(path, newPath); err != nil {
		return "", fmt.Errorf("failed to rename %s to %s: %w", path, newName, err)
	}
	return newPath, nil
}

func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// FormatSize renders a byte count in a human-readable form, e.g. "2.3 MB".
func FormatSize(size int64) string {
	return humanize.Bytes(uint64(size))
}
