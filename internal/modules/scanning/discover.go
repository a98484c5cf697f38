package scanning

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aristath/roadscan/internal/domain"
)

// ImageExtensions are the file suffixes Discover accepts, compared case-insensitively
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// Discover lists the image files directly inside dir, sorted by name.
// Subdirectories are not visited.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, "discover images", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range ImageExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// LocationHint derives a human label from an image path: the base name up to
// its first dot, with underscores turned into spaces.
func LocationHint(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "_", " ")
}
